package sema

import (
	"fmt"
	"strconv"
	"strings"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/source"
	"hydra/internal/symbols"
	"hydra/internal/types"
)

// armCoverage collects the literal values matched so far.
type armCoverage struct {
	catchAll bool
	seen     map[string]source.Span
}

// typeMatch unifies the arm values into the type of the match. The first
// arm seeds the type; literal patterns must fit the scrutinee.
func (tc *typeChecker) typeMatch(id ast.ExprID, span source.Span, expected types.TypeID) types.TypeID {
	b := tc.types.Builtins()
	data, _ := tc.builder.Exprs.Match(id)
	st := tc.typeExpr(data.Scrutinee, types.NoTypeID)
	cov := armCoverage{seen: make(map[string]source.Span, len(data.Arms))}

	result := types.NoTypeID
	arms := make([]func(), len(data.Arms))
	for i, arm := range data.Arms {
		arms[i] = func() {
			if cov.catchAll {
				diag.ReportWarning(tc.rep(), diag.SemaUnreachableArm, arm.Span,
					"unreachable arm: an earlier arm matches every value").
					Emit()
			}
			tc.checkPattern(id, i, arm, st, &cov)

			hint := expected
			if result != types.NoTypeID {
				hint = result
			}
			vt := tc.typeExpr(arm.Value, hint)
			switch {
			case result == types.NoTypeID:
				result = vt
			case tc.types.IsUnresolved(vt), tc.types.IsUnresolved(result):
			default:
				u, ok := tc.types.Unify(result, vt)
				if !ok {
					diag.ReportError(tc.rep(), diag.SemaMatchArmTypeMismatch, tc.exprSpan(arm.Value),
						fmt.Sprintf("match arm %d has type %s, expected %s", i, tc.label(vt), tc.label(result))).
						WithArgs(strconv.Itoa(i), tc.label(vt), tc.label(result)).
						Emit()
					return
				}
				result = u
			}
		}
	}
	// каждая ветка начинается с одних и тех же срезов
	tc.branch(arms...)
	tc.checkCoverage(span, st, &cov)
	if result == types.NoTypeID {
		return b.Unresolved
	}
	return result
}

func (tc *typeChecker) checkPattern(match ast.ExprID, index int, arm ast.MatchArm, st types.TypeID, cov *armCoverage) {
	switch arm.Pattern.Kind {
	case ast.PatternWildcard:
		cov.catchAll = true
	case ast.PatternBinding:
		cov.catchAll = true
		sym, ok := tc.syms.ArmSymbols[symbols.ArmRef{Match: match, Index: index}]
		if !ok {
			return
		}
		binding := &Binding{Symbol: sym, Name: tc.name(sym), Type: st}
		if s := tc.symbol(sym); s != nil {
			binding.Scope = s.Scope
		}
		tc.body.ann.Bindings[sym] = binding
	case ast.PatternLiteral:
		lt := tc.typeExpr(arm.Pattern.Lit, st)
		if !tc.types.IsUnresolved(st) && !tc.symbolic(st) && !tc.types.Assignable(st, lt) {
			diag.ReportError(tc.rep(), diag.SemaMatchPatternType, arm.Pattern.Span,
				fmt.Sprintf("pattern of type %s cannot match a value of type %s", tc.label(lt), tc.label(st))).
				WithArgs(tc.label(lt), tc.label(st)).
				Emit()
			return
		}
		key := tc.patternKey(arm.Pattern.Lit)
		if key == "" {
			return
		}
		if prev, dup := cov.seen[key]; dup {
			diag.ReportWarning(tc.rep(), diag.SemaUnreachableArm, arm.Span,
				"unreachable arm: the pattern is already matched").
				WithNote(prev, "first matched here").
				Emit()
			return
		}
		cov.seen[key] = arm.Pattern.Span
	}
}

// patternKey normalizes a literal pattern so that equal values compare equal.
func (tc *typeChecker) patternKey(id ast.ExprID) string {
	if un, ok := tc.builder.Exprs.Unary(id); ok && un.Op == ast.OpNeg {
		if v, folded, _ := tc.constInt(id); folded {
			return "int:" + strconv.FormatInt(v, 10)
		}
		return ""
	}
	lit, ok := tc.builder.Exprs.Literal(id)
	if !ok {
		return ""
	}
	text := tc.builder.NameOf(lit.Value)
	switch lit.Kind {
	case ast.LitInt:
		if v, ok := parseIntLiteral(text); ok {
			return "int:" + strconv.FormatUint(v, 10)
		}
	case ast.LitNone:
		return "none"
	}
	return lit.Kind.String() + ":" + text
}

// checkCoverage: bool and bool? have finite domains, every other scrutinee
// needs a catch-all arm.
func (tc *typeChecker) checkCoverage(span source.Span, st types.TypeID, cov *armCoverage) {
	if cov.catchAll || tc.types.IsUnresolved(st) {
		return
	}
	b := tc.types.Builtins()
	var domain []string
	switch {
	case st == b.Bool:
		domain = []string{"true", "false"}
	case tc.types.KindOf(st) == types.KindOptional && tc.types.MustLookup(st).Elem == b.Bool:
		domain = []string{"true", "false", "none"}
	}
	if domain == nil {
		diag.ReportError(tc.rep(), diag.SemaNonexhaustiveMatch, span,
			fmt.Sprintf("match on %s needs a wildcard arm", tc.label(st))).
			WithArgs(tc.label(st)).
			Emit()
		return
	}
	var missing []string
	for _, v := range domain {
		key := ast.LitBool.String() + ":" + v
		if v == "none" {
			key = "none"
		}
		if _, ok := cov.seen[key]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) == 0 {
		return
	}
	diag.ReportError(tc.rep(), diag.SemaNonexhaustiveMatch, span,
		fmt.Sprintf("match on %s is not exhaustive: missing %s", tc.label(st), strings.Join(missing, ", "))).
		WithArgs(append([]string{tc.label(st)}, missing...)...).
		Emit()
}
