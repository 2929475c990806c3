package sema_test

import (
	"slices"
	"testing"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/testkit"
)

func TestMatchCoverage(t *testing.T) {
	tests := []struct {
		name    string
		build   func(p *testkit.Program) ast.ExprID
		want    diag.Code
		missing []string
	}{
		{
			name: "bool both arms",
			build: func(p *testkit.Program) ast.ExprID {
				return p.Match(p.Bool(true), p.LitArm(p.Bool(true), p.Int(1)), p.LitArm(p.Bool(false), p.Int(0)))
			},
		},
		{
			name: "bool missing false",
			build: func(p *testkit.Program) ast.ExprID {
				return p.Match(p.Bool(true), p.LitArm(p.Bool(true), p.Int(1)))
			},
			want:    diag.SemaNonexhaustiveMatch,
			missing: []string{"false"},
		},
		{
			name: "integer needs wildcard",
			build: func(p *testkit.Program) ast.ExprID {
				return p.Match(p.Int(3), p.LitArm(p.Int(1), p.Int(10)), p.LitArm(p.Int(2), p.Int(20)))
			},
			want: diag.SemaNonexhaustiveMatch,
		},
		{
			name: "integer with wildcard",
			build: func(p *testkit.Program) ast.ExprID {
				return p.Match(p.Int(3), p.LitArm(p.Int(1), p.Int(10)), p.WildArm(p.Int(0)))
			},
		},
		{
			name: "binding is a catch-all",
			build: func(p *testkit.Program) ast.ExprID {
				return p.Match(p.Str("a"), p.LitArm(p.Str("b"), p.Int(1)), p.BindArm("s", p.Int(2)))
			},
		},
		{
			name: "pattern of another type",
			build: func(p *testkit.Program) ast.ExprID {
				return p.Match(p.Int(3), p.LitArm(p.Str("x"), p.Int(1)), p.WildArm(p.Int(0)))
			},
			want: diag.SemaMatchPatternType,
		},
		{
			name: "arms disagree",
			build: func(p *testkit.Program) ast.ExprID {
				return p.Match(p.Int(3), p.LitArm(p.Int(1), p.Int(1)), p.WildArm(p.Str("many")))
			},
			want: diag.SemaMatchArmTypeMismatch,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := testkit.NewProgram()
			m := tc.build(p)
			p.Fn("main", nil, ast.NoTypeID, p.Let("r", ast.NoTypeID, m))

			_, bag := check(t, p)
			got := testkit.ErrorCodes(bag)
			if tc.want == diag.UnknownCode {
				if got != nil {
					t.Fatalf("unexpected errors:\n%s", testkit.Dump(bag))
				}
				return
			}
			if !slices.Equal(got, []diag.Code{tc.want}) {
				t.Fatalf("codes = %v, want %v:\n%s", got, tc.want, testkit.Dump(bag))
			}
			if tc.missing != nil {
				d, _ := testkit.Find(bag, tc.want)
				if !slices.Equal(d.Args[1:], tc.missing) {
					t.Fatalf("missing = %v, want %v", d.Args[1:], tc.missing)
				}
			}
		})
	}
}

func TestMatchArmMismatchNamesTheArm(t *testing.T) {
	p := testkit.NewProgram()
	m := p.Match(p.Int(3),
		p.LitArm(p.Int(1), p.Int(1)),
		p.LitArm(p.Int(2), p.Bool(true)),
		p.WildArm(p.Int(0)),
	)
	p.Fn("main", nil, ast.NoTypeID, p.Do(m))

	res, bag := check(t, p)
	d := expectCode(t, bag, diag.SemaMatchArmTypeMismatch)
	if d.Args[0] != "1" {
		t.Fatalf("args = %v", d.Args)
	}
	if got := res.Root.ExprTypes[m]; got != res.Types.Builtins().I32 {
		t.Fatalf("match type = %d", got)
	}
}

func TestMatchUnreachableArms(t *testing.T) {
	p := testkit.NewProgram()
	m := p.Match(p.Int(3),
		p.LitArm(p.Int(1), p.Int(1)),
		p.LitArm(p.Int(1), p.Int(2)),
		p.WildArm(p.Int(0)),
		p.LitArm(p.Int(4), p.Int(4)),
	)
	p.Fn("main", nil, ast.NoTypeID, p.Do(m))

	_, bag := check(t, p)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", testkit.Dump(bag))
	}
	warns := bag.ByCode(diag.SemaUnreachableArm)
	if len(warns) != 2 {
		t.Fatalf("warnings:\n%s", testkit.Dump(bag))
	}
	if len(warns[0].Notes) != 1 || warns[0].Notes[0].Msg != "first matched here" {
		t.Fatalf("notes = %+v", warns[0].Notes)
	}
	if warns[0].Severity != diag.SevWarning {
		t.Fatalf("severity = %v", warns[0].Severity)
	}
}

func TestMatchOptionalBool(t *testing.T) {
	for _, withNone := range []bool{false, true} {
		p := testkit.NewProgram()
		arms := []ast.MatchArm{
			p.LitArm(p.Bool(true), p.Int(1)),
			p.LitArm(p.Bool(false), p.Int(0)),
		}
		if withNone {
			arms = append(arms, p.LitArm(p.None(), p.Int(-1)))
		}
		m := p.Match(p.Ident("flag"), arms...)
		p.Fn("main", nil, ast.NoTypeID,
			p.Let("flag", p.Opt(p.Named("bool")), p.None()),
			p.Do(m),
		)

		_, bag := check(t, p)
		got := testkit.ErrorCodes(bag)
		if withNone && got != nil {
			t.Fatalf("unexpected errors:\n%s", testkit.Dump(bag))
		}
		if !withNone {
			d := expectCode(t, bag, diag.SemaNonexhaustiveMatch)
			if !slices.Equal(d.Args, []string{"bool?", "none"}) {
				t.Fatalf("args = %v", d.Args)
			}
		}
	}
}

func TestMatchBindingTakesScrutineeType(t *testing.T) {
	p := testkit.NewProgram()
	use := p.Bin(ast.OpAdd, p.Ident("v"), p.Int(1))
	m := p.Match(p.Ident("x"), p.LitArm(p.Int(0), p.Ident("x")), p.BindArm("v", use))
	p.Fn("main", nil, ast.NoTypeID,
		p.Let("x", p.Named("i64"), p.Int(5)),
		p.Do(m),
	)

	res := checkClean(t, p)
	i64 := res.Types.Builtins().I64
	if res.Root.ExprTypes[use] != i64 || res.Root.ExprTypes[m] != i64 {
		t.Fatalf("types = %d, %d", res.Root.ExprTypes[use], res.Root.ExprTypes[m])
	}
}
