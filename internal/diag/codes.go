package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Разрешение имён
	SemaInfo             Code = 3000
	SemaError            Code = 3001
	SemaDuplicateSymbol  Code = 3002
	SemaScopeMismatch    Code = 3003
	SemaShadowSymbol     Code = 3004
	SemaUnresolvedSymbol Code = 3005
	SemaAmbiguousCall    Code = 3010
	SemaMemberNotFound   Code = 3013

	// Типы и выражения
	SemaTypeMismatch          Code = 3015
	SemaInvalidBinaryOperands Code = 3016
	SemaInvalidUnaryOperand   Code = 3017
	SemaInvalidBoolContext    Code = 3050
	SemaMissingReturn         Code = 3051
	SemaNonexhaustiveMatch    Code = 3053
	SemaIndexOutOfBounds      Code = 3092

	SemaUnresolvedType   Code = 3201
	SemaNotAType         Code = 3202
	SemaNotCallable      Code = 3203
	SemaAliasCycle       Code = 3204
	SemaInvalidCast      Code = 3210
	SemaArgCount         Code = 3211
	SemaUnknownField     Code = 3212
	SemaMissingField     Code = 3213
	SemaDuplicateField   Code = 3214
	SemaNotIndexable     Code = 3215
	SemaLiteralOverflow  Code = 3216
	SemaBreakOutsideLoop Code = 3217
	SemaVoidValue        Code = 3218
	SemaRecursiveStruct  Code = 3219
	SemaNotIterable      Code = 3220

	// Мутабельность
	SemaConstAssignment        Code = 3230
	SemaConstElementAssignment Code = 3231
	SemaSliceOfImmutableSource Code = 3232
	SemaInvalidAssignTarget    Code = 3233

	// Срезы
	SemaSliceRangeOutOfBounds  Code = 3240
	SemaInvalidSliceRange      Code = 3241
	SemaSliceBoundsNotConstant Code = 3242
	SemaSliceOfTemporary       Code = 3243
	SemaSliceLengthMismatch    Code = 3244
	SemaSliceOfNonArray        Code = 3245

	// Обобщения и мономорфизация
	SemaUnconstrainedGenericParam  Code = 3250
	SemaMonomorphizationDivergence Code = 3251
	SemaGenericArgMismatch         Code = 3252
	SemaNegativeArraySize          Code = 3253
	SemaSpecializationLimit        Code = 3254

	// match
	SemaMatchArmTypeMismatch Code = 3260
	SemaMatchPatternType     Code = 3261
	SemaUnreachableArm       Code = 3262

	// Вход анализатора
	IOLoadFileError   Code = 4001
	IODecodeTreeError Code = 4002

	// Конфигурация проекта
	ProjInvalidConfig Code = 5001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                    "Unknown error",
		SemaInfo:                       "Semantic information",
		SemaError:                      "Semantic error",
		SemaDuplicateSymbol:            "Duplicate symbol",
		SemaScopeMismatch:              "Scope mismatch",
		SemaShadowSymbol:               "Symbol shadows another declaration",
		SemaUnresolvedSymbol:           "Unresolved symbol",
		SemaAmbiguousCall:              "Ambiguous function call",
		SemaMemberNotFound:             "Member not found",
		SemaTypeMismatch:               "Type mismatch",
		SemaInvalidBinaryOperands:      "Invalid binary operands",
		SemaInvalidUnaryOperand:        "Invalid unary operand",
		SemaInvalidBoolContext:         "Condition must be bool",
		SemaMissingReturn:              "Missing return in function",
		SemaNonexhaustiveMatch:         "Non-exhaustive match",
		SemaIndexOutOfBounds:           "Index out of bounds",
		SemaUnresolvedType:             "Unresolved type",
		SemaNotAType:                   "Name does not denote a type",
		SemaNotCallable:                "Expression is not callable",
		SemaAliasCycle:                 "Type alias cycle",
		SemaInvalidCast:                "Invalid cast",
		SemaArgCount:                   "Wrong number of arguments",
		SemaUnknownField:               "Unknown field",
		SemaMissingField:               "Missing field in struct literal",
		SemaDuplicateField:             "Duplicate field",
		SemaNotIndexable:               "Value is not indexable",
		SemaLiteralOverflow:            "Literal does not fit the type",
		SemaBreakOutsideLoop:           "break or skip outside of loop",
		SemaVoidValue:                  "void used as a value",
		SemaRecursiveStruct:            "Struct contains itself by value",
		SemaNotIterable:                "Value is not iterable",
		SemaConstAssignment:            "Assignment to constant binding",
		SemaConstElementAssignment:     "Assignment to constant element",
		SemaSliceOfImmutableSource:     "Reference slice of immutable array",
		SemaInvalidAssignTarget:        "Invalid assignment target",
		SemaSliceRangeOutOfBounds:      "Slice range out of bounds",
		SemaInvalidSliceRange:          "Invalid slice range",
		SemaSliceBoundsNotConstant:     "Slice bounds must be constant",
		SemaSliceOfTemporary:           "Reference slice of temporary",
		SemaSliceLengthMismatch:        "Slice length does not match declared type",
		SemaSliceOfNonArray:            "Slice of non-array value",
		SemaUnconstrainedGenericParam:  "Generic parameter cannot be inferred",
		SemaMonomorphizationDivergence: "Monomorphization does not terminate",
		SemaGenericArgMismatch:         "Generic argument mismatch",
		SemaNegativeArraySize:          "Negative array size",
		SemaSpecializationLimit:        "Too many specializations",
		SemaMatchArmTypeMismatch:       "Match arms have different types",
		SemaMatchPatternType:           "Pattern type does not match scrutinee",
		SemaUnreachableArm:             "Unreachable match arm",
		IOLoadFileError:                "I/O load file error",
		IODecodeTreeError:              "Cannot decode syntax tree",
		ProjInvalidConfig:              "Invalid project configuration",
	}
)

// Category groups codes into the coarse classes consumers filter on.
type Category uint8

const (
	CategoryOther Category = iota
	CategoryNameResolution
	CategoryTypeMismatch
	CategoryMutabilityViolation
	CategorySliceRangeError
	CategoryGenericParameterError
	CategoryMatchCoverageError
)

func (c Category) String() string {
	switch c {
	case CategoryNameResolution:
		return "name-resolution"
	case CategoryTypeMismatch:
		return "type-mismatch"
	case CategoryMutabilityViolation:
		return "mutability-violation"
	case CategorySliceRangeError:
		return "slice-range-error"
	case CategoryGenericParameterError:
		return "generic-parameter-error"
	case CategoryMatchCoverageError:
		return "match-coverage-error"
	}
	return "other"
}

// Category classifies the code.
func (c Code) Category() Category {
	switch c {
	case SemaDuplicateSymbol, SemaScopeMismatch, SemaShadowSymbol, SemaUnresolvedSymbol,
		SemaAmbiguousCall, SemaMemberNotFound, SemaUnresolvedType, SemaNotAType:
		return CategoryNameResolution
	case SemaConstAssignment, SemaConstElementAssignment, SemaSliceOfImmutableSource, SemaInvalidAssignTarget:
		return CategoryMutabilityViolation
	case SemaNonexhaustiveMatch, SemaUnreachableArm:
		return CategoryMatchCoverageError
	}
	switch ic := int(c); {
	case ic >= 3240 && ic < 3250:
		return CategorySliceRangeError
	case ic >= 3250 && ic < 3260:
		return CategoryGenericParameterError
	case ic >= 3260 && ic < 3270:
		return CategoryTypeMismatch
	case ic >= 3015 && ic < 3030, ic >= 3200 && ic < 3230, ic == int(SemaInvalidBoolContext), ic == int(SemaIndexOutOfBounds):
		return CategoryTypeMismatch
	}
	return CategoryOther
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
