package vnode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rezi-tui/rezi/cache"
	"github.com/rezi-tui/rezi/exprast"
)

// exprCache memoizes parsed constraint-expression ASTs by source string
// across every ParseSize call in the process; most commit passes re-see
// an unchanged size expression on an unchanged instance, so this turns a
// full re-parse into a map lookup for the common case.
var exprCache = cache.NewExprCache(0)

// SizeKind classifies a validated structural prop value.
type SizeKind int

const (
	SizeInt SizeKind = iota
	SizePercent
	SizeAuto
	SizeExpr
)

// SizeValue is the normalized form of a structural prop slot after
// validation: exactly one of {width, height, minWidth, maxWidth,
// minHeight, maxHeight, flexBasis, display} per node, or other
// size-shaped props (padding/margin shorthands) that accept the same
// domain.
type SizeValue struct {
	Kind    SizeKind
	Int     int          // concrete integer, or a spacing-scale symbol already resolved
	Percent float64      // percentage value, e.g. 50 for "50%"
	Expr    exprast.Expr // parsed constraint expression AST
}

// SpacingScale maps the spacing-scale symbols to a fixed non-negative
// integer cell count.
var SpacingScale = map[string]int{
	"none": 0,
	"xs":   1,
	"sm":   2,
	"md":   4,
	"lg":   8,
	"xl":   16,
	"2xl":  32,
}

var percentRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)%$`)

// ParseSize validates and normalizes a raw prop value into a SizeValue,
// accepting: a concrete (non-negative) integer, a spacing-scale symbol, a
// percentage string matching ^<non-negative-number>%$, the literal "auto",
// the literal "full" (100%), or a parsed constraint expression AST
// (already-parsed exprast.Expr, or a source string beginning with an
// operator/reference that isn't itself a recognized literal).
//
// Returns a *PropError on any out-of-domain value; package instance wraps
// it into rezierr.InvalidProps and the commit fails.
func ParseSize(prop string, raw interface{}) (SizeValue, error) {
	switch v := raw.(type) {
	case int:
		if v < 0 {
			return SizeValue{}, &PropError{Prop: prop, Detail: fmt.Sprintf("negative size %d", v)}
		}
		return SizeValue{Kind: SizeInt, Int: v}, nil
	case int32:
		return ParseSize(prop, int(v))
	case int64:
		return ParseSize(prop, int(v))
	case float64:
		if v != float64(int(v)) {
			return SizeValue{}, &PropError{Prop: prop, Detail: fmt.Sprintf("non-integer size %v", v)}
		}
		return ParseSize(prop, int(v))
	case exprast.Expr:
		return SizeValue{Kind: SizeExpr, Expr: v}, nil
	case string:
		return parseSizeString(prop, v)
	default:
		return SizeValue{}, &PropError{Prop: prop, Detail: fmt.Sprintf("unsupported value type %T", raw)}
	}
}

func parseSizeString(prop, s string) (SizeValue, error) {
	trimmed := strings.TrimSpace(s)
	switch trimmed {
	case "auto":
		return SizeValue{Kind: SizeAuto}, nil
	case "full":
		return SizeValue{Kind: SizePercent, Percent: 100}, nil
	}
	if scale, ok := SpacingScale[trimmed]; ok {
		return SizeValue{Kind: SizeInt, Int: scale}, nil
	}
	if m := percentRe.FindStringSubmatch(trimmed); m != nil {
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return SizeValue{}, &PropError{Prop: prop, Detail: "malformed percentage " + s}
		}
		return SizeValue{Kind: SizePercent, Percent: pct}, nil
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n < 0 {
			return SizeValue{}, &PropError{Prop: prop, Detail: fmt.Sprintf("negative size %d", n)}
		}
		return SizeValue{Kind: SizeInt, Int: n}, nil
	}
	expr, err := exprCache.GetOrParse(trimmed)
	if err != nil {
		return SizeValue{}, &PropError{Prop: prop, Detail: err.Error()}
	}
	return SizeValue{Kind: SizeExpr, Expr: expr}, nil
}

// PropError is a structured prop-validation failure ("{fail,
// ZRUI_INVALID_PROPS, detail}"). Package instance wraps it into
// rezierr.InvalidProps at the commit boundary.
type PropError struct {
	Prop   string
	Detail string
}

func (e *PropError) Error() string {
	return fmt.Sprintf("prop %q: %s", e.Prop, e.Detail)
}

// ConstrainedProps is the fixed set of props that may carry a constraint
// expression AST (ConstraintNode).
var ConstrainedProps = map[string]bool{
	"width": true, "height": true,
	"minWidth": true, "maxWidth": true,
	"minHeight": true, "maxHeight": true,
	"flexBasis": true, "display": true,
}
