package exprast

import "math"

// EvalContext resolves the scope/widget references and aggregation calls an
// Expr tree may contain. Implementations live in package constraint, which
// knows the current instance, its parent, and the resolution order
// (resolved -> baseline -> intrinsic -> zero).
type EvalContext interface {
	// Ref resolves a scalar reference. widgetID is empty unless scope ==
	// ScopeWidget.
	Ref(scope Scope, widgetID string, metric Metric) float64
	// Aggregate evaluates max_sibling/sum_sibling over instances sharing
	// widgetID, for the prop currently being resolved.
	Aggregate(fn string, widgetID string) float64
}

// Eval walks e and returns a sanitized finite float64: every intermediate
// value is coerced to 0 if not finite (numeric discipline), division by
// zero yields 0, comparisons yield 1/0, and a ternary selects Then iff Cond
// evaluates strictly greater than 0.
func Eval(e Expr, ctx EvalContext) float64 {
	return sanitize(eval(e, ctx))
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func eval(e Expr, ctx EvalContext) float64 {
	switch n := e.(type) {
	case Number:
		return n.Value
	case Ref:
		return sanitize(ctx.Ref(n.Scope, n.WidgetID, n.Metric))
	case WidgetRef:
		// A bare widget ref outside an aggregation call has no numeric
		// meaning; treat as zero. constraint.Build accepts this shape and
		// adds no dependency for it.
		return 0
	case Unary:
		v := sanitize(eval(n.X, ctx))
		if n.Op == "-" {
			return -v
		}
		return v
	case Binary:
		l := sanitize(eval(n.L, ctx))
		r := sanitize(eval(n.R, ctx))
		switch n.Op {
		case "+":
			return l + r
		case "-":
			return l - r
		case "*":
			return l * r
		case "/":
			if r == 0 {
				return 0
			}
			return l / r
		case ">":
			return boolToNum(l > r)
		case ">=":
			return boolToNum(l >= r)
		case "<":
			return boolToNum(l < r)
		case "<=":
			return boolToNum(l <= r)
		case "==":
			return boolToNum(l == r)
		case "!=":
			return boolToNum(l != r)
		}
		return 0
	case Ternary:
		cond := sanitize(eval(n.Cond, ctx))
		if cond > 0 {
			return sanitize(eval(n.Then, ctx))
		}
		return sanitize(eval(n.Else, ctx))
	case Call:
		return evalCall(n, ctx)
	}
	return 0
}

func boolToNum(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func evalCall(c Call, ctx EvalContext) float64 {
	args := make([]float64, len(c.Args))
	switch c.Name {
	case "max_sibling", "sum_sibling":
		var id string
		if len(c.Args) == 1 {
			if wr, ok := c.Args[0].(WidgetRef); ok {
				id = wr.ID
			} else if r, ok := c.Args[0].(Ref); ok {
				id = r.WidgetID
			}
		}
		return sanitize(ctx.Aggregate(c.Name, id))
	}
	for i, a := range c.Args {
		args[i] = sanitize(eval(a, ctx))
	}
	switch c.Name {
	case "clamp":
		if len(args) != 3 {
			return 0
		}
		lo, v, hi := args[0], args[1], args[2]
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	case "min":
		if len(args) != 2 {
			return 0
		}
		if args[0] < args[1] {
			return args[0]
		}
		return args[1]
	case "max":
		if len(args) != 2 {
			return 0
		}
		if args[0] > args[1] {
			return args[0]
		}
		return args[1]
	case "floor":
		if len(args) != 1 {
			return 0
		}
		return math.Floor(args[0])
	case "ceil":
		if len(args) != 1 {
			return 0
		}
		return math.Ceil(args[0])
	case "round":
		if len(args) != 1 {
			return 0
		}
		return math.Round(args[0])
	case "abs":
		if len(args) != 1 {
			return 0
		}
		return math.Abs(args[0])
	case "if":
		if len(args) != 3 {
			return 0
		}
		if args[0] > 0 {
			return args[1]
		}
		return args[2]
	case "steps":
		return evalSteps(args)
	}
	return 0
}

// steps(value, t1,r1, t2,r2, ..., default) picks the result for the first
// threshold the value is less than, in argument order, else the trailing
// default.
func evalSteps(args []float64) float64 {
	if len(args) < 2 {
		return 0
	}
	value := args[0]
	rest := args[1:]
	def := rest[len(rest)-1]
	pairs := rest[:len(rest)-1]
	for i := 0; i+1 < len(pairs); i += 2 {
		threshold, result := pairs[i], pairs[i+1]
		if value < threshold {
			return result
		}
	}
	return def
}
