// Package exprast implements the small expression language used by
// constrained layout props (width, height, flexBasis, display, ...): a
// tagged-union AST, a recursive-descent parser, and a pure evaluator. The
// package has no knowledge of the instance tree or the constraint graph —
// those live in package constraint, which supplies an EvalContext to
// resolve references and aggregations.
package exprast

import (
	"fmt"
	"strconv"
	"strings"
)

// Scope is where a Ref's metric is read from.
type Scope int

const (
	ScopeViewport Scope = iota
	ScopeParent
	ScopeIntrinsic
	ScopeWidget
)

// Metric is the measurement a Ref reads.
type Metric int

const (
	MetricW Metric = iota
	MetricH
	MetricMinW
	MetricMinH
)

var metricNames = map[string]Metric{
	"w":     MetricW,
	"h":     MetricH,
	"min_w": MetricMinW,
	"min_h": MetricMinH,
}

// AllowedFuncs is the allowlist of callable function names. Parse accepts
// any syntactically well-formed call; ValidateCalls rejects a tree that
// calls a name outside this set, so a syntax error and an unknown-function
// error can be reported as distinct diagnostics by callers that need to
// tell them apart.
var AllowedFuncs = map[string]bool{
	"clamp":       true,
	"min":         true,
	"max":         true,
	"floor":       true,
	"ceil":        true,
	"round":       true,
	"abs":         true,
	"if":          true,
	"steps":       true,
	"max_sibling": true,
	"sum_sibling": true,
}

// Expr is the tagged union of expression nodes. Implementations are value
// types so an Expr tree can be compared/hashed by its Source string (used
// for the constraint graph fingerprint).
type Expr interface {
	expr()
}

type Number struct{ Value float64 }

// Ref reads a metric from viewport/parent/intrinsic, or from a specific
// widget when Scope == ScopeWidget (WidgetID set).
type Ref struct {
	Scope    Scope
	WidgetID string
	Metric   Metric
}

// WidgetRef names a widgetId group with no metric; it is only valid as the
// sole argument of an aggregation call (max_sibling/sum_sibling).
type WidgetRef struct{ ID string }

type Unary struct {
	Op string // "-"
	X  Expr
}

type Binary struct {
	Op   string // + - * / > >= < <= == !=
	L, R Expr
}

type Ternary struct {
	Cond, Then, Else Expr
}

type Call struct {
	Name string
	Args []Expr
}

func (Number) expr()    {}
func (Ref) expr()       {}
func (WidgetRef) expr() {}
func (Unary) expr()     {}
func (Binary) expr()    {}
func (Ternary) expr()   {}
func (Call) expr()      {}

// ParseError reports a parse-time failure with the offending source text,
// suitable for wrapping into rezierr.InvalidConstraint by the caller.
type ParseError struct {
	Source string
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid constraint expression %q: %s", e.Source, e.Msg)
}

// Parse compiles a source string into an Expr tree. It checks grammar only;
// a Call naming a function outside AllowedFuncs still parses, so a caller
// that needs to reject unknown functions should also run ValidateCalls.
func Parse(source string) (Expr, error) {
	toks, err := tokenize(source)
	if err != nil {
		return nil, &ParseError{Source: source, Msg: err.Error()}
	}
	p := &parser{src: source, toks: toks}
	e, err := p.parseTernary()
	if err != nil {
		return nil, &ParseError{Source: source, Msg: err.Error()}
	}
	if p.cur().kind != tokEOF {
		return nil, &ParseError{Source: source, Msg: "unexpected trailing input at " + p.toks[p.pos].text}
	}
	return e, nil
}

// --- tokenizer ---

type tokKind int

const (
	tokNum tokKind = iota
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
	tokDot
	tokHash
	tokQuestion
	tokColon
	tokEOF
)

type token struct {
	kind tokKind
	text string
}

func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	n := len(src)
	for i < n {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9' || (c == '.' && i+1 < n && src[i+1] >= '0' && src[i+1] <= '9'):
			j := i
			for j < n && (src[j] >= '0' && src[j] <= '9' || src[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNum, src[i:j]})
			i = j
		case isIdentStart(c):
			j := i
			for j < n && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j]})
			i = j
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		case c == '.':
			toks = append(toks, token{tokDot, "."})
			i++
		case c == '#':
			toks = append(toks, token{tokHash, "#"})
			i++
		case c == '?':
			toks = append(toks, token{tokQuestion, "?"})
			i++
		case c == ':':
			toks = append(toks, token{tokColon, ":"})
			i++
		case c == '>' || c == '<' || c == '=' || c == '!':
			if i+1 < n && src[i+1] == '=' {
				toks = append(toks, token{tokOp, src[i : i+2]})
				i += 2
			} else {
				toks = append(toks, token{tokOp, string(c)})
				i++
			}
		case strings.ContainsRune("+-*/", rune(c)):
			toks = append(toks, token{tokOp, string(c)})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q", string(c))
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// --- recursive-descent parser with precedence climbing ---

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) parseTernary() (Expr, error) {
	cond, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.cur().kind == tokQuestion {
		p.advance()
		then, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tokColon {
			return nil, fmt.Errorf("expected ':' in ternary")
		}
		p.advance()
		els, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		return Ternary{Cond: cond, Then: then, Else: els}, nil
	}
	return cond, nil
}

func (p *parser) parseComparison() (Expr, error) {
	l, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	if p.cur().kind == tokOp && isCompareOp(p.cur().text) {
		op := p.advance().text
		r, err := p.parseAddSub()
		if err != nil {
			return nil, err
		}
		return Binary{Op: op, L: l, R: r}, nil
	}
	return l, nil
}

func isCompareOp(op string) bool {
	switch op {
	case ">", ">=", "<", "<=", "==", "!=":
		return true
	}
	return false
}

func (p *parser) parseAddSub() (Expr, error) {
	l, err := p.parseMulDiv()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "+" || p.cur().text == "-") {
		op := p.advance().text
		r, err := p.parseMulDiv()
		if err != nil {
			return nil, err
		}
		l = Binary{Op: op, L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseMulDiv() (Expr, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "*" || p.cur().text == "/") {
		op := p.advance().text
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = Binary{Op: op, L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.cur().kind == tokOp && p.cur().text == "-" {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: "-", X: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.cur()
	switch t.kind {
	case tokNum:
		p.advance()
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", t.text)
		}
		return Number{Value: v}, nil
	case tokLParen:
		p.advance()
		e, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tokRParen {
			return nil, fmt.Errorf("expected ')'")
		}
		p.advance()
		return e, nil
	case tokHash:
		p.advance()
		if p.cur().kind != tokIdent {
			return nil, fmt.Errorf("expected widget id after '#'")
		}
		id := p.advance().text
		if p.cur().kind == tokDot {
			p.advance()
			if p.cur().kind != tokIdent {
				return nil, fmt.Errorf("expected metric after '.'")
			}
			m, ok := metricNames[p.advance().text]
			if !ok {
				return nil, fmt.Errorf("unknown metric")
			}
			return Ref{Scope: ScopeWidget, WidgetID: id, Metric: m}, nil
		}
		return WidgetRef{ID: id}, nil
	case tokIdent:
		name := p.advance().text
		if p.cur().kind == tokLParen {
			return p.parseCall(name)
		}
		if p.cur().kind == tokDot {
			scope, ok := scopeNames[name]
			if !ok {
				return nil, fmt.Errorf("unknown scope %q", name)
			}
			p.advance()
			if p.cur().kind != tokIdent {
				return nil, fmt.Errorf("expected metric after '.'")
			}
			m, ok := metricNames[p.advance().text]
			if !ok {
				return nil, fmt.Errorf("unknown metric")
			}
			return Ref{Scope: scope, Metric: m}, nil
		}
		return nil, fmt.Errorf("unexpected identifier %q", name)
	}
	return nil, fmt.Errorf("unexpected token %q", t.text)
}

var scopeNames = map[string]Scope{
	"viewport":  ScopeViewport,
	"parent":    ScopeParent,
	"intrinsic": ScopeIntrinsic,
}

func (p *parser) parseCall(name string) (Expr, error) {
	p.advance() // (
	var args []Expr
	if p.cur().kind != tokRParen {
		for {
			a, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.cur().kind == tokComma {
				p.advance()
				continue
			}
			break
		}
	}
	if p.cur().kind != tokRParen {
		return nil, fmt.Errorf("expected ')' to close call to %q", name)
	}
	p.advance()
	return Call{Name: name, Args: args}, nil
}

// ValidateCalls walks e and returns an error naming the first Call whose
// function is not in AllowedFuncs.
func ValidateCalls(e Expr) error {
	switch n := e.(type) {
	case Call:
		if !AllowedFuncs[n.Name] {
			return fmt.Errorf("unknown function %q, allowed: clamp, min, max, floor, ceil, round, abs, if, steps, max_sibling, sum_sibling", n.Name)
		}
		for _, a := range n.Args {
			if err := ValidateCalls(a); err != nil {
				return err
			}
		}
	case Unary:
		return ValidateCalls(n.X)
	case Binary:
		if err := ValidateCalls(n.L); err != nil {
			return err
		}
		return ValidateCalls(n.R)
	case Ternary:
		if err := ValidateCalls(n.Cond); err != nil {
			return err
		}
		if err := ValidateCalls(n.Then); err != nil {
			return err
		}
		return ValidateCalls(n.Else)
	}
	return nil
}
