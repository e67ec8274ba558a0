package manifest

import (
	"fmt"
	"strings"
	"unicode"
)

// BuildContext carries the repository metadata that gate conditions can
// reference. An empty Tag means the build is not associated with a tag ref.
type BuildContext struct {
	Tag    string
	Branch string
}

// Condition is a parsed Travis-style gate predicate, e.g. "tag IS present"
// or "branch = master AND NOT tag IS blank".
type Condition struct {
	raw  string
	root condNode
}

// ParseCondition compiles a gate predicate expression.
func ParseCondition(expr string) (*Condition, error) {
	tokens, err := lexCondition(expr)
	if err != nil {
		return nil, err
	}
	p := condParser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("unexpected %q in condition %q", p.peek().value, expr)
	}
	return &Condition{raw: expr, root: root}, nil
}

// EvaluateCondition parses and evaluates expr in one call.
func EvaluateCondition(expr string, ctx BuildContext) (bool, error) {
	cond, err := ParseCondition(expr)
	if err != nil {
		return false, err
	}
	return cond.Evaluate(ctx), nil
}

// Evaluate applies the predicate to the supplied build metadata.
func (c *Condition) Evaluate(ctx BuildContext) bool {
	return c.root.eval(ctx)
}

// String returns the original expression text.
func (c *Condition) String() string {
	return c.raw
}

type condNode interface {
	eval(ctx BuildContext) bool
}

type orNode struct{ left, right condNode }

func (n orNode) eval(ctx BuildContext) bool { return n.left.eval(ctx) || n.right.eval(ctx) }

type andNode struct{ left, right condNode }

func (n andNode) eval(ctx BuildContext) bool { return n.left.eval(ctx) && n.right.eval(ctx) }

type notNode struct{ inner condNode }

func (n notNode) eval(ctx BuildContext) bool { return !n.inner.eval(ctx) }

type presenceNode struct {
	attr    string
	present bool
}

func (n presenceNode) eval(ctx BuildContext) bool {
	return (attrValue(n.attr, ctx) != "") == n.present
}

type equalityNode struct {
	attr  string
	value string
	equal bool
}

func (n equalityNode) eval(ctx BuildContext) bool {
	return (attrValue(n.attr, ctx) == n.value) == n.equal
}

func attrValue(attr string, ctx BuildContext) string {
	switch attr {
	case "tag":
		return ctx.Tag
	case "branch":
		return ctx.Branch
	default:
		return ""
	}
}

// Lexer.

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokEq
	tokNe
	tokLParen
	tokRParen
)

type condToken struct {
	kind  tokenKind
	value string
}

func lexCondition(expr string) ([]condToken, error) {
	var tokens []condToken
	runes := []rune(expr)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, condToken{kind: tokLParen, value: "("})
			i++
		case r == ')':
			tokens = append(tokens, condToken{kind: tokRParen, value: ")"})
			i++
		case r == '=':
			if i+1 < len(runes) && runes[i+1] == '=' {
				i++
			}
			tokens = append(tokens, condToken{kind: tokEq, value: "="})
			i++
		case r == '!':
			if i+1 >= len(runes) || runes[i+1] != '=' {
				return nil, fmt.Errorf("unexpected '!' in condition %q", expr)
			}
			tokens = append(tokens, condToken{kind: tokNe, value: "!="})
			i += 2
		case r == '"' || r == '\'':
			quote := r
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated string in condition %q", expr)
			}
			tokens = append(tokens, condToken{kind: tokWord, value: string(runes[i+1 : j])})
			i = j + 1
		default:
			j := i
			for j < len(runes) && !unicode.IsSpace(runes[j]) && !strings.ContainsRune(`()=!"'`, runes[j]) {
				j++
			}
			if j == i {
				return nil, fmt.Errorf("unexpected %q in condition %q", string(r), expr)
			}
			tokens = append(tokens, condToken{kind: tokWord, value: string(runes[i:j])})
			i = j
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty condition")
	}
	return tokens, nil
}

// Parser: OR < AND < NOT < primary.

type condParser struct {
	tokens []condToken
	pos    int
}

func (p *condParser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *condParser) peek() condToken {
	if p.atEnd() {
		return condToken{kind: tokEOF}
	}
	return p.tokens[p.pos]
}

func (p *condParser) next() condToken {
	tok := p.peek()
	p.pos++
	return tok
}

func (p *condParser) matchKeyword(word string) bool {
	tok := p.peek()
	if tok.kind == tokWord && strings.EqualFold(tok.value, word) {
		p.pos++
		return true
	}
	return false
}

func (p *condParser) parseOr() (condNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.matchKeyword("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *condParser) parseAnd() (condNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.matchKeyword("AND") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *condParser) parseUnary() (condNode, error) {
	if p.matchKeyword("NOT") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *condParser) parsePrimary() (condNode, error) {
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.next()
		return inner, nil
	}
	return p.parseComparison()
}

func (p *condParser) parseComparison() (condNode, error) {
	tok := p.next()
	if tok.kind != tokWord {
		return nil, fmt.Errorf("expected attribute, got %q", tok.value)
	}
	attr := strings.ToLower(tok.value)
	if attr != "tag" && attr != "branch" {
		return nil, fmt.Errorf("unknown attribute %q (supported: tag, branch)", tok.value)
	}

	switch op := p.next(); {
	case op.kind == tokEq:
		value := p.next()
		if value.kind != tokWord {
			return nil, fmt.Errorf("expected value after '=' for %q", attr)
		}
		return equalityNode{attr: attr, value: value.value, equal: true}, nil
	case op.kind == tokNe:
		value := p.next()
		if value.kind != tokWord {
			return nil, fmt.Errorf("expected value after '!=' for %q", attr)
		}
		return equalityNode{attr: attr, value: value.value, equal: false}, nil
	case op.kind == tokWord && strings.EqualFold(op.value, "IS"):
		negate := p.matchKeyword("NOT")
		state := p.next()
		if state.kind != tokWord {
			return nil, fmt.Errorf("expected 'present' or 'blank' after IS")
		}
		var node condNode
		switch strings.ToLower(state.value) {
		case "present":
			node = presenceNode{attr: attr, present: true}
		case "blank":
			node = presenceNode{attr: attr, present: false}
		default:
			return nil, fmt.Errorf("expected 'present' or 'blank' after IS, got %q", state.value)
		}
		if negate {
			node = notNode{inner: node}
		}
		return node, nil
	default:
		return nil, fmt.Errorf("expected comparison after %q", attr)
	}
}
