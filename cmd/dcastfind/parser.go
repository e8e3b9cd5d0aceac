package main

import (
	"fmt"
	"strconv"
	"strings"
)

// ExpressionParser handles expression parsing with operators. Precedence
// from loosest to tightest is --or, --and (or adjacency), --not.
type ExpressionParser struct {
	tokens     []string
	pos        int
	globalArgs map[string]string
	actions    []Action
}

func (p *ExpressionParser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *ExpressionParser) next() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	token := p.tokens[p.pos]
	p.pos++
	return token
}

// parse consumes every token; adjacent top-level expressions are ANDed
func (p *ExpressionParser) parse() (Expression, error) {
	var result Expression
	for p.pos < len(p.tokens) {
		if p.peek() == ")" {
			return nil, fmt.Errorf("unexpected ')'")
		}
		expr, err := p.parseOrExpression()
		if err != nil {
			return nil, err
		}
		result = and(result, expr)
	}
	return result, nil
}

func (p *ExpressionParser) parseOrExpression() (Expression, error) {
	left, err := p.parseAndExpression()
	if err != nil {
		return nil, err
	}

	for p.peek() == "--or" {
		p.next()
		right, err := p.parseAndExpression()
		if err != nil {
			return nil, err
		}
		if left == nil || right == nil {
			return nil, fmt.Errorf("--or requires an expression on both sides")
		}
		left = &OrExpression{Left: left, Right: right}
	}

	return left, nil
}

func (p *ExpressionParser) parseAndExpression() (Expression, error) {
	left, err := p.parseNotExpression()
	if err != nil {
		return nil, err
	}

	for p.peek() != "" && p.peek() != "--or" && p.peek() != ")" {
		if p.peek() == "--and" {
			p.next()
		}
		right, err := p.parseNotExpression()
		if err != nil {
			return nil, err
		}
		left = and(left, right)
	}

	return left, nil
}

func (p *ExpressionParser) parseNotExpression() (Expression, error) {
	if p.peek() == "--not" || p.peek() == "!" {
		p.next()
		expr, err := p.parseNotExpression()
		if err != nil {
			return nil, err
		}
		if expr == nil {
			return nil, fmt.Errorf("--not requires an expression")
		}
		return &NotExpression{Expr: expr}, nil
	}

	return p.parsePrimaryExpression()
}

func (p *ExpressionParser) parsePrimaryExpression() (Expression, error) {
	token := p.peek()
	if token == "" {
		return nil, fmt.Errorf("unexpected end of expression")
	}

	if token == "(" {
		p.next()
		expr, err := p.parseOrExpression()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, fmt.Errorf("expected ')' but found '%s'", p.peek())
		}
		p.next()
		return expr, nil
	}

	if isGlobalOption(token) {
		return p.parseGlobalOption()
	}

	return p.parseBasicExpression()
}

func isGlobalOption(token string) bool {
	return token == "--maxdepth" || token == "--mindepth"
}

// parseGlobalOption records the option; globals do not produce expressions
func (p *ExpressionParser) parseGlobalOption() (Expression, error) {
	token := p.next()
	if p.pos >= len(p.tokens) {
		return nil, fmt.Errorf("%s requires an argument", token)
	}
	p.globalArgs[token] = p.next()
	return nil, nil
}

// argument consumes the value of an option that requires one
func (p *ExpressionParser) argument(option, what string) (string, error) {
	if p.pos >= len(p.tokens) {
		return "", fmt.Errorf("%s requires %s", option, what)
	}
	return p.next(), nil
}

func (p *ExpressionParser) parseBasicExpression() (Expression, error) {
	token := p.next()

	switch token {
	case "--name", "--iname":
		pattern, err := p.argument(token, "a pattern")
		if err != nil {
			return nil, err
		}
		return newNameTest(pattern, token == "--name")

	case "--path", "--ipath":
		pattern, err := p.argument(token, "a pattern")
		if err != nil {
			return nil, err
		}
		return newPathTest(pattern, token == "--path")

	case "--size":
		spec, err := p.argument(token, "a size specification")
		if err != nil {
			return nil, err
		}
		return parseSizeTest(spec)

	case "--empty":
		return &EmptyTest{}, nil

	case "--type":
		kind, err := p.argument(token, "a type")
		if err != nil {
			return nil, err
		}
		switch kind {
		case "d", "f":
			return &TypeTest{Kind: kind[0]}, nil
		default:
			return nil, fmt.Errorf("--type must be d or f, got %q", kind)
		}

	case "--hash":
		hash, err := p.argument(token, "a hash value")
		if err != nil {
			return nil, err
		}
		return &HashTest{Hash: strings.ToLower(hash)}, nil

	case "--hash-prefix":
		prefix, err := p.argument(token, "a prefix")
		if err != nil {
			return nil, err
		}
		return &HashPrefixTest{Prefix: strings.ToLower(prefix)}, nil

	// Actions evaluate to true so they can sit inside expressions
	case "--print":
		p.actions = append(p.actions, &PrintAction{})
		return nil, nil
	case "--print0":
		p.actions = append(p.actions, &Print0Action{})
		return nil, nil
	case "--ls":
		p.actions = append(p.actions, &LsAction{})
		return nil, nil
	case "--printf":
		format, err := p.argument(token, "a format string")
		if err != nil {
			return nil, err
		}
		p.actions = append(p.actions, &PrintfAction{Format: format})
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown expression: %s", token)
	}
}

// and joins two optional expressions
func and(left, right Expression) Expression {
	switch {
	case left == nil:
		return right
	case right == nil:
		return left
	default:
		return &AndExpression{Left: left, Right: right}
	}
}

// parseSizeTest parses [+-]N[ckMG]; no suffix means bytes
func parseSizeTest(sizeSpec string) (Expression, error) {
	if len(sizeSpec) == 0 {
		return nil, fmt.Errorf("empty size specification")
	}

	mode := byte('=')
	sizeStr := sizeSpec
	switch sizeSpec[0] {
	case '+', '-':
		mode = sizeSpec[0]
		sizeStr = sizeSpec[1:]
	}

	var multiplier int64 = 1
	numStr := sizeStr
	if len(sizeStr) > 0 {
		switch sizeStr[len(sizeStr)-1] {
		case 'c':
			numStr = sizeStr[:len(sizeStr)-1]
		case 'k':
			multiplier = 1024
			numStr = sizeStr[:len(sizeStr)-1]
		case 'M':
			multiplier = 1024 * 1024
			numStr = sizeStr[:len(sizeStr)-1]
		case 'G':
			multiplier = 1024 * 1024 * 1024
			numStr = sizeStr[:len(sizeStr)-1]
		}
	}
	if len(numStr) == 0 {
		return nil, fmt.Errorf("size specification missing numeric value")
	}

	n, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid size number: %s", numStr)
	}
	return &SizeTest{Size: n * multiplier, Mode: mode}, nil
}
