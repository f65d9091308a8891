package parser

import (
	"fmt"
	"strconv"

	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/cqerr"
	"github.com/cqlang/cq-engine/cq/term"
)

// Parse reads one query from text, using the grammar:
//
//	query := head ":-" body
//	head  := name "(" [ term ("," term)* ["," sumAgg] | sumAgg ] ")"
//	sumAgg := "SUM" "(" term ("*" term)* ")"
//	body  := atom ("," atom)*
//	atom  := name "(" [ term ("," term)* ] ")"      // relational
//	       | term op term                           // comparison
//	op    := "=" | "!=" | "<" | "<=" | ">" | ">="
//	term  := ident | int | 'string'
//
// A malformed query is reported as a cqerr.ErrMalformedInput.
func Parse(text string) (atom.Query, error) {
	lex := NewLexer(text)
	if err := lex.Lex(); err != nil {
		return atom.Query{}, cqerr.Wrap(cqerr.ErrMalformedInput, "lexing query", err)
	}
	p := &parser{lex: lex}
	q, err := p.parseQuery()
	if err != nil {
		return atom.Query{}, cqerr.Wrap(cqerr.ErrMalformedInput, "parsing query", err)
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return atom.Query{}, cqerr.New(cqerr.ErrMalformedInput,
			fmt.Sprintf("unexpected trailing input at %d:%d: %s", tok.Line, tok.Col, tok))
	}
	return q, nil
}

type parser struct {
	lex *Lexer
}

func (p *parser) peek() Token { return p.lex.PeekToken() }
func (p *parser) next() Token { return p.lex.NextToken() }

func (p *parser) expect(t TokenType, what string) (Token, error) {
	tok := p.next()
	if tok.Type != t {
		return tok, fmt.Errorf("expected %s at %d:%d, got %s", what, tok.Line, tok.Col, tok)
	}
	return tok, nil
}

func (p *parser) parseQuery() (atom.Query, error) {
	head, err := p.parseHead()
	if err != nil {
		return atom.Query{}, err
	}
	if _, err := p.expect(TokenTurnstile, `":-"`); err != nil {
		return atom.Query{}, err
	}
	body, err := p.parseBody()
	if err != nil {
		return atom.Query{}, err
	}
	return atom.Query{Head: head, Body: body}, nil
}

// parseHead parses "name(t1, ..., tn)" or "name(t1, ..., tn, SUM(u1*u2*...))".
func (p *parser) parseHead() (atom.RelationalAtom, error) {
	nameTok, err := p.expect(TokenIdent, "relation name")
	if err != nil {
		return atom.RelationalAtom{}, err
	}
	if _, err := p.expect(TokenLeftParen, `"("`); err != nil {
		return atom.RelationalAtom{}, err
	}

	var terms []term.Term
	var sumAgg *atom.SumAggregate

	if p.peek().Type != TokenRightParen {
		for {
			if p.isSumAggregateStart() {
				agg, err := p.parseSumAggregate()
				if err != nil {
					return atom.RelationalAtom{}, err
				}
				sumAgg = &agg
				break
			}
			t, err := p.parseTerm()
			if err != nil {
				return atom.RelationalAtom{}, err
			}
			terms = append(terms, t)

			if p.peek().Type != TokenComma {
				break
			}
			p.next() // consume comma
		}
	}

	if _, err := p.expect(TokenRightParen, `")"`); err != nil {
		return atom.RelationalAtom{}, err
	}
	return atom.RelationalAtom{Name: nameTok.Value, Terms: terms, SumAggregate: sumAgg}, nil
}

// isSumAggregateStart reports whether the parser is positioned at
// "SUM(", the only place a SumAggregate may appear (§3).
func (p *parser) isSumAggregateStart() bool {
	return p.peek().Type == TokenIdent && p.peek().Value == "SUM"
}

func (p *parser) parseSumAggregate() (atom.SumAggregate, error) {
	p.next() // consume "SUM"
	if _, err := p.expect(TokenLeftParen, `"("`); err != nil {
		return atom.SumAggregate{}, err
	}

	var products []term.Term
	for {
		t, err := p.parseTerm()
		if err != nil {
			return atom.SumAggregate{}, err
		}
		products = append(products, t)

		if p.peek().Type != TokenStar {
			break
		}
		p.next() // consume "*"
	}

	if _, err := p.expect(TokenRightParen, `")"`); err != nil {
		return atom.SumAggregate{}, err
	}
	return atom.SumAggregate{ProductTerms: products}, nil
}

// parseBody parses a comma-separated list of relational and comparison
// atoms.
func (p *parser) parseBody() ([]atom.Atom, error) {
	var body []atom.Atom
	for {
		a, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		body = append(body, a)

		if p.peek().Type != TokenComma {
			break
		}
		p.next() // consume comma
	}
	return body, nil
}

// parseAtom disambiguates a relational atom ("name(...)") from a
// comparison atom ("term op term") by looking two tokens ahead: an
// identifier immediately followed by "(" starts a relational atom.
func (p *parser) parseAtom() (atom.Atom, error) {
	if p.peek().Type == TokenIdent {
		name := p.peek()
		save := p.lex.current
		p.next()
		if p.peek().Type == TokenLeftParen {
			return p.parseRelationalAtom(name)
		}
		p.lex.current = save
	}
	return p.parseComparisonAtom()
}

func (p *parser) parseRelationalAtom(nameTok Token) (atom.RelationalAtom, error) {
	if _, err := p.expect(TokenLeftParen, `"("`); err != nil {
		return atom.RelationalAtom{}, err
	}

	var terms []term.Term
	if p.peek().Type != TokenRightParen {
		for {
			t, err := p.parseTerm()
			if err != nil {
				return atom.RelationalAtom{}, err
			}
			terms = append(terms, t)

			if p.peek().Type != TokenComma {
				break
			}
			p.next()
		}
	}

	if _, err := p.expect(TokenRightParen, `")"`); err != nil {
		return atom.RelationalAtom{}, err
	}
	return atom.RelationalAtom{Name: nameTok.Value, Terms: terms}, nil
}

func (p *parser) parseComparisonAtom() (atom.ComparisonAtom, error) {
	left, err := p.parseTerm()
	if err != nil {
		return atom.ComparisonAtom{}, err
	}
	opTok, err := p.expect(TokenOp, "comparison operator")
	if err != nil {
		return atom.ComparisonAtom{}, err
	}
	op, ok := atom.ParseComparisonOperator(opTok.Value)
	if !ok {
		return atom.ComparisonAtom{}, fmt.Errorf("unknown comparison operator %q at %d:%d", opTok.Value, opTok.Line, opTok.Col)
	}
	right, err := p.parseTerm()
	if err != nil {
		return atom.ComparisonAtom{}, err
	}
	return atom.ComparisonAtom{Left: left, Op: op, Right: right}, nil
}

func (p *parser) parseTerm() (term.Term, error) {
	tok := p.next()
	switch tok.Type {
	case TokenIdent:
		return term.Variable{Name: tok.Value}, nil
	case TokenInt:
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q at %d:%d: %w", tok.Value, tok.Line, tok.Col, err)
		}
		return term.IntConst{Value: n}, nil
	case TokenString:
		return term.StrConst{Value: tok.Value}, nil
	default:
		return nil, fmt.Errorf("expected a term at %d:%d, got %s", tok.Line, tok.Col, tok)
	}
}
