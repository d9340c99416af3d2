package parser

import (
	"math"
	"strconv"

	"github.com/wippyai/sgeproto/errors"
	"github.com/wippyai/sgeproto/schema/internal/ast"
	"github.com/wippyai/sgeproto/schema/internal/token"
)

const (
	kwMessage  = "message"
	kwRepeated = "repeated"
	kwRequired = "required"
	kwOptional = "optional"
)

type Parser struct {
	tokens   []token.Token
	pos      int
	lastLine int
}

func New(tokens []token.Token) *Parser {
	p := &Parser{tokens: tokens, lastLine: 1}
	if n := len(tokens); n > 0 {
		p.lastLine = tokens[n-1].Line
	}
	return p
}

// Parse reads all blocks. It checks syntax only; names are resolved by the caller.
func (p *Parser) Parse() (*ast.Schema, error) {
	s := &ast.Schema{}
	for p.peek() != nil {
		m, err := p.parseMessage()
		if err != nil {
			return nil, err
		}
		s.Messages = append(s.Messages, m)
	}
	return s, nil
}

func (p *Parser) peek() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) *token.Token {
	if p.pos+n >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos+n]
}

func (p *Parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

func (p *Parser) expect(typ token.Type) (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, errors.Syntax(p.lastLine, "unexpected end of input, expected %v", typ)
	}
	if t.Type == token.Illegal {
		return nil, errors.Syntax(t.Line, "unexpected character %q", t.Value)
	}
	if t.Type != typ {
		return nil, errors.Syntax(t.Line, "expected %v, got %q", typ, t.Value)
	}
	return t, nil
}

func (p *Parser) accept(typ token.Type) bool {
	if t := p.peek(); t != nil && t.Type == typ {
		p.pos++
		return true
	}
	return false
}

func (p *Parser) acceptKeyword(kw string) bool {
	if t := p.peek(); t != nil && t.Type == token.Ident && t.Value == kw {
		p.pos++
		return true
	}
	return false
}

func (p *Parser) parseMessage() (*ast.Message, error) {
	// "message Name" and bare "Name" are both accepted
	if t := p.peek(); t.Type == token.Ident && t.Value == kwMessage {
		if n := p.peekAt(1); n != nil && n.Type == token.Ident {
			p.next()
		}
	}

	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	m := &ast.Message{Name: name.Value, Line: name.Line}

	if t := p.peek(); t != nil && t.Type == token.Number {
		p.next()
		id, err := strconv.ParseUint(t.Value, 10, 64)
		if err != nil {
			return nil, errors.Syntax(t.Line, "invalid message id %q", t.Value)
		}
		if id == 0 || id > math.MaxUint32 {
			return nil, errors.Syntax(t.Line, "message id %d out of range 1..%d", id, uint64(math.MaxUint32))
		}
		m.ID = uint32(id)
	}

	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		if t == nil {
			return nil, errors.Syntax(p.lastLine, "unexpected end of input in message %q, expected '}'", m.Name)
		}
		if t.Type == token.RBrace {
			p.next()
			return m, nil
		}
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		m.Fields = append(m.Fields, f)
	}
}

func (p *Parser) parseField() (*ast.Field, error) {
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	f := &ast.Field{Name: name.Value, Line: name.Line}

	p.accept(token.Colon)

	if t := p.peek(); t != nil && t.Type == token.Ident && t.Value == kwRepeated {
		if n := p.peekAt(1); n != nil && n.Type == token.Ident {
			p.next()
			f.Repeated = true
		}
	}

	typ, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	f.Type = typ.Value

	if p.accept(token.LBracket) {
		if _, err := p.expect(token.RBracket); err != nil {
			return nil, err
		}
		if f.Repeated {
			return nil, errors.Syntax(typ.Line, "field %q uses both repeated and []", f.Name)
		}
		f.Repeated = true
	}

	switch {
	case p.acceptKeyword(kwRequired):
		f.Presence = ast.PresenceRequired
	case p.acceptKeyword(kwOptional):
		f.Presence = ast.PresenceOptional
	}

	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return f, nil
}
