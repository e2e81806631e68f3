package dsl

import "fmt"

// Parse reads a single `(Table …)` literal and returns its raw AST. Any structural
// problem is reported as an [InvalidSpecError].
func Parse(src string) (*TableNode, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	node, err := p.parseTable()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, invalidSpecf(p.tok.pos, "unexpected trailing input: %s", p.tok)
	}
	return node, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return &InvalidSpecError{Reason: err.Error(), Pos: p.lex.pos}
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.tok.kind != kind {
		return token{}, invalidSpecf(p.tok.pos, "expected %s, found %s", what, p.tok)
	}
	tok := p.tok
	if err := p.advance(); err != nil {
		return token{}, err
	}
	return tok, nil
}

// parseTable parses `(Table NAME [:id "x"] :fields FIELD_OR_REL …)`.
func (p *parser) parseTable() (*TableNode, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}

	tag, err := p.expect(tokSymbol, "the 'Table' tag")
	if err != nil {
		return nil, err
	}
	if tag.text != "Table" {
		return nil, invalidSpecf(tag.pos, "expected 'Table' tag, found %q", tag.text)
	}

	name, err := p.expect(tokSymbol, "a table name")
	if err != nil {
		return nil, err
	}

	node := &TableNode{Name: name.text}

	for p.tok.kind == tokKeyword && p.tok.text == "id" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		idTok, err := p.expect(tokString, "the :id value")
		if err != nil {
			return nil, err
		}
		node.ID = idTok.text
		node.HasID = true
	}

	if p.tok.kind != tokKeyword || p.tok.text != "fields" {
		return nil, invalidSpecf(p.tok.pos, "expected :fields, found %s", p.tok)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	for p.tok.kind != tokRParen {
		if p.tok.kind == tokEOF {
			return nil, invalidSpecf(p.tok.pos, "unterminated Table form")
		}
		field, err := p.parseFieldOrRel()
		if err != nil {
			return nil, err
		}
		node.Fields = append(node.Fields, field)
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return node, nil
}

// parseFieldOrRel parses one of the three admissible field/relationship shapes: a
// bare string field, an option vector, or a relationship map.
func (p *parser) parseFieldOrRel() (any, error) {
	switch p.tok.kind {
	case tokString:
		tok, err := p.expect(tokString, "a field name")
		if err != nil {
			return nil, err
		}
		return &FieldNode{Column: tok.text}, nil
	case tokLBracket:
		vec, err := p.parseOptionVector()
		if err != nil {
			return nil, err
		}
		return vec, nil
	case tokLBrace:
		return p.parseRelMap()
	default:
		return nil, invalidSpecf(p.tok.pos, "expected a field, option vector, or relationship map, found %s", p.tok)
	}
}

// parseOptionVector parses `["col" :opt "value" :flag …]`.
func (p *parser) parseOptionVector() (*OptionVector, error) {
	if _, err := p.expect(tokLBracket, "'['"); err != nil {
		return nil, err
	}
	colTok, err := p.expect(tokString, "a column name")
	if err != nil {
		return nil, err
	}
	vec := &OptionVector{Column: colTok.text}

	for p.tok.kind != tokRBracket {
		if p.tok.kind != tokKeyword {
			return nil, invalidSpecf(p.tok.pos, "expected a keyword option, found %s", p.tok)
		}
		key := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind == tokString {
			if vec.Values == nil {
				vec.Values = make(map[string]string)
			}
			vec.Values[key] = p.tok.text
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if vec.Flags == nil {
			vec.Flags = make(map[string]bool)
		}
		vec.Flags[key] = true
	}
	if _, err := p.expect(tokRBracket, "']'"); err != nil {
		return nil, err
	}
	return vec, nil
}

// parseRelMap parses `{ JOIN_SPEC TABLE_EXPR }`.
func (p *parser) parseRelMap() (*RelNode, error) {
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}

	join, err := p.parseJoinSpec()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokLParen {
		return nil, invalidSpecf(p.tok.pos, "relationship value must be a Table expression, found %s", p.tok)
	}
	target, err := p.parseTable()
	if err != nil {
		return nil, err
	}

	if p.tok.kind != tokRBrace {
		return nil, invalidSpecf(p.tok.pos, "relationship map must have exactly one non-option key, found extra content: %s", p.tok)
	}
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return nil, err
	}
	return &RelNode{Join: join, Target: target}, nil
}

// parseJoinSpec parses the JOIN_SPEC half of a relationship: either a bare string
// column, or a full option vector.
func (p *parser) parseJoinSpec() (OptionVector, error) {
	switch p.tok.kind {
	case tokString:
		tok, err := p.expect(tokString, "a join column")
		if err != nil {
			return OptionVector{}, err
		}
		return OptionVector{Column: tok.text}, nil
	case tokLBracket:
		vec, err := p.parseOptionVector()
		if err != nil {
			return OptionVector{}, err
		}
		return *vec, nil
	default:
		return OptionVector{}, invalidSpecf(p.tok.pos, fmt.Sprintf("expected a join column, found %s", p.tok))
	}
}
