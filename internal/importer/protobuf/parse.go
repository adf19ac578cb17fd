package protobuf

import (
	"fmt"
	"strconv"
	"strings"
)

// messageDef is one parsed "message M { ... }" block, possibly containing
// nested messages inlined as fields via the dotted-path codec.
type messageDef struct {
	name     string
	fields   []fieldDef
	nested   map[string]*messageDef
	enumType map[string]bool
}

type fieldDef struct {
	name       string
	typeName   string
	repeated   bool
	optional   bool
	isMap      bool
	mapValType string
}

type parser struct {
	toks   []token
	pos    int
	enums  map[string]bool
	result []*messageDef
}

func parseProto(src string) ([]*messageDef, map[string]bool, error) {
	p := &parser{toks: lex(src), enums: map[string]bool{}}
	if err := p.parseFile(); err != nil {
		return nil, nil, err
	}
	return p.result, p.enums, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) parseFile() error {
	for p.peek().kind != tokEOF {
		t := p.peek()
		switch {
		case t.kind == tokIdent && t.text == "message":
			p.next()
			m, err := p.parseMessage()
			if err != nil {
				return err
			}
			p.result = append(p.result, m)
		case t.kind == tokIdent && t.text == "enum":
			p.next()
			p.parseEnumTopLevel()
		case t.kind == tokIdent && (t.text == "syntax" || t.text == "package" || t.text == "import" || t.text == "option"):
			p.skipStatement()
		case t.kind == tokPunct && t.text == ";":
			p.next()
		default:
			p.next()
		}
	}
	return nil
}

// skipStatement consumes tokens up to and including the next top-level ';'.
func (p *parser) skipStatement() {
	for p.peek().kind != tokEOF {
		t := p.next()
		if t.kind == tokPunct && t.text == ";" {
			return
		}
	}
}

func (p *parser) parseEnumTopLevel() {
	if p.peek().kind == tokIdent {
		p.enums[p.next().text] = true
	}
	p.skipBlock()
}

// skipBlock consumes a balanced { ... } block; assumes the opening '{' is
// the current token (or upcoming) and leaves the cursor past the matching
// close.
func (p *parser) skipBlock() {
	for p.peek().kind != tokEOF && !(p.peek().kind == tokPunct && p.peek().text == "{") {
		p.next()
	}
	if p.peek().kind != tokPunct || p.peek().text != "{" {
		return
	}
	p.next()
	depth := 1
	for depth > 0 && p.peek().kind != tokEOF {
		t := p.next()
		if t.kind == tokPunct && t.text == "{" {
			depth++
		}
		if t.kind == tokPunct && t.text == "}" {
			depth--
		}
	}
}

func (p *parser) parseMessage() (*messageDef, error) {
	nameTok := p.next()
	if nameTok.kind != tokIdent {
		return nil, fmt.Errorf("protobuf: expected message name, got %q", nameTok.text)
	}
	m := &messageDef{name: nameTok.text, nested: map[string]*messageDef{}, enumType: map[string]bool{}}

	if p.peek().kind != tokPunct || p.peek().text != "{" {
		return nil, fmt.Errorf("protobuf: expected '{' after message %s", m.name)
	}
	p.next()

	for {
		t := p.peek()
		if t.kind == tokEOF {
			return nil, fmt.Errorf("protobuf: unterminated message %s", m.name)
		}
		if t.kind == tokPunct && t.text == "}" {
			p.next()
			break
		}
		switch {
		case t.kind == tokIdent && t.text == "message":
			p.next()
			nested, err := p.parseMessage()
			if err != nil {
				return nil, err
			}
			m.nested[nested.name] = nested
		case t.kind == tokIdent && t.text == "enum":
			p.next()
			if p.peek().kind == tokIdent {
				m.enumType[p.peek().text] = true
				p.enums[p.peek().text] = true
			}
			p.skipBlock()
		case t.kind == tokIdent && t.text == "oneof":
			p.next()
			p.next() // oneof name
			p.parseOneofFields(m)
		case t.kind == tokIdent && t.text == "reserved":
			p.skipStatement()
		case t.kind == tokPunct && t.text == ";":
			p.next()
		default:
			f, err := p.parseField()
			if err != nil {
				return nil, err
			}
			m.fields = append(m.fields, f)
		}
	}

	return m, nil
}

// parseOneofFields treats every field inside a "oneof" block as an
// ordinary optional field of the enclosing message: protobuf only
// guarantees at most one is set at a time, which this importer represents
// as independent nullable columns rather than inventing a sum-type column.
func (p *parser) parseOneofFields(m *messageDef) {
	if p.peek().kind != tokPunct || p.peek().text != "{" {
		return
	}
	p.next()
	for {
		t := p.peek()
		if t.kind == tokEOF {
			return
		}
		if t.kind == tokPunct && t.text == "}" {
			p.next()
			return
		}
		f, err := p.parseField()
		if err != nil {
			p.next()
			continue
		}
		f.optional = true
		m.fields = append(m.fields, f)
	}
}

func (p *parser) parseField() (fieldDef, error) {
	var f fieldDef

	if p.peek().kind == tokIdent && p.peek().text == "repeated" {
		f.repeated = true
		p.next()
	} else if p.peek().kind == tokIdent && p.peek().text == "optional" {
		f.optional = true
		p.next()
	}

	typeTok := p.next()
	if typeTok.kind != tokIdent {
		return f, fmt.Errorf("protobuf: expected field type, got %q", typeTok.text)
	}

	if typeTok.text == "map" {
		f.isMap = true
		if p.peek().kind == tokPunct && p.peek().text == "<" {
			p.next()
			p.next() // key type, not represented as a column in its own right
			if p.peek().kind == tokPunct && p.peek().text == "," {
				p.next()
			}
			valTok := p.next()
			f.mapValType = valTok.text
			if p.peek().kind == tokPunct && p.peek().text == ">" {
				p.next()
			}
		}
	} else {
		f.typeName = typeTok.text
	}

	nameTok := p.next()
	if nameTok.kind != tokIdent {
		return f, fmt.Errorf("protobuf: expected field name, got %q", nameTok.text)
	}
	f.name = nameTok.text

	if p.peek().kind != tokPunct || p.peek().text != "=" {
		return f, fmt.Errorf("protobuf: expected '=' in field %s", f.name)
	}
	p.next()

	numTok := p.next()
	if _, err := strconv.Atoi(numTok.text); err != nil {
		return f, fmt.Errorf("protobuf: expected field number for %s, got %q", f.name, numTok.text)
	}

	// Optional field options "[...]" before the terminating ';'.
	if p.peek().kind == tokPunct && p.peek().text == "[" {
		depth := 0
		for {
			t := p.next()
			if t.kind == tokPunct && t.text == "[" {
				depth++
			}
			if t.kind == tokPunct && t.text == "]" {
				depth--
				if depth == 0 {
					break
				}
			}
			if t.kind == tokEOF {
				break
			}
		}
	}

	if p.peek().kind == tokPunct && p.peek().text == ";" {
		p.next()
	}

	return f, nil
}

// resolveNested looks up name against a message's own nested messages,
// falling back to nothing (an unresolved message reference degrades to a
// string column with a warning at the call site).
func (m *messageDef) resolveNested(name string) (*messageDef, bool) {
	short := name
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		short = name[idx+1:]
	}
	nested, ok := m.nested[short]
	return nested, ok
}
