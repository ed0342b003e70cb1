package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseLiteral parses an expected-output annotation into a Value. The grammar
// covers JavaScript literal notation as written in documentation examples:
// single- or double-quoted strings, numbers, true/false/null/undefined,
// arrays, and object literals with identifier or quoted keys. Trailing commas
// are tolerated. Annotations are data, never code: the parser accepts only
// this closed grammar, so nothing in an annotation can execute.
func ParseLiteral(input string) (Value, error) {
	p := &literalParser{src: input}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return Value{}, fmt.Errorf("unexpected trailing content at offset %d: %q", p.pos, p.rest())
	}
	return v, nil
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) rest() string {
	r := p.src[p.pos:]
	if len(r) > 20 {
		r = r[:20] + "..."
	}
	return r
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			break
		}
		p.pos++
	}
}

func (p *literalParser) parseValue() (Value, error) {
	if p.pos >= len(p.src) {
		return Value{}, fmt.Errorf("unexpected end of annotation")
	}

	switch c := p.src[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '\'' || c == '"':
		return p.parseString(c)
	case c == '-' || c == '+' || (c >= '0' && c <= '9') || c == '.':
		return p.parseNumber()
	default:
		return p.parseWord()
	}
}

func (p *literalParser) parseObject() (Value, error) {
	p.pos++ // consume {
	fields := make(map[string]Value)

	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '}' {
		p.pos++
		return NewObject(fields), nil
	}

	for {
		p.skipSpace()
		key, err := p.parseKey()
		if err != nil {
			return Value{}, err
		}
		if _, dup := fields[key]; dup {
			return Value{}, fmt.Errorf("duplicate object key %q", key)
		}

		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return Value{}, fmt.Errorf("expected ':' after key %q at offset %d", key, p.pos)
		}
		p.pos++

		p.skipSpace()
		val, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		fields[key] = val

		p.skipSpace()
		if p.pos >= len(p.src) {
			return Value{}, fmt.Errorf("unterminated object literal")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
			p.skipSpace()
			// Tolerate a trailing comma before the closing brace.
			if p.pos < len(p.src) && p.src[p.pos] == '}' {
				p.pos++
				return NewObject(fields), nil
			}
		case '}':
			p.pos++
			return NewObject(fields), nil
		default:
			return Value{}, fmt.Errorf("expected ',' or '}' at offset %d: %q", p.pos, p.rest())
		}
	}
}

func (p *literalParser) parseKey() (string, error) {
	if p.pos >= len(p.src) {
		return "", fmt.Errorf("unexpected end of annotation in object key")
	}

	c := p.src[p.pos]
	if c == '\'' || c == '"' {
		v, err := p.parseString(c)
		if err != nil {
			return "", err
		}
		return v.Str, nil
	}

	start := p.pos
	for p.pos < len(p.src) && isIdentChar(rune(p.src[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("expected object key at offset %d: %q", p.pos, p.rest())
	}
	return p.src[start:p.pos], nil
}

func (p *literalParser) parseArray() (Value, error) {
	p.pos++ // consume [
	var elems []Value

	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ']' {
		p.pos++
		return NewArray(), nil
	}

	for {
		p.skipSpace()
		elem, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, elem)

		p.skipSpace()
		if p.pos >= len(p.src) {
			return Value{}, fmt.Errorf("unterminated array literal")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
			p.skipSpace()
			if p.pos < len(p.src) && p.src[p.pos] == ']' {
				p.pos++
				return NewArray(elems...), nil
			}
		case ']':
			p.pos++
			return NewArray(elems...), nil
		default:
			return Value{}, fmt.Errorf("expected ',' or ']' at offset %d: %q", p.pos, p.rest())
		}
	}
}

func (p *literalParser) parseString(quote byte) (Value, error) {
	p.pos++ // consume opening quote
	var sb strings.Builder

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return NewString(sb.String()), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return Value{}, fmt.Errorf("unterminated escape in string literal")
			}
			esc := p.src[p.pos]
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '\'', '"', '`':
				sb.WriteByte(esc)
			default:
				return Value{}, fmt.Errorf("unsupported escape sequence \\%c", esc)
			}
			p.pos++
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}

	return Value{}, fmt.Errorf("unterminated string literal")
}

func (p *literalParser) parseNumber() (Value, error) {
	start := p.pos
	if p.src[p.pos] == '-' || p.src[p.pos] == '+' {
		p.pos++
	}
	if strings.HasPrefix(p.src[p.pos:], "Infinity") {
		p.pos += len("Infinity")
		if p.src[start] == '-' {
			return NewNumber(math.Inf(-1)), nil
		}
		return NewNumber(math.Inf(1)), nil
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		if (c == '-' || c == '+') && p.pos > start {
			prev := p.src[p.pos-1]
			if prev == 'e' || prev == 'E' {
				p.pos++
				continue
			}
		}
		break
	}

	text := p.src[start:p.pos]
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid number literal %q", text)
	}
	return NewNumber(n), nil
}

func (p *literalParser) parseWord() (Value, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentChar(rune(p.src[p.pos])) {
		p.pos++
	}

	switch word := p.src[start:p.pos]; word {
	case "true":
		return NewBool(true), nil
	case "false":
		return NewBool(false), nil
	case "null":
		return NewNull(), nil
	case "undefined":
		return NewUndefined(), nil
	case "NaN":
		return NewNumber(math.NaN()), nil
	case "Infinity":
		return NewNumber(math.Inf(1)), nil
	case "":
		return Value{}, fmt.Errorf("expected a literal at offset %d: %q", p.pos, p.rest())
	default:
		return Value{}, fmt.Errorf("unrecognized literal %q (strings must be quoted)", word)
	}
}

func isIdentChar(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
