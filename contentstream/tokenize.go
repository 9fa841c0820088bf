package contentstream

import (
	"errors"
	"strings"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokName
	tokString
	tokArrayStart
	tokArrayEnd
	tokOperator
)

type token struct {
	kind tokenKind
	text string
}

func isWhite(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelim(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

// tokenize splits a content stream into operand and operator tokens.
// Hex strings and dictionaries are consumed and dropped.
func tokenize(src []byte) ([]token, error) {
	var out []token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case isWhite(c):
			i++
		case c == '%':
			for i < len(src) && src[i] != '\n' && src[i] != '\r' {
				i++
			}
		case c == '[':
			out = append(out, token{kind: tokArrayStart})
			i++
		case c == ']':
			out = append(out, token{kind: tokArrayEnd})
			i++
		case c == '/':
			j := i + 1
			for j < len(src) && !isWhite(src[j]) && !isDelim(src[j]) {
				j++
			}
			out = append(out, token{kind: tokName, text: string(src[i+1 : j])})
			i = j
		case c == '(':
			s, n, err := readLiteral(src[i:])
			if err != nil {
				return nil, err
			}
			out = append(out, token{kind: tokString, text: s})
			i += n
		case c == '<':
			end := strings.IndexByte(string(src[i:]), '>')
			if end < 0 {
				return nil, errors.New("unterminated hex string or dictionary")
			}
			if i+1 < len(src) && src[i+1] == '<' {
				end = strings.Index(string(src[i:]), ">>")
				if end < 0 {
					return nil, errors.New("unterminated dictionary")
				}
				end++
			}
			i += end + 1
		default:
			j := i
			for j < len(src) && !isWhite(src[j]) && !isDelim(src[j]) {
				j++
			}
			if j == i {
				// Stray delimiter such as ')' or '{'.
				i++
				continue
			}
			text := string(src[i:j])
			kind := tokOperator
			if isNumber(text) {
				kind = tokNumber
			}
			out = append(out, token{kind: kind, text: text})
			i = j
		}
	}
	return out, nil
}

func isNumber(s string) bool {
	digits := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
		case (c == '-' || c == '+') && i == 0:
		default:
			return false
		}
	}
	return digits > 0
}

func readLiteral(src []byte) (string, int, error) {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case '\\':
			i++
			if i >= len(src) {
				return "", 0, errors.New("unterminated string")
			}
			switch e := src[i]; e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			default:
				if e >= '0' && e <= '7' {
					v := 0
					k := 0
					for ; k < 3 && i+k < len(src) && src[i+k] >= '0' && src[i+k] <= '7'; k++ {
						v = v*8 + int(src[i+k]-'0')
					}
					b.WriteByte(byte(v))
					i += k - 1
					continue
				}
				b.WriteByte(e)
			}
		case '(':
			if depth > 0 {
				b.WriteByte(c)
			}
			depth++
		case ')':
			depth--
			if depth == 0 {
				return b.String(), i + 1, nil
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, errors.New("unterminated string")
}
