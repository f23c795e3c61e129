package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a node inside a Value: record field names and decimal array indices.
type Path []string

// Append returns a new path with key added; p is not modified.
func (p Path) Append(key string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, key)
}

// Equal reports whether two paths address the same node.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is an ancestor of (or equal to) p.
func (p Path) HasPrefix(prefix Path) bool {
	return len(prefix) <= len(p) && prefix.Equal(p[:len(prefix)])
}

// String renders the path as a.b[2].c. Field names containing '.', '[', ']'
// or a backslash have those characters escaped with a backslash.
func (p Path) String() string {
	var b strings.Builder
	for i, key := range p {
		switch {
		case isIndex(key):
			b.WriteString("[" + key + "]")
		case i == 0:
			b.WriteString(pathEscaper.Replace(key))
		default:
			b.WriteString("." + pathEscaper.Replace(key))
		}
	}
	return b.String()
}

var pathEscaper = strings.NewReplacer(`\`, `\\`, ".", `\.`, "[", `\[`, "]", `\]`)

// ParsePath parses the form produced by Path.String.
func ParsePath(s string) (Path, error) {
	p := Path{}
	for i := 0; i < len(s); {
		switch s[i] {
		case '.':
			if i == 0 || i+1 == len(s) || s[i+1] == '.' || s[i+1] == '[' {
				return nil, fmt.Errorf("invalid path %q: empty segment at %d", s, i)
			}
			i++
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("invalid path %q: unterminated index", s)
			}
			idx := s[i+1 : i+end]
			if !isIndex(idx) {
				return nil, fmt.Errorf("invalid path %q: bad index %q", s, idx)
			}
			p = append(p, idx)
			i += end + 1
		default:
			var key strings.Builder
			for ; i < len(s) && s[i] != '.' && s[i] != '['; i++ {
				if s[i] == '\\' {
					i++
					if i == len(s) {
						return nil, fmt.Errorf("invalid path %q: trailing escape", s)
					}
				}
				key.WriteByte(s[i])
			}
			p = append(p, key.String())
		}
	}
	return p, nil
}

func isIndex(key string) bool {
	if key == "" {
		return false
	}
	_, err := strconv.Atoi(key)
	return err == nil && key[0] != '-' && key[0] != '+'
}
