package codegen

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/lexgen/dfa"
	"github.com/dave/jennifer/jen"
)

// ExportName converts a rule or action name to an exported Go identifier:
// "a_before_b" becomes "ABeforeB" and "open-str" becomes "OpenStr".
func ExportName(s string) string {
	var sb strings.Builder
	upper := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if sb.Len() == 0 && unicode.IsDigit(r) {
			sb.WriteByte('X')
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// unexportName lowercases the first letter of an identifier.
func unexportName(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// fieldNames assigns an exported field name to every non-skip action.
func fieldNames(p *Program) ([]string, error) {
	names := make([]string, len(p.Actions))
	seen := make(map[string]string)
	for i, a := range p.Actions {
		if a.Kind == dfa.ActionSkip {
			continue
		}
		name := ExportName(a.Name)
		if name == "" {
			name = fmt.Sprintf("Action%d", i)
		}
		if prev, dup := seen[name]; dup {
			return nil, &Error{Message: fmt.Sprintf("actions %q and %q both map to field %s", prev, a.Name, name)}
		}
		seen[name] = a.Name
		names[i] = name
	}
	return names, nil
}

// typeCode renders a type expression. A package path before the last dot is
// imported: "*example.com/ast.Token" becomes *ast.Token.
func typeCode(s string) jen.Code {
	prefix := ""
	for {
		switch {
		case strings.HasPrefix(s, "*"):
			prefix += "*"
			s = s[1:]
			continue
		case strings.HasPrefix(s, "[]"):
			prefix += "[]"
			s = s[2:]
			continue
		}
		break
	}
	i := strings.LastIndex(s, ".")
	if i > 0 && strings.Contains(s[:i], "/") {
		if prefix == "" {
			return jen.Qual(s[:i], s[i+1:])
		}
		return jen.Op(prefix).Qual(s[:i], s[i+1:])
	}
	return jen.Id(prefix + s)
}

func validIdent(s string) bool {
	return token.IsIdentifier(s) && !token.IsKeyword(s)
}
