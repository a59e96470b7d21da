package explorer

import "strings"

// SplitStatements splits sql at top-level semicolons. Semicolons inside
// string literals, quoted identifiers, comments and trigger bodies do not
// split. Each statement keeps its terminating semicolon; segments holding
// only whitespace or comments are dropped.
//
// complete is true when the text ends in a terminated statement, with no
// open literal, comment or trigger body after it.
func SplitStatements(sql string) (stmts []string, complete bool) {
	var (
		start    int
		hasToken bool
		words    []string // leading keywords of the current statement
		lastWord string
	)

	reset := func(end int) {
		if hasToken {
			stmts = append(stmts, strings.TrimSpace(sql[start:end]))
		}
		start = end
		hasToken = false
		words = words[:0]
		lastWord = ""
	}

	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'' || c == '"' || c == '`' || c == '[':
			closer := c
			if c == '[' {
				closer = ']'
			}
			hasToken = true
			lastWord = ""
			end := strings.IndexByte(sql[i+1:], closer)
			if end < 0 {
				reset(len(sql))
				return stmts, false
			}
			i += end + 1

		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				i = len(sql)
				continue
			}
			i += end

		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				reset(len(sql))
				return stmts, false
			}
			i += end + 3

		case c == ';':
			if isTrigger(words) && lastWord != "END" {
				lastWord = ""
				continue
			}
			reset(i + 1)

		case isWordByte(c):
			j := i
			for j < len(sql) && isWordByte(sql[j]) {
				j++
			}
			w := strings.ToUpper(sql[i:j])
			if len(words) < 3 {
				words = append(words, w)
			}
			lastWord = w
			hasToken = true
			i = j - 1

		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':

		default:
			hasToken = true
			lastWord = ""
		}
	}

	if hasToken {
		reset(len(sql))
		return stmts, false
	}
	return stmts, len(stmts) > 0
}

// isTrigger reports whether the leading keywords open a CREATE TRIGGER,
// whose body is only closed by "END;".
func isTrigger(words []string) bool {
	if len(words) < 2 || words[0] != "CREATE" {
		return false
	}
	if words[1] == "TRIGGER" {
		return true
	}
	return len(words) > 2 && (words[1] == "TEMP" || words[1] == "TEMPORARY") && words[2] == "TRIGGER"
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
