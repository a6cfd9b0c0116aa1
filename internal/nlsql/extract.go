package nlsql

import "strings"

var statementKeywords = []string{
	"SELECT", "WITH", "INSERT", "UPDATE", "DELETE", "CREATE", "DROP",
	"ALTER", "TRUNCATE", "EXPLAIN", "PRAGMA", "SHOW", "DESCRIBE",
	"REPLACE", "MERGE", "GRANT", "REVOKE", "SET", "BEGIN", "VACUUM",
	"ANALYZE", "CALL", "VALUES",
}

// ExtractStatement normalizes a raw model response into exactly one SQL
// statement. Markdown fences and prose before or after the statement are
// stripped; a trailing semicolon is kept. Responses with no recognizable
// statement yield KindEmptyResponse, responses with a second statement
// after the first semicolon yield KindMultiStatement.
func ExtractStatement(raw string) (string, error) {
	text := strings.TrimSpace(stripFences(raw))
	if text == "" {
		return "", &GenerationError{Kind: KindEmptyResponse}
	}

	if !startsWithKeyword(text) {
		lines := strings.Split(text, "\n")
		start := -1
		for i, line := range lines {
			if startsWithKeyword(strings.TrimSpace(line)) {
				start = i
				break
			}
		}
		if start < 0 {
			return "", &GenerationError{Kind: KindEmptyResponse, Detail: "no SQL statement in response"}
		}
		text = strings.TrimSpace(strings.Join(lines[start:], "\n"))
	}

	end := statementEnd(text)
	if end < 0 {
		return text, nil
	}
	rest := strings.TrimSpace(text[end+1:])
	if startsWithKeyword(rest) {
		return "", &GenerationError{Kind: KindMultiStatement}
	}
	// Anything else after the semicolon is prose postamble.
	return strings.TrimSpace(text[:end+1]), nil
}

// stripFences removes a surrounding markdown code fence, with or without
// a language tag.
func stripFences(value string) string {
	trimmed := strings.TrimSpace(value)
	if !strings.Contains(trimmed, "```") {
		return trimmed
	}
	start := strings.Index(trimmed, "```")
	body := trimmed[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(body[:nl])
		// Drop a language tag such as "sql" on the fence line.
		if firstLine == "" || !strings.ContainsAny(firstLine, " \t;") {
			body = body[nl+1:]
		}
	} else {
		body = strings.TrimPrefix(body, "sql")
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func startsWithKeyword(text string) bool {
	if text == "" {
		return false
	}
	upper := strings.ToUpper(text)
	for _, kw := range statementKeywords {
		if strings.HasPrefix(upper, kw) {
			rest := upper[len(kw):]
			if rest == "" || !isIdentChar(rest[0]) {
				return true
			}
		}
	}
	return false
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// statementEnd returns the index of the first semicolon outside string
// literals and quoted identifiers, or -1 when the statement is unterminated.
func statementEnd(text string) int {
	var inSingle, inDouble bool
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case inSingle:
			if c == '\'' {
				// Doubled quote is an escaped quote, not a close.
				if i+1 < len(text) && text[i+1] == '\'' {
					i++
				} else {
					inSingle = false
				}
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == ';':
			return i
		}
	}
	return -1
}
