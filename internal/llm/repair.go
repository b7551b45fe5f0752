package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// repairRule is one textual rewrite tried on malformed model output.
type repairRule struct {
	Label string
	Apply func(string) string
}

var (
	fenceRE         = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\n?```\\s*$")
	singleKeyRE     = regexp.MustCompile(`([{,]\s*)'([^'\\]*)'\s*:`)
	singleValueRE   = regexp.MustCompile(`(:\s*)'([^'\\]*)'(\s*[,}\]])`)
	unquotedKeyRE   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	trailingCommaRE = regexp.MustCompile(`,(\s*[}\]])`)
)

var smartQuotes = strings.NewReplacer(
	"\u201c", `"`, "\u201d", `"`, "\u201e", `"`,
	"\u2018", "'", "\u2019", "'",
)

var repairRules = []repairRule{
	{Label: "code-fence", Apply: stripFence},
	{Label: "prose", Apply: extractObject},
	{Label: "smart-quotes", Apply: smartQuotes.Replace},
	{Label: "single-quotes", Apply: outsideStrings(func(s string) string {
		s = singleKeyRE.ReplaceAllString(s, `$1"$2":`)
		return singleValueRE.ReplaceAllString(s, `$1"$2"$3`)
	})},
	{Label: "unquoted-keys", Apply: outsideStrings(func(s string) string {
		return unquotedKeyRE.ReplaceAllString(s, `$1"$2":`)
	})},
	{Label: "trailing-comma", Apply: outsideStrings(func(s string) string {
		return trailingCommaRE.ReplaceAllString(s, "$1")
	})},
	{Label: "unclosed", Apply: closeBrackets},
}

// RepairJSON applies a fixed sequence of rewrites to raw until it parses.
// It returns the repaired document, the labels of the rules that changed
// the text, and whether the result is valid JSON. It is a last resort for
// structured output that failed to parse and never touches valid input.
func RepairJSON(raw json.RawMessage) (json.RawMessage, []string, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return nil, nil, false
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s), nil, true
	}

	var fixes []string
	for _, r := range repairRules {
		next := r.Apply(s)
		if next == s {
			continue
		}
		s = next
		fixes = append(fixes, r.Label)
		if json.Valid([]byte(s)) {
			return json.RawMessage(s), fixes, true
		}
	}
	return nil, fixes, false
}

func stripFence(s string) string {
	if m := fenceRE.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// extractObject drops prose around the outermost JSON object or array.
// A missing end is tolerated so truncated output can still be closed.
func extractObject(s string) string {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	end := strings.LastIndexAny(s, "}]")
	if end < start {
		return s[start:]
	}
	return s[start : end+1]
}

// outsideStrings wraps fn so that it only rewrites the parts of s outside
// double-quoted strings. String contents, including an unterminated
// string at the end, pass through unchanged.
func outsideStrings(fn func(string) string) func(string) string {
	return func(s string) string {
		var (
			b        strings.Builder
			start    int
			inString bool
			escaped  bool
		)
		for i := 0; i < len(s); i++ {
			c := s[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
					b.WriteString(s[start : i+1])
					start = i + 1
				}
				continue
			}
			if c == '"' {
				b.WriteString(fn(s[start:i]))
				start = i
				inString = true
			}
		}
		if inString {
			b.WriteString(s[start:])
		} else {
			b.WriteString(fn(s[start:]))
		}
		return b.String()
	}
}

// closeBrackets appends the closers for any object, array or string left
// open at the end of s.
func closeBrackets(s string) string {
	var (
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(s)
	if inString {
		b.WriteByte('"')
	}
	tail := strings.TrimRight(b.String(), " \t\r\n")
	b.Reset()
	b.WriteString(strings.TrimSuffix(tail, ","))
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}
