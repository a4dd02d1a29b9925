package chat

import (
	"bytes"
	"os"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
)

const chromaStyleName = "dracula"

// highlightCodeBlocks colorizes fenced code blocks in a message body.
// Fence lines and everything outside the fences pass through untouched,
// as does an opening fence that never closes.
func highlightCodeBlocks(body string) string {
	if body == "" || os.Getenv("NO_COLOR") != "" {
		return body
	}

	lines := strings.Split(body, "\n")
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		fence, lang, ok := openingFence(lines[i])
		if !ok {
			out = append(out, lines[i])
			continue
		}
		end := closingFence(lines, i+1, fence)
		if end < 0 {
			out = append(out, lines[i])
			continue
		}
		out = append(out, lines[i])
		if end > i+1 {
			out = append(out, renderCode(strings.Join(lines[i+1:end], "\n"), lang))
		}
		out = append(out, lines[end])
		i = end
	}
	return strings.Join(out, "\n")
}

// openingFence recognizes a ``` or ~~~ fence (three or more marker
// runes, optional language word) and returns the fence and language.
func openingFence(line string) (fence, lang string, ok bool) {
	s := strings.TrimLeft(line, " \t")
	if len(s) < 3 || (s[0] != '`' && s[0] != '~') {
		return "", "", false
	}
	n := 0
	for n < len(s) && s[n] == s[0] {
		n++
	}
	if n < 3 {
		return "", "", false
	}
	if fields := strings.Fields(s[n:]); len(fields) > 0 {
		lang = fields[0]
	}
	return s[:n], lang, true
}

// closingFence finds the next line made up of nothing but the fence's
// marker rune, at least as long as the opening fence.
func closingFence(lines []string, from int, fence string) int {
	for i := from; i < len(lines); i++ {
		s := strings.TrimSpace(lines[i])
		if len(s) >= len(fence) && strings.Trim(s, fence[:1]) == "" {
			return i
		}
	}
	return -1
}

func renderCode(code, lang string) string {
	iterator, err := lexerFor(code, lang).Tokenise(nil, code)
	if err != nil {
		return code
	}
	style := styles.Get(chromaStyleName)
	if style == nil {
		style = styles.Fallback
	}
	var buf bytes.Buffer
	if err := formatters.TTY256.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func lexerFor(code, lang string) chroma.Lexer {
	var lexer chroma.Lexer
	if lang = strings.ToLower(strings.TrimSpace(lang)); lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}
