package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"

	"bax/internal/boundary"
)

// UnwrapFences removes markdown code fences that wrap edit blocks. Models
// regularly emit the pseudo-XML inside ```...``` even when told not to; the
// blocks themselves are fine, so the fence delimiter lines are dropped and
// the body is kept in place. Fences without a complete <file> region inside
// are left untouched.
func UnwrapFences(source string) string {
	if !strings.Contains(source, "```") && !strings.Contains(source, "~~~") {
		return source
	}
	if !strings.Contains(source, "<"+TagFile) {
		return source
	}

	src := []byte(source)
	root := goldmark.DefaultParser().Parse(gtext.NewReader(src))

	type span struct{ start, end, bodyStart, bodyEnd int }
	var spans []span

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		lines := fcb.Lines()
		if lines.Len() == 0 {
			return ast.WalkSkipChildren, nil
		}

		bodyStart := lines.At(0).Start
		bodyEnd := lines.At(lines.Len() - 1).Stop
		body := source[bodyStart:bodyEnd]
		if !strings.Contains(body, "<"+TagFile) || !strings.Contains(body, boundary.Close(TagFile)) {
			return ast.WalkSkipChildren, nil
		}

		// The opening delimiter is the line right before the first body line.
		if bodyStart == 0 {
			return ast.WalkSkipChildren, nil
		}
		start := strings.LastIndexByte(source[:bodyStart-1], '\n') + 1

		// The closing delimiter, when present, is the line right after the
		// last body line. An unclosed fence runs to end of input.
		end := bodyEnd
		if end < len(source) {
			lineEnd := strings.IndexByte(source[end:], '\n')
			var closing string
			if lineEnd < 0 {
				closing = source[end:]
				lineEnd = len(source) - end - 1
			} else {
				closing = source[end : end+lineEnd]
			}
			trimmed := strings.TrimSpace(closing)
			if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
				end += lineEnd + 1
				if end > len(source) {
					end = len(source)
				}
			}
		}

		spans = append(spans, span{start: start, end: end, bodyStart: bodyStart, bodyEnd: bodyEnd})
		return ast.WalkSkipChildren, nil
	}
	if err := ast.Walk(root, walker); err != nil {
		return source
	}
	if len(spans) == 0 {
		return source
	}

	var sb strings.Builder
	cursor := 0
	for _, s := range spans {
		sb.WriteString(source[cursor:s.start])
		sb.WriteString(source[s.bodyStart:s.bodyEnd])
		cursor = s.end
	}
	sb.WriteString(source[cursor:])
	return sb.String()
}
