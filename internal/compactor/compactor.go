// Package compactor rewrites edit-block regions out of stored conversation
// text so long sessions stop re-sending large diffs to the model every turn.
package compactor

import (
	"fmt"
	"strings"

	"bax/internal/boundary"
	"bax/internal/parser"
	"bax/model"
)

// Compact replaces every parsed <file> region in text, open tag through
// closing tag inclusive, with a one-line summary. Prose before, between and
// after the blocks survives byte-for-byte, blank lines included. Blocks are
// compacted regardless of how validation or application went; the summary
// line is the readable trace of what the turn proposed.
func Compact(text string, blocks []*model.EditBlock) string {
	regions := boundary.FindAll(text, parser.TagFile)
	if len(regions) == 0 {
		return text
	}

	var sb strings.Builder
	cursor := 0
	for i, region := range regions {
		path := strings.TrimSpace(region.Attrs["path"])
		op := model.ParseOperation(region.Attrs["operation"])
		if i < len(blocks) {
			path = blocks[i].FilePath
			op = blocks[i].Operation
		}
		sb.WriteString(text[cursor:region.Start])
		sb.WriteString(SummaryLine(path, op))
		cursor = region.End
	}
	sb.WriteString(text[cursor:])
	return sb.String()
}

// SummaryLine is the replacement for one compacted block region.
func SummaryLine(path string, op model.Operation) string {
	return fmt.Sprintf("Code change removed for brevity: `%s` (%s)", path, op)
}
