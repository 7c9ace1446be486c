// Package parser turns raw assistant responses into edit blocks. It extracts
// <file> regions, runs the whole-document preflight checks, and unwraps
// markdown fences that models sometimes put around the blocks.
package parser

import (
	"strings"

	"bax/internal/boundary"
	"bax/model"
)

// Tag names of the wire format.
const (
	TagFile    = "file"
	TagSearch  = "search"
	TagReplace = "replace"
)

// Parse extracts every <file> block from text, in document order. That order
// is the application order; nothing downstream may re-sort the slice.
// Parse does no validation beyond shape; run Preflight first to reject
// structurally broken batches.
func Parse(text string) []*model.EditBlock {
	regions := boundary.FindAll(text, TagFile)
	blocks := make([]*model.EditBlock, 0, len(regions))

	for _, region := range regions {
		b := &model.EditBlock{
			ID:        strings.TrimSpace(region.Attrs["block_id"]),
			FilePath:  strings.TrimSpace(region.Attrs["path"]),
			Operation: model.ParseOperation(region.Attrs["operation"]),
			Status:    model.StatusPending,
		}
		if inner := boundary.FindAll(region.Inner, TagSearch); len(inner) > 0 {
			b.SearchContent = trimTagNewlines(inner[0].Inner)
		}
		if inner := boundary.FindAll(region.Inner, TagReplace); len(inner) > 0 {
			b.ReplaceContent = trimTagNewlines(inner[0].Inner)
		}
		blocks = append(blocks, b)
	}
	return blocks
}

// FormatBlock renders a block back into the wire format. Parse(FormatBlock(b))
// reproduces path, operation and the two content fields exactly.
func FormatBlock(b *model.EditBlock) string {
	var sb strings.Builder
	sb.WriteString(boundary.Open(TagFile,
		boundary.Attr{Key: "path", Value: b.FilePath},
		boundary.Attr{Key: "operation", Value: string(b.Operation)},
		boundary.Attr{Key: "block_id", Value: b.ID},
	))
	sb.WriteByte('\n')
	sb.WriteString(boundary.Open(TagSearch))
	sb.WriteByte('\n')
	sb.WriteString(b.SearchContent)
	sb.WriteByte('\n')
	sb.WriteString(boundary.Close(TagSearch))
	sb.WriteByte('\n')
	sb.WriteString(boundary.Open(TagReplace))
	sb.WriteByte('\n')
	sb.WriteString(b.ReplaceContent)
	sb.WriteByte('\n')
	sb.WriteString(boundary.Close(TagReplace))
	sb.WriteByte('\n')
	sb.WriteString(boundary.Close(TagFile))
	return sb.String()
}

// trimTagNewlines strips the single newline on each side of inner text that
// belongs to the tag lines themselves, keeping all interior whitespace
// verbatim. "<search>\nfoo()\n</search>" carries the content "foo()".
func trimTagNewlines(s string) string {
	if strings.HasPrefix(s, "\r\n") {
		s = s[2:]
	} else {
		s = strings.TrimPrefix(s, "\n")
	}
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s
}
