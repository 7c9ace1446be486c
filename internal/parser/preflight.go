package parser

import (
	"fmt"
	"regexp"
	"strings"

	"bax/internal/boundary"
)

// NoBlocksError reports a response with no edit blocks at all.
type NoBlocksError struct{}

func (e *NoBlocksError) Error() string {
	return "no <file> edit blocks found in response; include at least one properly formatted edit block"
}

// UnparsableError reports a structurally broken batch: unbalanced tags or a
// block without an id. The message is meant to be sent back to the model as
// a correction request, so it states the exact counts it saw.
type UnparsableError struct {
	Detail string
}

func (e *UnparsableError) Error() string {
	return "malformed edit blocks: " + e.Detail
}

var fileOpenRe = regexp.MustCompile(`<file\b[^>]*>`)

// Preflight runs the whole-document structural checks: at least one block
// exists, every tag pair is balanced, and every block carries a unique
// block_id. Any failure aborts the batch before file I/O is attempted.
func Preflight(text string) error {
	fileOpen := len(fileOpenRe.FindAllStringIndex(text, -1))
	if fileOpen == 0 {
		return &NoBlocksError{}
	}

	fileClose := strings.Count(text, boundary.Close(TagFile))
	if fileOpen != fileClose {
		return &UnparsableError{Detail: fmt.Sprintf(
			"<file> tags=%d, </file> tags=%d; opening and closing tags must match",
			fileOpen, fileClose)}
	}

	searchOpen := strings.Count(text, boundary.Open(TagSearch))
	searchClose := strings.Count(text, boundary.Close(TagSearch))
	if searchOpen != searchClose {
		return &UnparsableError{Detail: fmt.Sprintf(
			"<search> tags=%d, </search> tags=%d; opening and closing tags must match",
			searchOpen, searchClose)}
	}

	replaceOpen := strings.Count(text, boundary.Open(TagReplace))
	replaceClose := strings.Count(text, boundary.Close(TagReplace))
	if replaceOpen != replaceClose {
		return &UnparsableError{Detail: fmt.Sprintf(
			"<replace> tags=%d, </replace> tags=%d; opening and closing tags must match",
			replaceOpen, replaceClose)}
	}

	if searchOpen != replaceOpen {
		return &UnparsableError{Detail: fmt.Sprintf(
			"<search> tags=%d, <replace> tags=%d; every file block needs one of each",
			searchOpen, replaceOpen)}
	}

	return checkBlockIDs(text)
}

func checkBlockIDs(text string) error {
	seen := make(map[string]int)
	for i, region := range boundary.FindAll(text, TagFile) {
		id := strings.TrimSpace(region.Attrs["block_id"])
		path := region.Attrs["path"]
		if id == "" {
			return &UnparsableError{Detail: fmt.Sprintf(
				"file block %d (path=%q) is missing the block_id attribute",
				i+1, path)}
		}
		if prev, dup := seen[id]; dup {
			return &UnparsableError{Detail: fmt.Sprintf(
				"file blocks %d and %d share block_id %q; ids must be unique",
				prev+1, i+1, id)}
		}
		seen[id] = i
	}
	return nil
}
