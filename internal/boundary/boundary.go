// Package boundary recognizes the pseudo-XML region markers used in
// assistant responses: <tag attr="value">...</tag>. It knows nothing about
// edit blocks; it only finds tagged regions and their attributes.
package boundary

import (
	"regexp"
	"strings"
	"sync"
)

// Match is one recognized tagged region.
type Match struct {
	// Attrs holds the key="value" pairs from the opening tag.
	Attrs map[string]string
	// Inner is the verbatim text between the opening and closing tag.
	Inner string
	// Start and End are byte offsets of the full region in the scanned
	// text, from '<' of the opening tag through '>' of the closing tag.
	Start int
	End   int
}

var (
	attrRe  = regexp.MustCompile(`(\w+)\s*=\s*"([^"]*)"`)
	tagRes  = make(map[string]*regexp.Regexp)
	tagResM sync.Mutex
)

func regionRe(tag string) *regexp.Regexp {
	tagResM.Lock()
	defer tagResM.Unlock()
	re, ok := tagRes[tag]
	if !ok {
		q := regexp.QuoteMeta(tag)
		// Non-greedy inner match keeps a region from swallowing a later
		// sibling with the same tag name.
		re = regexp.MustCompile(`(?s)<` + q + `(\s[^>]*)?>(.*?)</` + q + `>`)
		tagRes[tag] = re
	}
	return re
}

// FindAll returns every <tag ...>...</tag> region in text, in document
// order. Inner text may span lines. Unrelated tags inside a region are left
// as plain text for the caller to interpret.
func FindAll(text, tag string) []Match {
	idx := regionRe(tag).FindAllStringSubmatchIndex(text, -1)
	matches := make([]Match, 0, len(idx))
	for _, loc := range idx {
		m := Match{
			Attrs: map[string]string{},
			Start: loc[0],
			End:   loc[1],
			Inner: text[loc[4]:loc[5]],
		}
		if loc[2] >= 0 {
			for _, kv := range attrRe.FindAllStringSubmatch(text[loc[2]:loc[3]], -1) {
				m.Attrs[kv[1]] = kv[2]
			}
		}
		matches = append(matches, m)
	}
	return matches
}

// Attr is an ordered attribute for Open. Attribute order matters when the
// formatted tag is shown to a model as an example to imitate.
type Attr struct {
	Key   string
	Value string
}

// Open formats an opening tag.
func Open(tag string, attrs ...Attr) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(tag)
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(a.Value)
		b.WriteByte('"')
	}
	b.WriteByte('>')
	return b.String()
}

// Close formats a closing tag.
func Close(tag string) string {
	return "</" + tag + ">"
}
