package parser

import (
	"strconv"
	"strings"
	"time"
)

// The Form 4 document family nests the same scalar inconsistently: some
// filers emit <tag><value>x</value></tag>, others <tag>x</tag>. Every field
// lookup therefore tries the wrapper shape first and falls back to direct
// text content. A field that matches neither shape is simply absent.

// tagBlock returns the inner content of the first <tag ...>...</tag> element
// in s. It tolerates attributes on the opening tag. Self-closing elements
// yield an empty inner string.
func tagBlock(s, tag string) (string, bool) {
	open := "<" + tag
	idx := 0
	for {
		i := strings.Index(s[idx:], open)
		if i < 0 {
			return "", false
		}
		i += idx
		// The match must be a whole tag name, not a prefix of a longer one.
		rest := s[i+len(open):]
		if len(rest) == 0 {
			return "", false
		}
		if c := rest[0]; c != '>' && c != ' ' && c != '\t' && c != '\n' && c != '\r' && c != '/' {
			idx = i + len(open)
			continue
		}
		gt := strings.IndexByte(rest, '>')
		if gt < 0 {
			return "", false
		}
		if gt > 0 && rest[gt-1] == '/' {
			return "", true // self-closing
		}
		inner := rest[gt+1:]
		end := strings.Index(inner, "</"+tag+">")
		if end < 0 {
			return "", false
		}
		return inner[:end], true
	}
}

// tagBlocks returns the inner content of every <tag>...</tag> element in s,
// in document order.
func tagBlocks(s, tag string) []string {
	var blocks []string
	rest := s
	for {
		inner, ok := tagBlock(rest, tag)
		if !ok {
			break
		}
		blocks = append(blocks, inner)
		end := strings.Index(rest, "</"+tag+">")
		if end < 0 {
			break
		}
		rest = rest[end+len(tag)+3:]
	}
	return blocks
}

// fieldText extracts the text of a named field from block using the two-tier
// policy: a nested <value> wrapper wins over direct text content. The bool is
// false when the field is missing or empty; an empty string is never reported
// as present.
func fieldText(block, tag string) (string, bool) {
	inner, ok := tagBlock(block, tag)
	if !ok {
		return "", false
	}
	if v, ok := tagBlock(inner, "value"); ok {
		v = strings.TrimSpace(v)
		return v, v != ""
	}
	inner = strings.TrimSpace(inner)
	if inner == "" || strings.HasPrefix(inner, "<") {
		return "", false
	}
	return inner, true
}

// fieldFloat extracts a numeric field. Unparseable text is treated the same
// as an absent field.
func fieldFloat(block, tag string) (float64, bool) {
	s, ok := fieldText(block, tag)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// fieldDate extracts an ISO date field (YYYY-MM-DD).
func fieldDate(block, tag string) (time.Time, bool) {
	s, ok := fieldText(block, tag)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// optional turns a (value, present) pair into a pointer, preserving the
// absent-vs-empty distinction through the domain layer.
func optional(s string, ok bool) *string {
	if !ok {
		return nil
	}
	return &s
}

// footnoteRef returns the id of the first footnote reference attribute on the
// block, e.g. <footnoteId id="F1"/>.
func footnoteRef(block string) (string, bool) {
	i := strings.Index(block, "<footnoteId")
	if i < 0 {
		return "", false
	}
	rest := block[i:]
	j := strings.Index(rest, `id="`)
	if j < 0 {
		return "", false
	}
	rest = rest[j+len(`id="`):]
	k := strings.IndexByte(rest, '"')
	if k <= 0 {
		return "", false
	}
	return rest[:k], true
}

// footnoteText returns the text of the footnote with the given id anywhere in
// the document, or false if no such footnote exists.
func footnoteText(doc, id string) (string, bool) {
	rest := doc
	for {
		i := strings.Index(rest, "<footnote ")
		if i < 0 {
			return "", false
		}
		rest = rest[i:]
		gt := strings.IndexByte(rest, '>')
		if gt < 0 {
			return "", false
		}
		openTag := rest[:gt]
		end := strings.Index(rest, "</footnote>")
		if end < 0 {
			return "", false
		}
		if strings.Contains(openTag, `id="`+id+`"`) {
			return rest[gt+1 : end], true
		}
		rest = rest[end+len("</footnote>"):]
	}
}

// canonicalCIK strips leading zeros so numeric identifiers compare in their
// minimal decimal form. An all-zero input canonicalizes to "0".
func canonicalCIK(cik string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(cik), "0")
	if trimmed == "" && cik != "" {
		return "0"
	}
	return trimmed
}
