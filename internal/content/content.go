// Package content holds text helpers for post bodies: plain-text
// extraction, read time, excerpts, slugs and author initials.
package content

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	// WordsPerMinute is the reading speed behind ReadTime.
	WordsPerMinute = 200
	ellipsis       = "..."
)

var (
	spaceRun   = regexp.MustCompile(`\s+`)
	nonWord    = regexp.MustCompile(`[^\w-]+`)
	hyphenRuns = regexp.MustCompile(`-{2,}`)
)

// PlainText returns the visible text of an HTML fragment with whitespace
// collapsed. Input that is not HTML is returned with whitespace collapsed.
func PlainText(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return collapse(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return collapse(html)
	}
	doc.Find("script, style, noscript").Remove()
	// Separate block elements so words from adjacent paragraphs do not merge.
	doc.Find("p, div, li, br, h1, h2, h3, h4, h5, h6, blockquote, pre, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return collapse(doc.Text())
}

// FirstImage returns the src of the first img in an HTML fragment.
func FirstImage(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if node := doc.Find("img[src]").First(); node.Length() > 0 {
		if val, ok := node.Attr("src"); ok {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

// WordCount counts whitespace separated words of the plain text.
func WordCount(html string) int {
	return len(strings.Fields(PlainText(html)))
}

// ReadTime estimates minutes to read content at WordsPerMinute, rounded up.
// Empty content takes 0 minutes, anything else at least 1.
func ReadTime(html string) int {
	words := WordCount(html)
	if words == 0 {
		return 0
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// Truncate cuts text to max runes and appends "..." when it was longer.
func Truncate(text string, max int) string {
	if max < 0 {
		max = 0
	}
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max]) + ellipsis
}

// Excerpt derives a summary of at most max runes (plus "...") from post
// content, cutting at a word boundary when one is available.
func Excerpt(html string, max int) string {
	text := PlainText(html)
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)[:max]
	cut := strings.LastIndexFunc(string(runes), unicode.IsSpace)
	if cut > 0 {
		return strings.TrimRightFunc(string(runes)[:cut], unicode.IsPunct) + ellipsis
	}
	return string(runes) + ellipsis
}

// Slugify lowercases text and keeps only word characters separated by
// single hyphens; "&" becomes "and".
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = spaceRun.ReplaceAllString(s, "-")
	s = strings.ReplaceAll(s, "&", "-and-")
	s = nonWord.ReplaceAllString(s, "")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return s
}

// Initials returns the upper-cased first letters of the first and last
// words of name, or the first letter of a single word name.
func Initials(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(firstRune(parts[0]))
	default:
		return strings.ToUpper(firstRune(parts[0]) + firstRune(parts[len(parts)-1]))
	}
}

// FormatDate renders t like "January 2, 2006"; the zero time renders empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

func firstRune(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return ""
	}
	return string(r)
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
