package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// The keyword should appear at least once per this many words of body text,
// and always at least once.
const wordsPerKeywordOccurrence = 150

// OptimizePost is the deterministic local pass after drafting: it tops up the
// keyword density when the draft came in under the target and appends the
// call-to-action block. Pure function of its inputs; the input post is not
// modified. No network calls.
func OptimizePost(post *GeneratedPost, task KeywordTask, cta CTAConfig) (*GeneratedPost, error) {
	if post == nil {
		return nil, fmt.Errorf("optimize: nil post")
	}

	body := post.Body
	text := extractText(body)
	words := len(strings.Fields(text))

	target := words / wordsPerKeywordOccurrence
	if target < 1 {
		target = 1
	}

	if keywordOccurrences(text, task.Keyword) < target {
		body += fmt.Sprintf("\n<p>To get the most out of %s, start applying these ideas today.</p>", task.Keyword)
	}

	// The CTA block is appended once; a body already linking the CTA URL
	// keeps its existing block.
	if cta.URL != "" && !strings.Contains(body, cta.URL) {
		body += fmt.Sprintf("\n<p><a href=%q target=\"_blank\">%s</a></p>", cta.URL, cta.Text)
	}

	optimized := *post
	optimized.Body = body
	optimized.WordCount = countWords(body)
	return &optimized, nil
}

// extractText strips HTML tags, returning the rendered text.
func extractText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return doc.Text()
}

// countWords counts words in an HTML fragment after stripping tags.
func countWords(html string) int {
	return len(strings.Fields(extractText(html)))
}

// keywordOccurrences counts case-insensitive whole-word occurrences of
// keyword in text. Multi-word keywords match as a phrase.
func keywordOccurrences(text, keyword string) int {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return 0
	}
	pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
	return len(pattern.FindAllStringIndex(text, -1))
}
