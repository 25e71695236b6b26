package main

import (
	"fmt"
	"strings"
	"testing"
)

var testCTA = CTAConfig{URL: "https://example.com/offer", Text: "Learn more"}

func TestOptimizePostAddsMissingKeyword(t *testing.T) {
	post := &GeneratedPost{
		Title:   "A Guide",
		Body:    "<p>This body never mentions the target phrase at all.</p>",
		Keyword: "link building",
	}

	optimized, err := OptimizePost(post, KeywordTask{Keyword: "link building"}, testCTA)
	if err != nil {
		t.Fatalf("OptimizePost() error = %v", err)
	}

	if keywordOccurrences(extractText(optimized.Body), "link building") < 1 {
		t.Error("optimized body does not contain the keyword")
	}
}

func TestOptimizePostKeywordAlreadyDense(t *testing.T) {
	body := "<p>Link building matters. Good link building takes time.</p>"
	post := &GeneratedPost{Title: "t", Body: body, Keyword: "link building"}

	optimized, err := OptimizePost(post, KeywordTask{Keyword: "link building"}, testCTA)
	if err != nil {
		t.Fatalf("OptimizePost() error = %v", err)
	}

	if strings.Contains(optimized.Body, "start applying these ideas") {
		t.Error("density sentence appended although the keyword was already present")
	}
}

func TestOptimizePostDensityTarget(t *testing.T) {
	// 300+ words with a single keyword occurrence is under the
	// once-per-150-words target.
	filler := strings.Repeat("filler words keep coming here today ", 50)
	body := fmt.Sprintf("<p>%s seo audit %s</p>", filler, filler)
	post := &GeneratedPost{Title: "t", Body: body, Keyword: "seo audit"}

	optimized, err := OptimizePost(post, KeywordTask{Keyword: "seo audit"}, testCTA)
	if err != nil {
		t.Fatalf("OptimizePost() error = %v", err)
	}

	if keywordOccurrences(extractText(optimized.Body), "seo audit") < 2 {
		t.Error("expected a keyword top-up for a long body with one occurrence")
	}
}

func TestOptimizePostCTAIdempotent(t *testing.T) {
	post := &GeneratedPost{
		Title:   "t",
		Body:    "<p>Some content about seo.</p>",
		Keyword: "seo",
	}
	task := KeywordTask{Keyword: "seo"}

	once, err := OptimizePost(post, task, testCTA)
	if err != nil {
		t.Fatalf("first OptimizePost() error = %v", err)
	}
	twice, err := OptimizePost(once, task, testCTA)
	if err != nil {
		t.Fatalf("second OptimizePost() error = %v", err)
	}

	if got := strings.Count(twice.Body, testCTA.URL); got != 1 {
		t.Errorf("CTA URL appears %d times after two passes, want 1", got)
	}
	if twice.Body != once.Body {
		t.Error("second pass changed an already optimized body")
	}
}

func TestOptimizePostCTAAppended(t *testing.T) {
	post := &GeneratedPost{Title: "t", Body: "<p>seo content</p>", Keyword: "seo"}

	optimized, err := OptimizePost(post, KeywordTask{Keyword: "seo"}, testCTA)
	if err != nil {
		t.Fatalf("OptimizePost() error = %v", err)
	}

	if !strings.Contains(optimized.Body, `<a href="https://example.com/offer"`) {
		t.Error("CTA anchor missing from optimized body")
	}
	if !strings.Contains(optimized.Body, "Learn more") {
		t.Error("CTA text missing from optimized body")
	}
}

func TestOptimizePostNoCTAConfigured(t *testing.T) {
	post := &GeneratedPost{Title: "t", Body: "<p>seo content</p>", Keyword: "seo"}

	optimized, err := OptimizePost(post, KeywordTask{Keyword: "seo"}, CTAConfig{})
	if err != nil {
		t.Fatalf("OptimizePost() error = %v", err)
	}

	if strings.Contains(optimized.Body, "<a href") {
		t.Error("CTA appended although no CTA URL is configured")
	}
}

func TestOptimizePostNilPost(t *testing.T) {
	if _, err := OptimizePost(nil, KeywordTask{Keyword: "seo"}, testCTA); err == nil {
		t.Error("OptimizePost(nil) expected error")
	}
}

func TestOptimizePostDoesNotMutateInput(t *testing.T) {
	post := &GeneratedPost{Title: "t", Body: "<p>unrelated</p>", Keyword: "seo"}
	original := post.Body

	if _, err := OptimizePost(post, KeywordTask{Keyword: "seo"}, testCTA); err != nil {
		t.Fatalf("OptimizePost() error = %v", err)
	}

	if post.Body != original {
		t.Error("OptimizePost() mutated its input")
	}
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected int
	}{
		{"plain text", "one two three", 3},
		{"tags stripped", "<h2>Heading here</h2><p>body text follows</p>", 5},
		{"empty", "", 0},
		{"attributes ignored", `<a href="https://example.com">click here</a>`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countWords(tt.html); got != tt.expected {
				t.Errorf("countWords() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestKeywordOccurrences(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keyword  string
		expected int
	}{
		{"case insensitive", "SEO tips for Seo and seo", "seo", 3},
		{"whole word only", "workseo and seowork do not count", "seo", 0},
		{"multi word phrase", "marketing digital guide to marketing digital", "marketing digital", 2},
		{"empty keyword", "anything", "", 0},
		{"absent", "nothing relevant", "seo", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keywordOccurrences(tt.text, tt.keyword); got != tt.expected {
				t.Errorf("keywordOccurrences() = %d, want %d", got, tt.expected)
			}
		})
	}
}
