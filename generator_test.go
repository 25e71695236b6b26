package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

// fakeLLM returns canned responses in order, repeating the last one.
type fakeLLM struct {
	responses []string
	err       error
	requests  []CompletionRequest
}

func (f *fakeLLM) Complete(req CompletionRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	idx := len(f.requests) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *Config {
	return &Config{
		Content: ContentConfig{MinWords: 10, MaxWords: 30},
		CTA:     CTAConfig{URL: "https://example.com/offer", Text: "Learn more"},
	}
}

const planJSON = `{
	"title": "SEO for Beginners: The Complete Guide",
	"subtopics": ["What is SEO", "Keyword research", "On-page basics", "Link building", "Measuring results"],
	"secondary_keywords": ["organic traffic", "search ranking"],
	"faqs": ["How long does SEO take?"],
	"meta_description": "Learn SEO from scratch with this complete beginner guide."
}`

func wordsHTML(n int) string {
	return "<p>" + strings.TrimSpace(strings.Repeat("word ", n)) + "</p>"
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"raw json", planJSON},
		{"fenced json", "```json\n" + planJSON + "\n```"},
		{"json with prose", "Here is the plan:\n" + planJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{responses: []string{tt.response}}
			g := NewContentGenerator(llm, testConfig(), testLogger())

			plan, err := g.Plan(KeywordTask{Keyword: "seo para iniciantes"}, "")
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}

			if plan.Title != "SEO for Beginners: The Complete Guide" {
				t.Errorf("Plan() title = %q", plan.Title)
			}
			if len(plan.Subtopics) != 5 {
				t.Errorf("Plan() subtopics = %d, want 5", len(plan.Subtopics))
			}
			if len(llm.requests) != 1 {
				t.Fatalf("Plan() made %d requests, want 1", len(llm.requests))
			}
			if llm.requests[0].Schema == "" {
				t.Error("Plan() did not request structured output")
			}
			if !strings.Contains(llm.requests[0].Prompt, "seo para iniciantes") {
				t.Error("Plan() prompt does not embed the keyword")
			}
		})
	}
}

func TestPlanEmbedsContext(t *testing.T) {
	llm := &fakeLLM{responses: []string{planJSON}}
	g := NewContentGenerator(llm, testConfig(), testLogger())

	_, err := g.Plan(KeywordTask{Keyword: "seo"}, "audience: small business owners")
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if !strings.Contains(llm.requests[0].Prompt, "small business owners") {
		t.Error("Plan() prompt does not embed the context")
	}
}

func TestPlanErrors(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
	}{
		{"api failure", &fakeLLM{err: errors.New("boom")}},
		{"unparseable outline", &fakeLLM{responses: []string{"not json at all"}}},
		{"empty title", &fakeLLM{responses: []string{`{"title": "", "subtopics": ["a"]}`}}},
		{"no subtopics", &fakeLLM{responses: []string{`{"title": "A", "subtopics": []}`}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewContentGenerator(tt.llm, testConfig(), testLogger())

			_, err := g.Plan(KeywordTask{Keyword: "seo"}, "")
			if err == nil {
				t.Fatal("Plan() expected error")
			}

			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("Plan() error = %T, want *GenerationError", err)
			}
			if genErr.Stage != "plan" {
				t.Errorf("Plan() error stage = %q, want plan", genErr.Stage)
			}
		})
	}
}

func TestDraftWithinBounds(t *testing.T) {
	llm := &fakeLLM{responses: []string{wordsHTML(20)}}
	g := NewContentGenerator(llm, testConfig(), testLogger())

	plan := &ContentPlan{Title: "A Title", Subtopics: []string{"one"}, MetaDescription: "desc"}
	post, err := g.Draft(plan, KeywordTask{Keyword: "seo"})
	if err != nil {
		t.Fatalf("Draft() error = %v", err)
	}

	if post.Title != "A Title" {
		t.Errorf("Draft() title = %q", post.Title)
	}
	if post.WordCount != 20 {
		t.Errorf("Draft() word count = %d, want 20", post.WordCount)
	}
	if post.MetaDescription != "desc" {
		t.Errorf("Draft() meta description = %q", post.MetaDescription)
	}
	if len(llm.requests) != 1 {
		t.Errorf("Draft() made %d requests, want 1 (no retry inside bounds)", len(llm.requests))
	}
}

func TestDraftRetriesOnceWhenFarOutsideBounds(t *testing.T) {
	// 3 words is far below min_words=10; the retry comes back compliant.
	llm := &fakeLLM{responses: []string{wordsHTML(3), wordsHTML(15)}}
	g := NewContentGenerator(llm, testConfig(), testLogger())

	plan := &ContentPlan{Title: "A Title", Subtopics: []string{"one"}}
	post, err := g.Draft(plan, KeywordTask{Keyword: "seo"})
	if err != nil {
		t.Fatalf("Draft() error = %v", err)
	}

	if len(llm.requests) != 2 {
		t.Fatalf("Draft() made %d requests, want 2", len(llm.requests))
	}
	if !strings.Contains(llm.requests[1].Prompt, "Rewrite") {
		t.Error("retry prompt lacks adjusted instructions")
	}
	if post.WordCount != 15 {
		t.Errorf("Draft() word count = %d, want 15", post.WordCount)
	}
}

func TestDraftAcceptsAfterSingleRetry(t *testing.T) {
	// Both attempts miss the bounds: accepted with a warning, no third call.
	llm := &fakeLLM{responses: []string{wordsHTML(3), wordsHTML(4)}}
	g := NewContentGenerator(llm, testConfig(), testLogger())

	plan := &ContentPlan{Title: "A Title", Subtopics: []string{"one"}}
	post, err := g.Draft(plan, KeywordTask{Keyword: "seo"})
	if err != nil {
		t.Fatalf("Draft() error = %v", err)
	}

	if len(llm.requests) != 2 {
		t.Fatalf("Draft() made %d requests, want 2 (retry capped at one)", len(llm.requests))
	}
	if post.WordCount != 4 {
		t.Errorf("Draft() word count = %d, want 4", post.WordCount)
	}
}

func TestDraftStripsCodeFences(t *testing.T) {
	body := wordsHTML(15)
	llm := &fakeLLM{responses: []string{"```html\n" + body + "\n```"}}
	g := NewContentGenerator(llm, testConfig(), testLogger())

	plan := &ContentPlan{Title: "A Title", Subtopics: []string{"one"}}
	post, err := g.Draft(plan, KeywordTask{Keyword: "seo"})
	if err != nil {
		t.Fatalf("Draft() error = %v", err)
	}

	if strings.Contains(post.Body, "```") {
		t.Errorf("Draft() body still fenced: %q", post.Body)
	}
	if post.Body != body {
		t.Errorf("Draft() body = %q, want %q", post.Body, body)
	}
}

func TestDraftErrors(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
	}{
		{"api failure", &fakeLLM{err: errors.New("boom")}},
		{"empty draft", &fakeLLM{responses: []string{"   "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewContentGenerator(tt.llm, testConfig(), testLogger())

			plan := &ContentPlan{Title: "A Title", Subtopics: []string{"one"}}
			_, err := g.Draft(plan, KeywordTask{Keyword: "seo"})
			if err == nil {
				t.Fatal("Draft() expected error")
			}

			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("Draft() error = %T, want *GenerationError", err)
			}
			if genErr.Stage != "draft" {
				t.Errorf("Draft() error stage = %q, want draft", genErr.Stage)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounded by prose", "result:\n{\"a\": 1}\nthanks", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(extractJSON(tt.text)); got != tt.expected {
				t.Errorf("extractJSON() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestWriterPromptEmbedsBounds(t *testing.T) {
	llm := &fakeLLM{responses: []string{wordsHTML(15)}}
	g := NewContentGenerator(llm, testConfig(), testLogger())

	plan := &ContentPlan{Title: "A Title", Subtopics: []string{"one"}}
	if _, err := g.Draft(plan, KeywordTask{Keyword: "seo"}); err != nil {
		t.Fatalf("Draft() error = %v", err)
	}

	prompt := llm.requests[0].Prompt
	if !strings.Contains(prompt, fmt.Sprintf("%d to %d words", 10, 30)) {
		t.Errorf("writer prompt lacks word bounds: %q", prompt)
	}
	if !strings.Contains(prompt, "A Title") {
		t.Error("writer prompt lacks the plan")
	}
}
