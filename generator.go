package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

//go:embed prompts/planner-system-prompt.md
var plannerSystemPrompt string

//go:embed prompts/writer-system-prompt.md
var writerSystemPrompt string

//go:embed prompts/planner-output-schema.json
var plannerSchema string

// Request settings per stage. The planner wants deterministic structure, the
// writer some variation.
const (
	plannerMaxTokens   = 1500
	plannerTemperature = 0.1
	writerMaxTokens    = 6000
	writerTemperature  = 0.4

	// How far outside [min_words, max_words] a draft may land before the
	// single re-request with adjusted instructions.
	wordBoundTolerance = 0.2
)

// ContentGenerator runs the plan and draft stages against the language model.
type ContentGenerator struct {
	llm    LanguageModelClient
	cfg    *Config
	logger *slog.Logger
}

func NewContentGenerator(llm LanguageModelClient, cfg *Config, logger *slog.Logger) *ContentGenerator {
	return &ContentGenerator{
		llm:    llm,
		cfg:    cfg,
		logger: logger.With("component", "generator"),
	}
}

// Plan asks the model for a structured article outline for the task's
// keyword. contextText is optional planner input (the task's context
// annotation, or the fetched content of a context URL).
func (g *ContentGenerator) Plan(task KeywordTask, contextText string) (*ContentPlan, error) {
	g.logger.Info("→ planning", "keyword", task.Keyword)

	prompt := fmt.Sprintf("Target keyword: %q", task.Keyword)
	if contextText != "" {
		prompt += fmt.Sprintf("\n\nContext:\n%s", contextText)
	}

	text, err := g.llm.Complete(CompletionRequest{
		System:      plannerSystemPrompt,
		Prompt:      prompt,
		Schema:      strings.TrimSpace(plannerSchema),
		MaxTokens:   plannerMaxTokens,
		Temperature: plannerTemperature,
	})
	if err != nil {
		return nil, &GenerationError{Stage: "plan", Err: err}
	}

	var plan ContentPlan
	if err := json.Unmarshal(extractJSON(text), &plan); err != nil {
		return nil, &GenerationError{Stage: "plan", Err: fmt.Errorf("parsing plan JSON: %w", err)}
	}

	if plan.Title == "" || len(plan.Subtopics) == 0 {
		return nil, &GenerationError{Stage: "plan", Err: fmt.Errorf("empty or incomplete outline")}
	}

	g.logger.Info("✓ planned", "title", plan.Title, "subtopics", len(plan.Subtopics))
	return &plan, nil
}

// Draft expands the plan into a full HTML article within the configured word
// bounds. A draft far outside the bounds is re-requested exactly once with
// adjusted instructions; a second miss is accepted with a warning.
func (g *ContentGenerator) Draft(plan *ContentPlan, task KeywordTask) (*GeneratedPost, error) {
	g.logger.Info("→ drafting", "title", plan.Title)

	prompt := g.writerPrompt(plan, task, "")
	body, err := g.requestDraft(prompt)
	if err != nil {
		return nil, err
	}

	words := countWords(body)
	if g.farOutsideBounds(words) {
		adjustment := fmt.Sprintf(
			"The previous draft had %d words. Rewrite it so the body has between %d and %d words.",
			words, g.cfg.Content.MinWords, g.cfg.Content.MaxWords)
		g.logger.Warn("draft outside word bounds, re-requesting once",
			"words", words, "min", g.cfg.Content.MinWords, "max", g.cfg.Content.MaxWords)

		body, err = g.requestDraft(g.writerPrompt(plan, task, adjustment))
		if err != nil {
			return nil, err
		}
		words = countWords(body)
	}

	if words < g.cfg.Content.MinWords || words > g.cfg.Content.MaxWords {
		g.logger.Warn("accepting draft outside word bounds", "words", words,
			"min", g.cfg.Content.MinWords, "max", g.cfg.Content.MaxWords)
	}

	post := &GeneratedPost{
		Title:           plan.Title,
		Body:            body,
		Keyword:         task.Keyword,
		MetaDescription: plan.MetaDescription,
		WordCount:       words,
	}

	g.logger.Info("✓ drafted", "title", post.Title, "words", words)
	return post, nil
}

func (g *ContentGenerator) requestDraft(prompt string) (string, error) {
	text, err := g.llm.Complete(CompletionRequest{
		System:      writerSystemPrompt,
		Prompt:      prompt,
		MaxTokens:   writerMaxTokens,
		Temperature: writerTemperature,
	})
	if err != nil {
		return "", &GenerationError{Stage: "draft", Err: err}
	}

	body := stripCodeFences(strings.TrimSpace(text))
	if body == "" {
		return "", &GenerationError{Stage: "draft", Err: fmt.Errorf("empty draft")}
	}
	return body, nil
}

func (g *ContentGenerator) writerPrompt(plan *ContentPlan, task KeywordTask, adjustment string) string {
	planJSON, _ := json.Marshal(plan)

	prompt := fmt.Sprintf(`Write the article described by this plan:

%s

Main keyword: %s
Target length: %d to %d words.`,
		string(planJSON), task.Keyword, g.cfg.Content.MinWords, g.cfg.Content.MaxWords)

	if adjustment != "" {
		prompt += "\n\n" + adjustment
	}
	return prompt
}

func (g *ContentGenerator) farOutsideBounds(words int) bool {
	lower := int(float64(g.cfg.Content.MinWords) * (1 - wordBoundTolerance))
	upper := int(float64(g.cfg.Content.MaxWords) * (1 + wordBoundTolerance))
	return words < lower || words > upper
}

var (
	jsonFenceRegex = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	jsonBlockRegex = regexp.MustCompile(`(?s)(\{.*\})`)
	htmlFenceRegex = regexp.MustCompile("(?s)^```(?:html)?\\s*(.*?)\\s*```$")
)

// extractJSON pulls a JSON object out of model output that may wrap it in a
// markdown code fence or surround it with prose.
func extractJSON(text string) []byte {
	if m := jsonFenceRegex.FindStringSubmatch(text); m != nil {
		return []byte(m[1])
	}
	if m := jsonBlockRegex.FindStringSubmatch(text); m != nil {
		return []byte(m[1])
	}
	return []byte(text)
}

// stripCodeFences unwraps a body the model returned inside a ``` block.
func stripCodeFences(text string) string {
	if m := htmlFenceRegex.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}
