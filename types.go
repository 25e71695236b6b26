package main

import "time"

// KeywordTask is one unit of work: a target keyword for which one post is
// generated and published. Context is optional free text after the colon in
// the keyword file; when it is a URL the page content becomes planner input.
type KeywordTask struct {
	Keyword string
	Context string
}

// ContentPlan is the planner's outline for a single keyword. It guides the
// writer and is discarded once the draft exists.
type ContentPlan struct {
	Title             string   `json:"title"`
	Subtopics         []string `json:"subtopics"`
	SecondaryKeywords []string `json:"secondary_keywords"`
	FAQs              []string `json:"faqs"`
	MetaDescription   string   `json:"meta_description"`
}

// GeneratedPost is the article produced for a keyword, ready to publish.
type GeneratedPost struct {
	Title           string
	Body            string // HTML
	Keyword         string
	MetaDescription string
	WordCount       int
}

// PublishResult identifies the post created in WordPress.
type PublishResult struct {
	ID   int    `json:"id"`
	Link string `json:"link"`
}

// TaskStatus represents the outcome of processing one keyword task.
type TaskStatus string

const (
	StatusOK     TaskStatus = "ok"
	StatusFailed TaskStatus = "failed"
)

// TaskResult tracks the outcome of one keyword task, including the stage at
// which it failed.
type TaskResult struct {
	Keyword string     `yaml:"keyword"`
	Status  TaskStatus `yaml:"status"`
	Stage   string     `yaml:"stage,omitempty"`
	PostID  int        `yaml:"post_id,omitempty"`
	Link    string     `yaml:"link,omitempty"`
	Error   string     `yaml:"error,omitempty"`
}

// RunSummary is the report for a whole run, written as YAML next to the logs.
type RunSummary struct {
	StartedAt  time.Time    `yaml:"started_at"`
	FinishedAt time.Time    `yaml:"finished_at"`
	Succeeded  int          `yaml:"succeeded"`
	Failed     int          `yaml:"failed"`
	Results    []TaskResult `yaml:"results"`
}
