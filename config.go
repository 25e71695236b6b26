package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Config is the immutable run configuration, loaded once from an INI file.
type Config struct {
	OpenAI    OpenAIConfig
	WordPress WordPressConfig
	Keywords  KeywordsConfig
	Content   ContentConfig
	CTA       CTAConfig
	Images    ImagesConfig
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type WordPressConfig struct {
	SiteURL     string
	Username    string
	AppPassword string
	Timeout     time.Duration
}

type KeywordsConfig struct {
	File string
}

type ContentConfig struct {
	PostsPerRun       int
	MinWords          int
	MaxWords          int
	TargetCategory    string
	Status            string
	DelayBetweenPosts time.Duration
}

type CTAConfig struct {
	URL  string
	Text string
}

type ImagesConfig struct {
	Enabled bool
	Model   string
	Size    string
}

// requiredFields lists section/key pairs that must be non-empty before any
// network call is attempted.
var requiredFields = [][2]string{
	{"OpenAI", "api_key"},
	{"WordPress", "site_url"},
	{"WordPress", "username"},
	{"WordPress", "app_password"},
}

// LoadConfig reads and validates the configuration file. A .env file, when
// present, is loaded first; OPENAI_API_KEY and WORDPRESS_APP_PASSWORD
// environment variables override the file so credentials can stay out of it.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	if _, err := os.Stat(path); err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("file %s not found", path), Err: err}
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, &ConfigError{Reason: "malformed file", Err: err}
	}

	for _, name := range []string{"OpenAI", "WordPress", "Keywords", "Content", "CTA"} {
		if _, err := file.GetSection(name); err != nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("missing section [%s]", name)}
		}
	}

	cfg := &Config{
		OpenAI: OpenAIConfig{
			APIKey:  file.Section("OpenAI").Key("api_key").String(),
			Model:   file.Section("OpenAI").Key("model").MustString("gpt-4o-mini"),
			Timeout: time.Duration(file.Section("OpenAI").Key("timeout_seconds").MustInt(60)) * time.Second,
		},
		WordPress: WordPressConfig{
			SiteURL:     file.Section("WordPress").Key("site_url").String(),
			Username:    file.Section("WordPress").Key("username").String(),
			AppPassword: file.Section("WordPress").Key("app_password").String(),
			Timeout:     time.Duration(file.Section("WordPress").Key("timeout_seconds").MustInt(30)) * time.Second,
		},
		Keywords: KeywordsConfig{
			File: file.Section("Keywords").Key("file").MustString("keywords.txt"),
		},
		Content: ContentConfig{
			PostsPerRun:       file.Section("Content").Key("posts_per_run").MustInt(1),
			MinWords:          file.Section("Content").Key("min_words").MustInt(800),
			MaxWords:          file.Section("Content").Key("max_words").MustInt(1500),
			TargetCategory:    file.Section("Content").Key("target_category").String(),
			Status:            file.Section("Content").Key("status").MustString("draft"),
			DelayBetweenPosts: time.Duration(file.Section("Content").Key("delay_between_posts").MustInt(5)) * time.Second,
		},
		CTA: CTAConfig{
			URL:  file.Section("CTA").Key("url").String(),
			Text: file.Section("CTA").Key("text").MustString("Quero Crescer"),
		},
		Images: ImagesConfig{
			Enabled: file.Section("Images").Key("enabled").MustBool(false),
			Model:   file.Section("Images").Key("model").MustString("dall-e-3"),
			Size:    file.Section("Images").Key("size").MustString("1024x1024"),
		},
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("WORDPRESS_APP_PASSWORD"); v != "" {
		cfg.WordPress.AppPassword = v
	}

	if err := validateConfig(file, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateConfig(file *ini.File, cfg *Config) error {
	var missing []string
	for _, field := range requiredFields {
		section, key := field[0], field[1]
		value := file.Section(section).Key(key).String()

		// Env overrides satisfy the credential requirements.
		if section == "OpenAI" && key == "api_key" {
			value = cfg.OpenAI.APIKey
		}
		if section == "WordPress" && key == "app_password" {
			value = cfg.WordPress.AppPassword
		}

		if value == "" {
			missing = append(missing, section+"."+key)
		}
	}
	if len(missing) > 0 {
		return &ConfigError{Reason: fmt.Sprintf("missing required fields: %v", missing)}
	}

	if cfg.Content.MinWords > cfg.Content.MaxWords {
		return &ConfigError{Reason: fmt.Sprintf("min_words (%d) exceeds max_words (%d)",
			cfg.Content.MinWords, cfg.Content.MaxWords)}
	}

	if cfg.Content.Status != "draft" && cfg.Content.Status != "publish" {
		return &ConfigError{Reason: fmt.Sprintf("status must be draft or publish, got %q", cfg.Content.Status)}
	}

	return nil
}
