package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const imagesEndpoint = "https://api.openai.com/v1/images/generations"

// ImageGenerator produces a featured image for a post via the OpenAI images
// API. Optional; any failure here only costs the post its image.
type ImageGenerator struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	size       string
	logger     *slog.Logger
}

func NewImageGenerator(openAI OpenAIConfig, images ImagesConfig, logger *slog.Logger) *ImageGenerator {
	return &ImageGenerator{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		endpoint:   imagesEndpoint,
		apiKey:     openAI.APIKey,
		model:      images.Model,
		size:       images.Size,
		logger:     logger.With("component", "images"),
	}
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// GenerateFeaturedImage returns PNG bytes and a filename for a post's
// featured image.
func (g *ImageGenerator) GenerateFeaturedImage(ctx context.Context, title, keyword string) ([]byte, string, error) {
	prompt := fmt.Sprintf(
		"Create a professional, modern featured image for a blog post titled %q. "+
			"The image should be relevant to %q, visually appealing, with good composition and lighting. "+
			"No text overlay. Photorealistic or professional stock photo style.",
		title, keyword)

	body, err := json.Marshal(imageRequest{
		Model:          g.model,
		Prompt:         prompt,
		N:              1,
		Size:           g.size,
		ResponseFormat: "b64_json",
	})
	if err != nil {
		return nil, "", fmt.Errorf("encoding image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("creating image request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	g.logger.Info("→ generating featured image", "title", title)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("image generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &HTTPError{StatusCode: resp.StatusCode, URL: g.endpoint}
	}

	var decoded imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, "", fmt.Errorf("decoding image response: %w", err)
	}
	if len(decoded.Data) == 0 || decoded.Data[0].B64JSON == "" {
		return nil, "", fmt.Errorf("no image in response")
	}

	data, err := base64.StdEncoding.DecodeString(decoded.Data[0].B64JSON)
	if err != nil {
		return nil, "", fmt.Errorf("decoding image data: %w", err)
	}

	filename := generateSlug(title) + ".png"
	g.logger.Info("✓ image generated", "filename", filename, "bytes", len(data))
	return data, filename, nil
}
