// Package moderation classifies user content before it is published.
package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"epsylon/internal/middleware"
	"epsylon/internal/models"
	"epsylon/internal/observability"
)

// Classifier returns a verdict for a piece of user content. Implementations
// must never return an error for a transient failure; they fall back to
// VerdictReview instead so publishing never blocks on moderation uptime.
type Classifier interface {
	Classify(ctx context.Context, content string) models.Verdict
}

// Config holds the classifier endpoint settings.
type Config struct {
	URL      string
	APIKey   string
	Model    string
	Timeout  time.Duration
	Disabled bool
}

const systemPrompt = "You are a content safety classifier for a social platform. " +
	"Respond with exactly one word: \"safe\" if the content is acceptable, " +
	"\"unsafe\" if it contains hate speech, harassment, threats, or sexual content involving minors."

// httpClassifier calls an OpenAI-style chat completions endpoint.
type httpClassifier struct {
	cfg    Config
	client *http.Client
}

// NewClassifier creates a classifier backed by the configured endpoint.
// When cfg.Disabled is set or no URL is configured, every verdict is safe.
func NewClassifier(cfg Config) Classifier {
	if cfg.Disabled || cfg.URL == "" {
		return disabledClassifier{}
	}
	return &httpClassifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type disabledClassifier struct{}

func (disabledClassifier) Classify(context.Context, string) models.Verdict {
	return models.VerdictSafe
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Classify asks the endpoint for a one-word verdict. Only a literal "unsafe"
// answer blocks content; any other answer is safe, and any transport or
// decode failure degrades to review so a moderation outage never takes
// publishing down with it.
func (c *httpClassifier) Classify(ctx context.Context, content string) models.Verdict {
	verdict := c.classify(ctx, content)
	observability.ModerationVerdicts.WithLabelValues(string(verdict)).Inc()
	return verdict
}

func (c *httpClassifier) classify(ctx context.Context, content string) models.Verdict {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: content},
		},
	})
	if err != nil {
		return c.review(ctx, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return c.review(ctx, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return c.review(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.review(ctx, fmt.Errorf("classifier returned status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return c.review(ctx, err)
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return c.review(ctx, err)
	}
	if len(decoded.Choices) == 0 {
		return c.review(ctx, fmt.Errorf("classifier returned no choices"))
	}

	answer := strings.ToLower(strings.TrimSpace(decoded.Choices[0].Message.Content))
	if answer == "unsafe" {
		return models.VerdictUnsafe
	}
	return models.VerdictSafe
}

func (c *httpClassifier) review(ctx context.Context, err error) models.Verdict {
	middleware.Logger.WarnContext(ctx, "moderation classifier unavailable, passing content through for review",
		slog.String("error", err.Error()),
	)
	return models.VerdictReview
}
