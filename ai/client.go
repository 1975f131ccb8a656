// Package ai talks to the text generation service used for flashcard and
// word cloud suggestions.
package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/andrewpaige1/mindflow-api/logging"
	"github.com/andrewpaige1/mindflow-api/metrics"
	"github.com/andrewpaige1/mindflow-api/models"
)

var (
	ErrNotConfigured = errors.New("ai service not configured")
	ErrBadResponse   = errors.New("unexpected ai response")
)

const maxKeywords = 50

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration

	// FailureThreshold consecutive failures open the breaker for OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Client posts {"prompt": ...} to the service and reads the generated JSON
// document back from the response body.
type Client struct {
	url     string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "ai",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.AICircuitState.Set(float64(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("ai circuit breaker state changed")
		},
	}

	return &Client{
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// Flashcard is a generated question and answer pair.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// GenerateFlashcard asks for a flashcard about a mind map topic.
func (c *Client) GenerateFlashcard(ctx context.Context, topic string) (Flashcard, error) {
	prompt := fmt.Sprintf(`Based on the following mind map topic: %q, create a concise and effective flashcard.
Return JSON with two keys: "front" and "back".
- "front": a clear question or key term about the topic.
- "back": the complete answer, at most 500 characters.`, topic)

	body, err := c.generate(ctx, prompt)
	metrics.RecordAIRequest("flashcard", err)
	if err != nil {
		return Flashcard{}, err
	}

	var card Flashcard
	if err := json.Unmarshal(body, &card); err != nil {
		return Flashcard{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if card.Front == "" || card.Back == "" {
		return Flashcard{}, fmt.Errorf("%w: flashcard without front or back", ErrBadResponse)
	}
	return card, nil
}

// ExtractKeywords asks for the key concepts of text weighted 1 to 100. The
// service may answer with a bare array or with an object wrapping one.
func (c *Client) ExtractKeywords(ctx context.Context, text string) ([]models.Word, error) {
	prompt := fmt.Sprintf(`Analyze the following text taken from a mind map and identify its key concepts.
Give each concept a contextual relevance score from 1 to 100. Group synonyms and word variations under one concept.
If the text is too short to analyze, return an empty array: [].
Return only a JSON array of at most %d objects like {"text": "Concept", "value": 98}, most relevant first.

TEXT:
%q`, maxKeywords, text)

	body, err := c.generate(ctx, prompt)
	metrics.RecordAIRequest("keywords", err)
	if err != nil {
		return nil, err
	}

	words, err := decodeWords(body)
	if err != nil {
		return nil, err
	}
	if len(words) > maxKeywords {
		words = words[:maxKeywords]
	}
	return words, nil
}

func decodeWords(body []byte) ([]models.Word, error) {
	var words []models.Word
	if err := json.Unmarshal(body, &words); err == nil {
		return words, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	for _, raw := range wrapped {
		if err := json.Unmarshal(raw, &words); err == nil {
			return words, nil
		}
	}
	return nil, fmt.Errorf("%w: no keyword array found", ErrBadResponse)
}

func (c *Client) generate(ctx context.Context, prompt string) ([]byte, error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}
	return c.breaker.Execute(func() ([]byte, error) {
		return c.post(ctx, prompt)
	})
}

func (c *Client) post(ctx context.Context, prompt string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build ai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call ai service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read ai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ai service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return bytes.TrimSpace(body), nil
}
