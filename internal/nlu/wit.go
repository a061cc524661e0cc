// Package nlu classifies free-text chat messages through Wit.ai.
package nlu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finanzas/internal/log"
)

var (
	ErrUnauthorized = errors.New("wit.ai rejected the token")
	ErrBadStatus    = errors.New("unexpected wit.ai status")
)

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

type (
	Response struct {
		Text     string              `json:"text"`
		Intents  []Intent            `json:"intents"`
		Entities map[string][]Entity `json:"entities"`
	}

	Intent struct {
		ID         string  `json:"id"`
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	}

	Entity struct {
		Name       string  `json:"name"`
		Role       string  `json:"role"`
		Body       string  `json:"body"`
		Value      any     `json:"value"`
		Confidence float64 `json:"confidence"`
	}
)

// Classifier turns text into a raw classification.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Response, error)
}

type ClientConfig struct {
	Token      string
	BaseURL    string
	APIVersion string
	Timeout    time.Duration
}

// Client calls the Wit.ai /message endpoint.
type Client struct {
	http    *http.Client
	baseURL string
	version string
	token   string
	logger  *log.Logger
}

var _ Classifier = (*Client)(nil)

func NewClient(cfg ClientConfig, logger *log.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		version: cfg.APIVersion,
		token:   cfg.Token,
		logger:  logger.WithComponent(log.ComponentNLU),
	}
}

func (c *Client) Classify(ctx context.Context, text string) (*Response, error) {
	q := url.Values{}
	if c.version != "" {
		q.Set("v", c.version)
	}
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/message?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call wit.ai: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w %d: %s", ErrBadStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode wit.ai response: %w", err)
	}

	c.logger.DebugContext(ctx, "Wit.ai classification",
		"intents", len(out.Intents),
		"entities", len(out.Entities),
		log.FieldDuration, time.Since(start).Milliseconds())

	return &out, nil
}
