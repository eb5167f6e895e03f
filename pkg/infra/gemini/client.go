package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/infra/httpx"
	"github.com/sirupsen/logrus"
)

//go:generate mockery --name=Client --filename=client_mock.go --output=./mocks

// GenerationConfig is the sampling policy the proxy attaches to every
// upstream call. Callers never influence it.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
}

type Part struct {
	Text string `json:"text"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type generateRequest struct {
	Contents         json.RawMessage  `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type Config struct {
	Endpoint         string
	CredentialHeader string
	Credential       string
	Timeout          time.Duration
	Generation       GenerationConfig
}

// Result carries the upstream's verbatim reply. Non-2xx statuses are not
// errors here, the caller decides how to surface them.
type Result struct {
	StatusCode int
	Body       []byte
}

type Client interface {
	GenerateContent(ctx context.Context, contents json.RawMessage) (*Result, error)
}

type client struct {
	cfg     Config
	http    httpx.Client
	breaker httpx.CircuitBreaker
	logger  *logrus.Logger
}

// NewClient builds a generateContent client on top of httpClient.
// breaker may be nil to call the upstream unguarded.
func NewClient(cfg Config, httpClient httpx.Client, breaker httpx.CircuitBreaker, logger *logrus.Logger) Client {
	return &client{
		cfg:     cfg,
		http:    httpClient,
		breaker: breaker,
		logger:  logger,
	}
}

// SingleTurn wraps one user message in the contents shape the API expects.
func SingleTurn(message string) json.RawMessage {
	payload, _ := json.Marshal([]Content{{Parts: []Part{{Text: message}}}})
	return payload
}

func (c *client) GenerateContent(ctx context.Context, contents json.RawMessage) (*Result, error) {
	body, err := json.Marshal(generateRequest{
		Contents:         contents,
		GenerationConfig: c.cfg.Generation,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(c.cfg.CredentialHeader, c.cfg.Credential)

	c.logger.WithFields(logrus.Fields{
		"endpoint": c.cfg.Endpoint,
		"bytes":    len(body),
	}).Debug("calling generative api")

	var resp *http.Response
	call := func() error {
		var doErr error
		resp, doErr = c.http.Do(req)
		return doErr
	}
	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return nil, fmt.Errorf("calling generative api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading generative api response: %w", err)
	}

	return &Result{StatusCode: resp.StatusCode, Body: raw}, nil
}
