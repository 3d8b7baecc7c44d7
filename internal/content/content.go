// Package content turns generation requests into validated question
// batches and tutor/evaluation text. Upstream failures never surface as
// missing content: every fetch degrades to the offline question bank.
package content

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Completer is the single operation the generation endpoint offers.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// FailureClass categorizes an upstream failure for advisory display.
type FailureClass string

const (
	FailRateLimited  FailureClass = "rate_limited"
	FailUnauthorized FailureClass = "unauthorized"
	FailHTTP         FailureClass = "http_error"
	FailNetwork      FailureClass = "network"
	FailMalformed    FailureClass = "malformed"
	FailEmpty        FailureClass = "empty"
)

// UpstreamError wraps a generation-endpoint failure with its class.
type UpstreamError struct {
	Class FailureClass
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("generation endpoint %s: %v", e.Class, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Classify maps a client error to its failure class.
func Classify(err error) FailureClass {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429:
			return FailRateLimited
		case 401, 403:
			return FailUnauthorized
		}
		return FailHTTP
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return FailHTTP
	}
	return FailNetwork
}

// Client wraps an OpenAI-compatible chat completion API.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient creates a generation endpoint client.
func NewClient(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

var fenceRegex = regexp.MustCompile("```(?:json)?\n?")

// Complete sends one prompt and returns the whole response text with any
// markdown code fences stripped.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", &UpstreamError{Class: Classify(err), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &UpstreamError{Class: FailEmpty, Err: errors.New("no choices returned")}
	}
	text := resp.Choices[0].Message.Content
	return strings.TrimSpace(fenceRegex.ReplaceAllString(text, "")), nil
}

// Ping verifies the endpoint is reachable and the key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.ListModels(ctx)
	return err
}
