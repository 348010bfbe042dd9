// Package aisvc talks to an OpenAI compatible chat completions API (OpenRouter by default).
package aisvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/chat"
)

const completionsEndpoint = "/chat/completions"

var errNoChoices = errors.New("completion returned no choices")

type (
	completionMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	completionRequest struct {
		Model    string              `json:"model"`
		Messages []completionMessage `json:"messages"`
	}

	completionResponse struct {
		Choices []struct {
			Message completionMessage `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}

	Client struct {
		conf   core.AIConfig
		appURL string
		client *rest.Client
	}
)

var _ chat.Completer = (*Client)(nil)

func NewClient(conf *core.Config) *Client {
	httpClient := &http.Client{Timeout: conf.AI.Timeout}
	return &Client{
		conf:   conf.AI,
		appURL: conf.FrontendBaseURL,
		client: &rest.Client{HTTPClient: httpClient},
	}
}

// Complete sends prompt as a single user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:    c.conf.Model,
		Messages: []completionMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding completion request")
	}

	req := rest.Request{
		Method:  rest.Post,
		BaseURL: c.conf.BaseURL + completionsEndpoint,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.conf.APIKey,
			"Content-Type":  "application/json",
			"HTTP-Referer":  c.appURL,
		},
		Body: body,
	}
	res, err := c.client.SendWithContext(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "requesting completion")
	}

	var data completionResponse
	if err = json.Unmarshal([]byte(res.Body), &data); err != nil && res.StatusCode < http.StatusBadRequest {
		return "", errors.Wrap(err, "decoding completion response")
	}
	if res.StatusCode >= http.StatusBadRequest {
		msg := res.Body
		if data.Error != nil {
			msg = data.Error.Message
		}
		return "", fmt.Errorf("completion failed with status %d: %s", res.StatusCode, msg)
	}
	if len(data.Choices) == 0 {
		return "", errNoChoices
	}
	return strings.TrimSpace(data.Choices[0].Message.Content), nil
}
