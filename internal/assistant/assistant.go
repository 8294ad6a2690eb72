package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Responder answers free-text questions. With an API key configured it
// asks a chat-completion API and uses the keyword-matched canned table
// only when the request fails; without a key the canned table answers
// directly.
type Responder struct {
	client *resty.Client
	apiKey string
	model  string
}

func NewResponder(apiURL, apiKey, model string) *Responder {
	client := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(30 * time.Second)
	return &Responder{client: client, apiKey: apiKey, model: model}
}

type completionRequest struct {
	Model    string              `json:"model"`
	Messages []completionMessage `json:"messages"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
}

// Reply answers a user question. The completion API answers whenever a
// key is configured; the canned table only covers missing keys and
// failed requests.
func (r *Responder) Reply(ctx context.Context, question string) string {
	if r.apiKey != "" {
		answer, err := r.complete(ctx, question)
		if err == nil {
			return answer
		}
		log.Printf("assistant: completion request failed: %v", err)
	}
	if canned, ok := scriptedReply(question); ok {
		return canned
	}
	return defaultReply(question)
}

func (r *Responder) complete(ctx context.Context, question string) (string, error) {
	payload := completionRequest{
		Model: r.model,
		Messages: []completionMessage{
			{Role: "system", Content: "You are a helpful assistant for an investment platform. Answer briefly."},
			{Role: "user", Content: question},
		},
	}
	var parsed completionResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetAuthToken(r.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(&parsed).
		Post("")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("completion API returned %s", resp.Status())
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion API returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func scriptedReply(question string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(question))
	switch {
	case q == "hello" || q == "hi" || q == "hey" ||
		strings.HasPrefix(q, "hello ") || strings.HasPrefix(q, "hi ") || strings.HasPrefix(q, "hey "):
		return "Hello! How can I help you with your investments today?", true
	case strings.Contains(q, "recommend") || strings.Contains(q, "which plan"):
		return "Our plans differ by minimum amount and profit. Check the plans page and pick the one matching your budget.", true
	case strings.Contains(q, "how") && strings.Contains(q, "invest"):
		return "Choose a plan, enter the amount you want to invest, and upload your payment proof. An admin confirms it shortly after.", true
	}
	return "", false
}

func defaultReply(question string) string {
	q := strings.TrimSpace(question)
	if strings.HasSuffix(q, "?") {
		return "Good question! Our support team can give you a detailed answer. In the meantime, the plans page covers most details."
	}
	return "Thanks for your message. Browse our investment plans or ask me about how investing works."
}
