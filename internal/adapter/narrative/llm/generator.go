package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"xiuxian/internal/app/ports"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const defaultTimeout = 3 * time.Second

const systemPrompt = "You narrate a xianxia cultivation game. Reply with two or three vivid sentences in the third person. Do not invent numbers that are not in the facts."

var ErrEmptyCompletion = errors.New("narrative completion is empty")

type Config struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Generator asks an OpenAI-compatible chat completion endpoint for flavour
// text.
type Generator struct {
	cfg    Config
	client *client.Client
}

func New(cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("llm narrative: endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c, err := client.NewClient(
		client.WithDialTimeout(cfg.Timeout),
		client.WithClientReadTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("llm narrative: %w", err)
	}
	return &Generator{cfg: cfg, client: c}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *Generator) DescribeBreakthrough(ctx context.Context, req ports.NarrativeRequest) (string, error) {
	facts, err := json.Marshal(map[string]any{
		"name":    req.Character.Name,
		"age":     req.Character.Age,
		"summary": req.Summary,
	})
	if err != nil {
		return "", fmt.Errorf("llm narrative: encode facts: %w", err)
	}
	body, err := json.Marshal(chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Narrate this breakthrough attempt. Facts: " + string(facts)},
		},
		MaxTokens:   160,
		Temperature: 0.8,
	})
	if err != nil {
		return "", fmt.Errorf("llm narrative: encode request: %w", err)
	}

	httpReq := protocol.AcquireRequest()
	httpResp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(httpReq)
	defer protocol.ReleaseResponse(httpResp)

	httpReq.SetMethod(consts.MethodPost)
	httpReq.SetRequestURI(g.cfg.Endpoint)
	httpReq.Header.SetContentTypeBytes([]byte("application/json"))
	if g.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}
	httpReq.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) > g.cfg.Timeout {
		deadline = time.Now().Add(g.cfg.Timeout)
	}
	if err := g.client.DoDeadline(ctx, httpReq, httpResp, deadline); err != nil {
		return "", fmt.Errorf("llm narrative: %w", err)
	}
	if code := httpResp.StatusCode(); code != consts.StatusOK {
		return "", fmt.Errorf("llm narrative: unexpected status %d", code)
	}

	var out chatResponse
	if err := json.Unmarshal(httpResp.Body(), &out); err != nil {
		return "", fmt.Errorf("llm narrative: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
