package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	claudecode "github.com/rokrokss/claude-code-sdk-go"

	"github.com/buker/devdash/internal/segment"
	"github.com/buker/devdash/internal/stream"
)

// Provider names accepted by NewAsker.
const (
	ProviderHTTP       = "http"
	ProviderClaudeCode = "claude-code"
)

// ErrLocalResult is returned when Claude Code reports a failed result.
var ErrLocalResult = errors.New("claude code reported an error result")

// RunFunc executes fn with a connected Claude Code client.
type RunFunc func(ctx context.Context, fn func(client claudecode.Client) error) error

// LocalAsker answers questions through the Claude Code CLI instead of the
// HTTP backend. Authentication is handled by the CLI ('claude login').
type LocalAsker struct {
	model string
	run   RunFunc
}

// NewLocalAsker creates a LocalAsker for model.
func NewLocalAsker(model string) *LocalAsker {
	a := &LocalAsker{model: model}
	a.run = func(ctx context.Context, fn func(client claudecode.Client) error) error {
		opts := []claudecode.Option{}
		if a.model != "" {
			opts = append(opts, claudecode.WithModel(a.model))
		}
		return claudecode.WithClient(ctx, fn, opts...)
	}
	return a
}

// NewLocalAskerWithRunner creates a LocalAsker that obtains clients from run.
func NewLocalAskerWithRunner(model string, run RunFunc) *LocalAsker {
	return &LocalAsker{model: model, run: run}
}

// Model returns the configured model name.
func (a *LocalAsker) Model() string {
	return a.model
}

// Ask sends the question and streams text blocks to onUpdate as they arrive.
func (a *LocalAsker) Ask(ctx context.Context, req AskRequest, onUpdate stream.UpdateFunc) (string, error) {
	prompt := askPrompt(req)
	debugLog("local ask: prompt length %d, model %q", len(prompt), a.model)

	var answer string
	err := a.run(ctx, func(client claudecode.Client) error {
		var callErr error
		answer, callErr = receiveAnswer(ctx, client, prompt, restoring(onUpdate))
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("local ask failed: %w", err)
	}
	return segment.RestoreFences(answer), nil
}

// receiveAnswer sends the prompt and accumulates assistant text until the
// result message arrives or the channel closes.
func receiveAnswer(ctx context.Context, client claudecode.Client, prompt string, onUpdate stream.UpdateFunc) (string, error) {
	if err := client.Query(ctx, prompt); err != nil {
		return "", fmt.Errorf("failed to send query: %w", err)
	}

	var b strings.Builder
	for msg := range client.ReceiveMessages(ctx) {
		switch m := msg.(type) {
		case *claudecode.AssistantMessage:
			for _, block := range m.Content {
				if textBlock, ok := block.(*claudecode.TextBlock); ok {
					b.WriteString(textBlock.Text)
					if onUpdate != nil {
						onUpdate(b.String())
					}
				}
			}
		case *claudecode.ResultMessage:
			if m.IsError {
				return b.String(), ErrLocalResult
			}
			return b.String(), nil
		default:
			debugLog("local ask: ignoring message %T", msg)
		}
	}
	return b.String(), nil
}

func askPrompt(req AskRequest) string {
	var b strings.Builder
	b.WriteString("You are a senior developer answering a colleague's question. ")
	b.WriteString("Put any code in fenced markdown blocks tagged with the language.\n\n")
	b.WriteString("Question:\n")
	b.WriteString(strings.TrimSpace(req.Question))
	if code := strings.TrimSpace(req.Code); code != "" {
		b.WriteString("\n\nCode:\n```\n")
		b.WriteString(code)
		b.WriteString("\n```")
	}
	return b.String()
}

// NewAsker returns the Asker for provider.
func NewAsker(provider string, client *Client, model string) (Asker, error) {
	switch provider {
	case "", ProviderHTTP:
		return client, nil
	case ProviderClaudeCode:
		return NewLocalAsker(model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (valid: %s, %s)", provider, ProviderHTTP, ProviderClaudeCode)
	}
}
