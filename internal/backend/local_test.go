package backend

import (
	"context"
	"errors"
	"strings"
	"testing"

	claudecode "github.com/rokrokss/claude-code-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTransport implements claudecode.Transport for testing
type mockTransport struct {
	connectCalled    bool
	closeCalled      bool
	msgChan          chan claudecode.Message
	errChan          chan error
	sendMessageErr   error
	messagesReceived []claudecode.StreamMessage
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		msgChan: make(chan claudecode.Message, 10),
		errChan: make(chan error, 1),
	}
}

func (m *mockTransport) Connect(ctx context.Context) error {
	m.connectCalled = true
	return nil
}

func (m *mockTransport) SendMessage(ctx context.Context, msg claudecode.StreamMessage) error {
	m.messagesReceived = append(m.messagesReceived, msg)
	return m.sendMessageErr
}

func (m *mockTransport) ReceiveMessages(ctx context.Context) (<-chan claudecode.Message, <-chan error) {
	return m.msgChan, m.errChan
}

func (m *mockTransport) Interrupt(ctx context.Context) error {
	return nil
}

func (m *mockTransport) Close() error {
	m.closeCalled = true
	return nil
}

func askerFor(transport *mockTransport) *LocalAsker {
	return NewLocalAskerWithRunner("test-model", func(ctx context.Context, fn func(client claudecode.Client) error) error {
		return claudecode.WithClientTransport(ctx, transport, fn)
	})
}

func TestLocalAsker_StreamsTextBlocks(t *testing.T) {
	transport := newMockTransport()
	transport.msgChan <- &claudecode.AssistantMessage{
		Content: []claudecode.ContentBlock{&claudecode.TextBlock{Text: "Use "}},
	}
	transport.msgChan <- &claudecode.AssistantMessage{
		Content: []claudecode.ContentBlock{&claudecode.TextBlock{Text: "'''go\nsort.Strings(x)\n'''"}},
	}
	transport.msgChan <- &claudecode.ResultMessage{IsError: false}
	close(transport.msgChan)

	var snapshots []string
	answer, err := askerFor(transport).Ask(context.Background(), AskRequest{Question: "sort?", Code: "x := []string{}"}, func(text string) {
		snapshots = append(snapshots, text)
	})

	require.NoError(t, err)
	assert.Equal(t, "Use ```go\nsort.Strings(x)\n```", answer)
	assert.Equal(t, []string{"Use ", "Use ```go\nsort.Strings(x)\n```"}, snapshots)
	assert.True(t, transport.connectCalled)
	assert.True(t, transport.closeCalled)
	require.Len(t, transport.messagesReceived, 1)
}

func TestLocalAsker_ErrorResult(t *testing.T) {
	transport := newMockTransport()
	transport.msgChan <- &claudecode.ResultMessage{IsError: true}
	close(transport.msgChan)

	_, err := askerFor(transport).Ask(context.Background(), AskRequest{Question: "q"}, nil)

	assert.True(t, errors.Is(err, ErrLocalResult))
}

func TestLocalAsker_QueryFailure(t *testing.T) {
	transport := newMockTransport()
	transport.sendMessageErr = errors.New("pipe closed")
	close(transport.msgChan)

	_, err := askerFor(transport).Ask(context.Background(), AskRequest{Question: "q"}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send query")
}

func TestLocalAsker_ChannelClosedWithoutResult(t *testing.T) {
	transport := newMockTransport()
	transport.msgChan <- &claudecode.AssistantMessage{
		Content: []claudecode.ContentBlock{&claudecode.TextBlock{Text: "partial"}},
	}
	close(transport.msgChan)

	answer, err := askerFor(transport).Ask(context.Background(), AskRequest{Question: "q"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "partial", answer)
}

func TestAskPrompt_IncludesCode(t *testing.T) {
	p := askPrompt(AskRequest{Question: " why? ", Code: "panic(1)\n"})

	assert.True(t, strings.Contains(p, "Question:\nwhy?"))
	assert.True(t, strings.Contains(p, "```\npanic(1)\n```"))

	p = askPrompt(AskRequest{Question: "why?"})
	assert.NotContains(t, p, "Code:")
}

func TestUserMessage_LocalErrors(t *testing.T) {
	assert.Equal(t, errMsgCLINotFound, UserMessage(claudecode.NewCLINotFoundError("", "Claude Code CLI not found")))
	assert.Contains(t, UserMessage(claudecode.NewProcessError("subprocess failed", 1, "segfault")), "segfault")
	assert.Contains(t, UserMessage(claudecode.NewConnectionError("connection failed", nil)), "connection to Claude Code CLI failed")
}
