package llm

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	openai "github.com/sashabaranov/go-openai"
)

// TokenStream is a lazy, finite, non-restartable sequence of text
// tokens from one completion. Next blocks for the next token and returns
// io.EOF when the model is done; Close releases the connection, may be
// called from another goroutine and is safe to call more than once.
type TokenStream struct {
	stream    *openai.ChatCompletionStream
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func (t *TokenStream) Next() (string, error) {
	if t.closed.Load() {
		return "", io.EOF
	}
	for {
		resp, err := t.stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || t.closed.Load() {
				return "", io.EOF
			}
			return "", err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		// Some providers emit empty keep-alive deltas; skip them.
		if token := resp.Choices[0].Delta.Content; token != "" {
			return token, nil
		}
	}
}

func (t *TokenStream) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		t.closeErr = t.stream.Close()
	})
	return t.closeErr
}
