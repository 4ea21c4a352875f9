package llm

import "context"

// Prompt is one chat request: an optional system message and the user message.
type Prompt struct {
	System string
	User   string
}

// Completer sends a prompt to a hosted completion service and returns the
// trimmed text of the first answer.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, p Prompt) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}
