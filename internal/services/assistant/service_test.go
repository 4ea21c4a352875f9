package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/llm"
)

func TestAsk(t *testing.T) {
	var got llm.Prompt
	svc := NewService(llm.CompleterFunc(func(_ context.Context, p llm.Prompt) (string, error) {
		got = p
		return "  An indemnity clause shifts liability.  \n", nil
	}), nil)

	answer, err := svc.Ask(context.Background(), " What is an indemnity clause? ")
	require.NoError(t, err)
	assert.Equal(t, "An indemnity clause shifts liability.", answer)
	assert.Equal(t, "What is an indemnity clause?", got.User)
	assert.NotEmpty(t, got.System)
}

func TestAsk_Validation(t *testing.T) {
	called := false
	svc := NewService(llm.CompleterFunc(func(context.Context, llm.Prompt) (string, error) {
		called = true
		return "", nil
	}), nil)

	_, err := svc.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Ask(context.Background(), strings.Repeat("x", maxQuestionChars+1))
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.False(t, called)
}

func TestAsk_UpstreamError(t *testing.T) {
	svc := NewService(llm.CompleterFunc(func(context.Context, llm.Prompt) (string, error) {
		return "", common.NewAppError("UPSTREAM", "rate limited", common.ErrUpstream)
	}), nil)
	_, err := svc.Ask(context.Background(), "hi")
	assert.True(t, errors.Is(err, common.ErrUpstream))
}
