package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sdk "github.com/openai/openai-go/v3"

	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/llm"
)

var _ llm.Completer = (*Client)(nil)

// Complete implements llm.Completer with a single chat completion.
func (c *Client) Complete(ctx context.Context, p llm.Prompt) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()

	user := strings.TrimSpace(p.User)
	if user == "" {
		return "", common.NewAppError("LLM_ERROR", "prompt is empty", common.ErrInvalidInput)
	}

	msgs := make([]sdk.ChatCompletionMessageParamUnion, 0, 2)
	if s := strings.TrimSpace(p.System); s != "" {
		msgs = append(msgs, sdk.SystemMessage(s))
	}
	msgs = append(msgs, sdk.UserMessage(user))

	c.logger.Info("llm.complete.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"prompt_len", len(user),
	)

	resp, err := c.sdk.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Model:       sdk.ChatModel(c.cfg.Model),
		Messages:    msgs,
		Temperature: sdk.Float(float64(c.cfg.Temperature)),
	})
	if err != nil {
		err = mapError(err)
		c.logger.Error("llm.complete.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("llm.complete.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError("LLM_ERROR", "no choices in completion", common.ErrUpstream)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.Info("llm.complete.ok",
		"req_id", rid,
		"content_len", len(content),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func mapError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		msg := fmt.Sprintf("openai status %d", apiErr.StatusCode)
		if apiErr.Message != "" {
			msg += ": " + apiErr.Message
		}
		return common.NewAppError("LLM_ERROR", msg, common.ErrUpstream)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return common.NewAppError("LLM_ERROR", "openai request failed", errors.Join(common.ErrUpstream, err))
}
