package assistant

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/llm"
)

const maxQuestionChars = 2000

// Service answers free-form questions about document terms.
type Service struct {
	completer llm.Completer
	logger    *slog.Logger
}

// NewService creates a new assistant service.
func NewService(completer llm.Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{completer: completer, logger: logger}
}

// Ask forwards a question to the completion service and returns its answer.
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	validator := common.NewValidator()
	validator.Field("question", question, common.Required, common.MaxLength(maxQuestionChars))
	if err := common.ValidateAndReturnError(validator); err != nil {
		return "", err
	}

	start := time.Now()
	answer, err := s.completer.Complete(ctx, llm.BuildQuestionPrompt(question))
	if err != nil {
		s.logger.Error("assistant.ask.failed", "req_id", common.RequestIDFromContext(ctx), "error", err)
		return "", err
	}
	answer = strings.TrimSpace(answer)
	s.logger.Info("assistant.ask.ok",
		"req_id", common.RequestIDFromContext(ctx),
		"question_len", len(question),
		"answer_len", len(answer),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return answer, nil
}
