package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/benshawuk/react-api-starter-kit/internal/core/port"
	"github.com/benshawuk/react-api-starter-kit/internal/infra/logger"
)

// LogNotifier records outgoing account emails in the application log instead
// of delivering them. The raw action link is never logged.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a notifier backed by the application logger.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

// SendVerificationEmail logs an email verification dispatch.
func (n *LogNotifier) SendVerificationEmail(_ context.Context, email, name, link string) error {
	n.logger.Info("verification email dispatched",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("name", name),
		zap.String("link", logger.MaskString(link)),
	)
	return nil
}

// SendPasswordResetEmail logs a password reset dispatch.
func (n *LogNotifier) SendPasswordResetEmail(_ context.Context, email, link string) error {
	n.logger.Info("password reset email dispatched",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("link", logger.MaskString(link)),
	)
	return nil
}

var _ port.Notifier = (*LogNotifier)(nil)
