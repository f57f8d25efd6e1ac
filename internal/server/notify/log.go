package notify

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/accountability/internal/common"
	"github.com/dmitrijs2005/accountability/internal/logging"
)

// LogSender writes messages to the log instead of delivering them. Used for
// local runs without SMS credentials.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger.With("module", "notify.log")}
}

func (s *LogSender) Send(ctx context.Context, to, body string) error {
	if to == "" {
		return fmt.Errorf("%w: empty phone number", common.ErrNotification)
	}
	s.logger.Info(ctx, "sms", "to", to, "body", body)
	return nil
}
