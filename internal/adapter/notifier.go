package adapter

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier is the boundary to whatever delivers messages to merchants
// (email, push). The domain only knows these two notifications.
type Notifier interface {
	// NotifyPromotionDecision tells a merchant that an admin moved one of its promotions.
	NotifyPromotionDecision(ctx context.Context, merchantID, promotionID uuid.UUID, state string) error

	// NotifyMerchantStatus tells a merchant that its moderation status changed.
	NotifyMerchantStatus(ctx context.Context, merchantID uuid.UUID, status string) error
}

// LogNotifier is a development Notifier that only writes log lines.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyPromotionDecision(_ context.Context, merchantID, promotionID uuid.UUID, state string) error {
	n.logger.Info("[NOTIFY] promotion decision",
		zap.String("merchant_id", merchantID.String()),
		zap.String("promotion_id", promotionID.String()),
		zap.String("state", state),
	)
	return nil
}

func (n *LogNotifier) NotifyMerchantStatus(_ context.Context, merchantID uuid.UUID, status string) error {
	n.logger.Info("[NOTIFY] merchant status",
		zap.String("merchant_id", merchantID.String()),
		zap.String("status", status),
	)
	return nil
}
