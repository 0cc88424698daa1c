package services

import (
	"context"

	"go.uber.org/zap"

	aws_pkg "github.com/yashrajoria/E-Commerce-storefront/pkg/aws"
)

// recordCount is a no-op when metrics are not configured
func recordCount(ctx context.Context, m aws_pkg.MetricsRecorder, log *zap.Logger, name string, dims map[string]string) {
	if m == nil {
		return
	}
	if err := m.RecordCount(ctx, name, dims); err != nil {
		log.Debug("failed to record metric", zap.String("metric", name), zap.Error(err))
	}
}
