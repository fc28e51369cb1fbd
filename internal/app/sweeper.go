package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const defaultSweepInterval = time.Minute

// Expirer removes delivered orders past their retention window.
type Expirer interface {
	ExpireDelivered(ctx context.Context) ([]string, error)
}

// RunSweeper expires delivered orders once immediately and then on every
// tick until ctx is done. The board does this itself; the sweeper covers
// headless runs.
func RunSweeper(ctx context.Context, exp Expirer, interval time.Duration, logger *zap.Logger) error {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		sweep(ctx, exp, logger)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func sweep(ctx context.Context, exp Expirer, logger *zap.Logger) {
	ids, err := exp.ExpireDelivered(ctx)
	if err != nil {
		logger.Warn("expire delivered orders", zap.Error(err))
		return
	}
	if len(ids) > 0 {
		logger.Info("expired delivered orders", zap.Strings("ids", ids))
	}
}
