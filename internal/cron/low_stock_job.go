package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type lowStockCounter interface {
	CountLowStock(ctx context.Context, threshold int) (int64, error)
}

type LowStockJobParams struct {
	Logger    *logger.Logger
	Products  lowStockCounter
	Metrics   *metrics.JobMetrics
	Threshold int
}

// NewLowStockJob publishes how many products need restocking as a gauge, and
// warns when any do.
func NewLowStockJob(params LowStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Threshold <= 0 {
		return nil, fmt.Errorf("low stock threshold must be positive")
	}
	return &lowStockJob{
		logg:      params.Logger,
		products:  params.Products,
		metrics:   params.Metrics,
		threshold: params.Threshold,
	}, nil
}

type lowStockJob struct {
	logg      *logger.Logger
	products  lowStockCounter
	metrics   *metrics.JobMetrics
	threshold int
}

func (j *lowStockJob) Name() string { return "low-stock-scan" }

func (j *lowStockJob) Run(ctx context.Context) error {
	count, err := j.products.CountLowStock(ctx, j.threshold)
	if err != nil {
		return fmt.Errorf("count low stock: %w", err)
	}
	j.metrics.SetLowStock(int(count))

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"threshold":      j.threshold,
		"low_stock_rows": count,
	})
	if count > 0 {
		j.logg.Warn(logCtx, "inventory.low_stock")
		return nil
	}
	j.logg.Debug(logCtx, "inventory.low_stock_clear")
	return nil
}
