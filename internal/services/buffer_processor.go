package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/internal/infrastructure/buffer"
	"github.com/fastygo/taskpulse/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// BaselineRecomputer re-runs the baseline aggregation for a user.
type BaselineRecomputer interface {
	Recompute(ctx context.Context, userID string) (domain.Baseline, bool, error)
}

// ErrBufferFull is returned when the buffer already holds MaxSize items.
var ErrBufferFull = errors.New("buffer is full")

// ProcessorConfig controls how frequently the buffer is drained and how much it may hold.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// MaxSize caps the number of queued items; zero means unbounded.
	MaxSize int
	// Retention drops items that waited longer than this; zero keeps them until MaxRetries.
	Retention time.Duration
}

// BufferProcessor replays buffered profile writes and deferred baseline recomputes.
type BufferProcessor struct {
	store      *buffer.Store
	monitor    ConnectionHealth
	userRepo   repository.UserRepository
	aggregator BaselineRecomputer
	logger     *zap.Logger
	cron       *cron.Cron
	cfg        ProcessorConfig
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	userRepo repository.UserRepository,
	aggregator BaselineRecomputer,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:      store,
		monitor:    monitor,
		userRepo:   userRepo,
		aggregator: aggregator,
		logger:     logger,
		cfg:        cfg,
		cron:       cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = bp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := bp.Drain(ctx); err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
		}
	})

	return bp
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started")
}

// Stop gracefully stops the scheduler.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

// DrainResult summarizes one pass over the buffer.
type DrainResult struct {
	Processed int
	Requeued  int
	Dropped   int
}

// Drain processes one batch of buffered items synchronously.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	_, err := bp.DrainOnce(ctx)
	return err
}

// DrainOnce is Drain with a per-pass summary.
func (bp *BufferProcessor) DrainOnce(ctx context.Context) (DrainResult, error) {
	var result DrainResult
	if bp == nil || bp.store == nil {
		return result, nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return result, nil
	}

	if bp.cfg.Retention > 0 {
		expired, err := bp.store.Cleanup(time.Now().Add(-bp.cfg.Retention))
		if err != nil {
			bp.logger.Warn("buffer cleanup failed", zap.Error(err))
		} else if expired > 0 {
			bp.logger.Warn("dropped expired buffer items", zap.Int("count", expired))
			result.Dropped += expired
		}
	}

	items, err := bp.store.GetBatch(bp.cfg.BatchSize)
	if err != nil {
		return result, err
	}

	for _, item := range items {
		if err := bp.processItem(ctx, item); err != nil {
			bp.logger.Error("failed to process buffer item",
				zap.String("item_id", item.ID),
				zap.String("entity", item.Entity),
				zap.Error(err))

			item.Retries++
			if item.Retries >= bp.cfg.MaxRetries {
				bp.logger.Warn("dropping buffer item (max retries reached)",
					zap.String("item_id", item.ID),
					zap.String("user_id", item.UserID))
				_ = bp.store.Remove(item)
				result.Dropped++
				continue
			}

			if err := bp.store.Remove(item); err != nil {
				bp.logger.Warn("failed to remove buffer item", zap.Error(err))
			}
			if err := bp.store.Requeue(item); err != nil {
				bp.logger.Error("failed to requeue buffer item", zap.Error(err))
			}
			result.Requeued++
			continue
		}

		if err := bp.store.Remove(item); err != nil {
			bp.logger.Warn("failed to purge processed buffer item", zap.Error(err))
		}
		result.Processed++
	}
	return result, nil
}

// BufferOperation attempts to run the operation immediately and falls back to persisting it.
func (bp *BufferProcessor) BufferOperation(ctx context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return fmt.Errorf("buffer processor not configured")
	}

	if bp.monitor == nil || bp.monitor.IsOnline() {
		if err := bp.processItem(ctx, item); err == nil {
			return nil
		} else {
			bp.logger.Warn("immediate processing failed, buffering", zap.Error(err))
		}
	}
	return bp.enqueue(item)
}

// Defer persists the item for the next drain without trying it first.
func (bp *BufferProcessor) Defer(ctx context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return fmt.Errorf("buffer processor not configured")
	}
	if err := bp.enqueue(item); err != nil {
		return err
	}
	bp.logger.Info("buffered operation deferred",
		zap.String("entity", item.Entity),
		zap.String("user_id", item.UserID))
	return nil
}

func (bp *BufferProcessor) enqueue(item buffer.Item) error {
	if bp.cfg.MaxSize > 0 && bp.Size() >= bp.cfg.MaxSize {
		return ErrBufferFull
	}
	err := bp.store.Enqueue(item)
	if errors.Is(err, buffer.ErrSuperseded) {
		return nil
	}
	return err
}

// Size returns the number of buffered items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) processItem(ctx context.Context, item buffer.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch item.Entity {
	case buffer.EntityProfile:
		var user domain.User
		if err := json.Unmarshal(item.Data, &user); err != nil {
			return err
		}
		return bp.userRepo.Upsert(ctx, &user)

	case buffer.EntityCondition:
		var user domain.User
		if err := json.Unmarshal(item.Data, &user); err != nil {
			return err
		}
		return bp.userRepo.UpdateCondition(ctx, user.ID, user.CurrentEnergyLevel, user.CurrentMood)

	case buffer.EntityBaseline:
		if bp.aggregator == nil {
			return fmt.Errorf("baseline aggregator not configured")
		}
		_, _, err := bp.aggregator.Recompute(ctx, item.UserID)
		return err

	default:
		return fmt.Errorf("unsupported entity %s", item.Entity)
	}
}
