// Package scheduler drives the periodic ledger sweeps: horizon generation and
// overdue refresh. Both jobs are idempotent and convergent, so overlapping or
// repeated invocations are safe.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/duebook/internal/clock"
	horizondomain "github.com/smallbiznis/duebook/internal/horizon/domain"
	obsmetrics "github.com/smallbiznis/duebook/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/duebook/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler requires all dependencies")

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	HorizonSvc horizondomain.Service
	PaymentSvc paymentdomain.Service
	Config     Config `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	clock      clock.Clock
	horizonSvc horizondomain.Service
	paymentSvc paymentdomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.HorizonSvc == nil || p.PaymentSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		clock:      p.Clock,
		horizonSvc: p.HorizonSvc,
		paymentSvc: p.PaymentSvc,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if err == nil {
		return nil
	}

	schedMetrics.IncJobError(name)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce executes one pass of every sweep job. Overdue flags refresh before
// horizon generation so newly materialized payments are never flagged in the
// same pass.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	err = errors.Join(err, s.runJob(parent, "overdue_refresh", 30*time.Second, func(ctx context.Context) error {
		flagged, refreshErr := s.paymentSvc.RefreshOverdue(ctx)
		if refreshErr != nil {
			return refreshErr
		}
		obsmetrics.Scheduler().IncPayments("overdue", int(flagged))
		return nil
	}))

	err = errors.Join(err, s.runJob(parent, "horizon_sweep", 30*time.Second, func(ctx context.Context) error {
		result, sweepErr := s.horizonSvc.Sweep(ctx, s.cfg.LookaheadDays)
		if sweepErr != nil {
			return sweepErr
		}
		obsmetrics.Scheduler().IncPayments("horizon", result.Created)
		if result.Created > 0 || result.Failed > 0 {
			s.log.Info("horizon sweep finished",
				zap.Int("examined", result.Examined),
				zap.Int("created", result.Created),
				zap.Int("advanced", result.Advanced),
				zap.Int("failed", result.Failed),
			)
		}
		return nil
	}))

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
