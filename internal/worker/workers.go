package worker

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const passTimeout = 5 * time.Minute

// Workers owns the background scheduler running both maintenance loops.
// Every job iteration gets its own bounded context derived from the workers'
// lifetime, so Stop interrupts an in-flight pass between units of work
// instead of waiting out the full pass timeout.
type Workers struct {
	scheduler gocron.Scheduler
	cancel    context.CancelFunc
	logger    *zap.Logger
}

// Options selects which loops run and how often.
type Options struct {
	RegenerateInterval time.Duration
	SweepInterval      time.Duration
	SweepEnabled       bool
}

// New wires the regenerator and, unless disabled, the no-show sweeper onto a
// gocron scheduler. The regenerator runs once immediately at startup.
func New(regenerator *Regenerator, sweeper *Sweeper, opts Options, logger *zap.Logger) (*Workers, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	_, err = scheduler.NewJob(
		gocron.DurationJob(opts.RegenerateInterval),
		gocron.NewTask(func() { runBounded(ctx, regenerator.RunPass) }),
		gocron.WithName("inventory-regenerator"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	if opts.SweepEnabled {
		_, err = scheduler.NewJob(
			gocron.DurationJob(opts.SweepInterval),
			gocron.NewTask(func() { runBounded(ctx, sweeper.RunPass) }),
			gocron.WithName("no-show-sweeper"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			cancel()
			return nil, err
		}
	} else {
		logger.Info("no-show sweeper disabled by configuration")
	}

	return &Workers{scheduler: scheduler, cancel: cancel, logger: logger}, nil
}

// Start launches the background loops.
func (w *Workers) Start() {
	w.scheduler.Start()
	w.logger.Info("background workers started", zap.Int("jobs", len(w.scheduler.Jobs())))
}

// Stop cancels in-flight passes and shuts the scheduler down.
func (w *Workers) Stop() error {
	w.cancel()
	return w.scheduler.Shutdown()
}

func runBounded(parent context.Context, pass func(context.Context)) {
	ctx, cancel := context.WithTimeout(parent, passTimeout)
	defer cancel()
	pass(ctx)
}
