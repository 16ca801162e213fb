package scheduler

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/tupyy/artifact-collector/internal/models"
)

// ErrSchedulerClosed resolves work that was still queued when the scheduler closed.
var ErrSchedulerClosed = errors.New("scheduler closed")

type Work func(ctx context.Context) (any, error)

type job struct {
	ctx    context.Context
	work   Work
	future *models.Future[models.Result[any]]
}

// Scheduler runs work on a fixed number of workers. Every piece of work gets its own
// future which is resolved with the work's result, or with the context error when the
// work is stopped before it could run.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	queue  chan job
	wg     sync.WaitGroup
	once   sync.Once
}

func NewScheduler(numWorkers int) *Scheduler {
	if numWorkers < 1 {
		numWorkers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan job),
	}

	for i := 0; i < numWorkers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	return s
}

// AddWork queues w and returns its future.
func (s *Scheduler) AddWork(w Work) *models.Future[models.Result[any]] {
	return s.AddWorkWithContext(context.Background(), w)
}

// AddWorkWithContext queues w. The context passed to w is cancelled when parent is done,
// when the future is stopped or when the scheduler is closed.
func (s *Scheduler) AddWorkWithContext(parent context.Context, w Work) *models.Future[models.Result[any]] {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(s.ctx, cancel)

	future := models.NewFuture[models.Result[any]](func() {
		stop()
		cancel()
	})

	go func() {
		select {
		case s.queue <- job{ctx: ctx, work: w, future: future}:
		case <-ctx.Done():
			future.Resolve(models.Result[any]{Err: contextErr(s.ctx, ctx)})
			stop()
		}
	}()

	return future
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case j := <-s.queue:
			s.run(id, j)
		}
	}
}

func (s *Scheduler) run(id int, j job) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Named("scheduler").Errorw("work panicked", "worker", id, "panic", r)
			j.future.Resolve(models.Result[any]{Err: errors.New("work panicked")})
		}
	}()

	if s.ctx.Err() != nil || j.ctx.Err() != nil {
		j.future.Resolve(models.Result[any]{Err: contextErr(s.ctx, j.ctx)})
		return
	}

	data, err := j.work(j.ctx)
	j.future.Resolve(models.Result[any]{Data: data, Err: err})
}

// Close stops the workers and cancels every running piece of work.
func (s *Scheduler) Close() {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}

func contextErr(schedCtx, ctx context.Context) error {
	if schedCtx.Err() != nil {
		return ErrSchedulerClosed
	}
	return ctx.Err()
}
