package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/rrship/internal/domain"
	"github.com/bft-labs/rrship/internal/ports"
)

// Default pipeline configuration values.
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 256
)

// ShutdownTimeout is the maximum time to wait for in-flight deliveries.
const ShutdownTimeout = 30 * time.Second

// PipelineConfig contains configuration for the delivery pipeline.
type PipelineConfig struct {
	// Workers is the number of concurrent deliveries.
	Workers int

	// QueueSize is the number of tasks buffered before Enqueue reports ErrQueueFull.
	QueueSize int
}

// DeliveryEventEmitter is called once per task with its outcome.
type DeliveryEventEmitter interface {
	OnDeliverySuccess(task domain.DeliveryTask, duration time.Duration)
	OnDeliveryError(task domain.DeliveryTask, err error)
}

// PipelineStats counts tasks by outcome.
type PipelineStats struct {
	Enqueued  uint64
	Delivered uint64
	Failed    uint64
	Dropped   uint64
}

// Pipeline hands delivery tasks to a fixed pool of workers so that sink
// latency never reaches the notification path.
type Pipeline struct {
	config  PipelineConfig
	sink    ports.MeasurementSink
	logger  ports.Logger
	emitter DeliveryEventEmitter
	queue   chan domain.DeliveryTask

	mu      sync.RWMutex
	started bool
	closed  bool
	wg      sync.WaitGroup

	enqueued  atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewPipeline creates a pipeline. Call Start to begin delivering.
func NewPipeline(config PipelineConfig, sink ports.MeasurementSink, logger ports.Logger, emitter DeliveryEventEmitter) *Pipeline {
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}
	return &Pipeline{
		config:  config,
		sink:    sink,
		logger:  logger,
		emitter: emitter,
		queue:   make(chan domain.DeliveryTask, config.QueueSize),
	}
}

// Start spawns the workers. Deliveries keep ctx values but not its
// cancellation: once dequeued, a task runs to completion.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return domain.ErrPipelineClosed
	}
	if p.started {
		return domain.ErrAlreadyRunning
	}
	p.started = true

	runCtx := context.WithoutCancel(ctx)
	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}

	p.logger.Info("delivery pipeline started",
		ports.Int("workers", p.config.Workers),
		ports.Int("queue_size", p.config.QueueSize),
	)
	return nil
}

// Enqueue hands a task to the pipeline and returns immediately.
// A full queue or a closed pipeline drops the task and reports it.
func (p *Pipeline) Enqueue(task domain.DeliveryTask) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.drop(task, domain.ErrPipelineClosed)
		return domain.ErrPipelineClosed
	}

	select {
	case p.queue <- task:
		p.enqueued.Add(1)
		return nil
	default:
		p.drop(task, domain.ErrQueueFull)
		return domain.ErrQueueFull
	}
}

// Close stops intake, lets the workers drain the queue and waits up to
// timeout for them. Returns ErrShutdownTimeout if they are still busy.
func (p *Pipeline) Close(timeout time.Duration) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	started := p.started
	close(p.queue)
	p.mu.Unlock()

	if !started {
		for task := range p.queue {
			p.drop(task, domain.ErrPipelineClosed)
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("delivery pipeline stopped",
			ports.Uint64("delivered", p.delivered.Load()),
			ports.Uint64("failed", p.failed.Load()),
			ports.Uint64("dropped", p.dropped.Load()),
		)
		return nil
	case <-time.After(timeout):
		p.logger.Warn("shutdown timeout, abandoning deliveries",
			ports.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}

// Stats returns a snapshot of the task counters.
func (p *Pipeline) Stats() PipelineStats {
	return PipelineStats{
		Enqueued:  p.enqueued.Load(),
		Delivered: p.delivered.Load(),
		Failed:    p.failed.Load(),
		Dropped:   p.dropped.Load(),
	}
}

func (p *Pipeline) worker(ctx context.Context) {
	defer p.wg.Done()
	for task := range p.queue {
		p.deliver(ctx, task)
	}
}

// deliver sends the intervals in order, then the heart rate, and stops at
// the first sink failure without retrying.
func (p *Pipeline) deliver(ctx context.Context, task domain.DeliveryTask) {
	start := time.Now()

	for i, rr := range task.RRIntervals {
		if err := p.sink.SaveRRInterval(ctx, rr); err != nil {
			p.fail(task, &domain.DeliveryError{
				TaskSeq: task.Seq,
				Stage:   domain.StageRRInterval,
				Index:   i,
				Err:     err,
			})
			return
		}
	}

	if err := p.sink.SaveHeartRate(ctx, int(task.HeartRate)); err != nil {
		p.fail(task, &domain.DeliveryError{
			TaskSeq: task.Seq,
			Stage:   domain.StageHeartRate,
			Index:   -1,
			Err:     err,
		})
		return
	}

	duration := time.Since(start)
	p.delivered.Add(1)
	p.logger.Debug("delivered measurement",
		ports.Uint64("seq", task.Seq),
		ports.Int("rr_intervals", len(task.RRIntervals)),
		ports.Duration("duration", duration),
	)
	if p.emitter != nil {
		p.emitter.OnDeliverySuccess(task, duration)
	}
}

func (p *Pipeline) fail(task domain.DeliveryTask, err *domain.DeliveryError) {
	p.failed.Add(1)
	p.logger.Error("delivery failed",
		ports.Err(err),
		ports.Uint64("seq", task.Seq),
		ports.String("stage", string(err.Stage)),
	)
	if p.emitter != nil {
		p.emitter.OnDeliveryError(task, err)
	}
}

func (p *Pipeline) drop(task domain.DeliveryTask, reason error) {
	p.dropped.Add(1)
	if p.emitter != nil {
		p.emitter.OnDeliveryError(task, reason)
	}
}
