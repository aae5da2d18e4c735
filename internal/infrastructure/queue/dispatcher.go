package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lifelink/coordination-api/internal/api/metrics"
	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
	notifyTimeout  = 5 * time.Second
)

// Dispatcher routes workflow notifications to a fixed set of workers using
// consistent hashing on the audience, so each principal sees their
// notifications in commit order. Publishing never blocks the caller.
type Dispatcher struct {
	workers  []chan domain.WorkflowEvent
	notifier ports.Notifier
	log      zerolog.Logger
	wg       sync.WaitGroup
}

var _ ports.EventPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.WorkflowEvent, numWorkers),
		notifier: notifier,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.WorkflowEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Publish queues ev on the worker that owns its audience. When that worker's
// buffer is full the notification is dropped and counted.
func (d *Dispatcher) Publish(ev domain.WorkflowEvent) {
	id := d.shardIndex(ev.AudienceID)
	select {
	case d.workers[id] <- ev:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id)).Inc()
	default:
		metrics.NotificationsFailedTotal.WithLabelValues("queue_full").Inc()
		d.log.Warn().
			Str("type", string(ev.Type)).
			Str("audience_id", ev.AudienceID).
			Int("worker_id", id).
			Msg("notification queue full, dropping")
	}
}

// shardIndex maps an audience deterministically to a worker index.
func (d *Dispatcher) shardIndex(audienceID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(audienceID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.WorkflowEvent) {
	defer d.wg.Done()
	depth := metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			depth.Dec()
			d.deliver(ctx, id, ev)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, ev domain.WorkflowEvent) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := d.notifier.Notify(ctx, ev); err != nil {
		metrics.NotificationsFailedTotal.WithLabelValues("notify_error").Inc()
		d.log.Error().Err(err).
			Str("type", string(ev.Type)).
			Str("audience_id", ev.AudienceID).
			Int("worker_id", id).
			Msg("notification delivery failed")
		return
	}
	metrics.NotificationsPublishedTotal.WithLabelValues(string(ev.Type)).Inc()
}
