// Package waiting implements the station-wide waiting area: one bounded FIFO
// main queue per charge mode with stable, per-day queue numbers.
package waiting

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voltgrid/evstation/internal/domain"
	"github.com/voltgrid/evstation/internal/observability/telemetry"
)

type entry struct {
	carID       string
	queueNumber string
}

// Queue manages the per-mode main queues. Queue numbers are F<n>/T<n> with n
// strictly increasing within a day and reset on day roll; numbers are never
// reused. All operations are atomic under one mutex.
type Queue struct {
	mu       sync.Mutex
	capacity int
	queues   map[domain.ChargeMode][]entry
	counters map[domain.ChargeMode]int
	lastDay  string
	now      func() time.Time
	log      *zap.Logger
}

func NewQueue(capacity int, log *zap.Logger) *Queue {
	if capacity <= 0 {
		capacity = 10
	}
	q := &Queue{
		capacity: capacity,
		queues: map[domain.ChargeMode][]entry{
			domain.ChargeModeFast:    nil,
			domain.ChargeModeTrickle: nil,
		},
		counters: map[domain.ChargeMode]int{},
		now:      time.Now,
		log:      log,
	}
	q.lastDay = q.now().Format("2006-01-02")
	return q
}

// SetClock overrides the queue's clock. Intended for tests.
func (q *Queue) SetClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}

// Enqueue appends a car to its mode's main queue and allocates the next queue
// number. Fails with a capacity error when the waiting area is full.
func (q *Queue) Enqueue(carID string, mode domain.ChargeMode) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.queues[mode]) >= q.capacity {
		return "", domain.E(domain.KindCapacity, "waiting area for %s is full", mode)
	}

	q.rollDayLocked()
	q.counters[mode]++
	number := fmt.Sprintf("%s%d", mode.Letter(), q.counters[mode])

	q.queues[mode] = append(q.queues[mode], entry{carID: carID, queueNumber: number})
	q.observeLocked(mode)

	q.log.Info("Car joined waiting queue",
		zap.String("car_id", carID),
		zap.String("mode", string(mode)),
		zap.String("queue_number", number),
	)
	return number, nil
}

// EnqueueHead re-inserts a car at the front, keeping its original queue
// number. Only used for fault-induced re-queues, so it is exempt from the
// capacity check: interrupted work must not be dropped.
func (q *Queue) EnqueueHead(carID, queueNumber string, mode domain.ChargeMode) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.queues[mode] = append([]entry{{carID: carID, queueNumber: queueNumber}}, q.queues[mode]...)
	q.observeLocked(mode)

	q.log.Info("Car re-queued at head",
		zap.String("car_id", carID),
		zap.String("queue_number", queueNumber),
	)
}

// Dequeue removes and returns the head of the mode's queue.
func (q *Queue) Dequeue(mode domain.ChargeMode) (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	queue := q.queues[mode]
	if len(queue) == 0 {
		return "", false
	}
	head := queue[0]
	q.queues[mode] = append([]entry(nil), queue[1:]...)
	q.observeLocked(mode)
	return head.carID, true
}

func (q *Queue) Len(mode domain.ChargeMode) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues[mode])
}

// Snapshot returns the queued car IDs in order, head first.
func (q *Queue) Snapshot(mode domain.ChargeMode) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]string, len(q.queues[mode]))
	for i, e := range q.queues[mode] {
		out[i] = e.carID
	}
	return out
}

// Position returns the 1-based position of the car in its mode's queue.
func (q *Queue) Position(carID string, mode domain.ChargeMode) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.queues[mode] {
		if e.carID == carID {
			return i + 1, true
		}
	}
	return 0, false
}

// Remove deletes the car from its mode's queue, wherever it sits.
func (q *Queue) Remove(carID string, mode domain.ChargeMode) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.queues[mode] {
		if e.carID == carID {
			q.queues[mode] = append(q.queues[mode][:i:i], q.queues[mode][i+1:]...)
			q.observeLocked(mode)
			return true
		}
	}
	return false
}

func (q *Queue) rollDayLocked() {
	day := q.now().Format("2006-01-02")
	if day != q.lastDay {
		q.counters = map[domain.ChargeMode]int{}
		q.lastDay = day
	}
}

func (q *Queue) observeLocked(mode domain.ChargeMode) {
	telemetry.WaitingQueueLength.WithLabelValues(string(mode)).Set(float64(len(q.queues[mode])))
}
