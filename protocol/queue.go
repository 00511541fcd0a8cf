package protocol

import (
	"sync"

	"github.com/learn-decentralized-systems/toyqueue"

	"github.com/tangle-db/tangle/tangle_errors"
	"github.com/tangle-db/tangle/utils"
)

// DeltaQueue buffers encoded delta records between the goroutine that
// merges and the goroutine that ships to a transport. Drain appends,
// Feed blocks until records arrive or the queue closes.
type DeltaQueue struct {
	lock   sync.Mutex
	ready  *sync.Cond
	recs   toyqueue.Records
	size   int64
	limit  int64
	closed bool
	log    utils.Logger
}

var _ toyqueue.FeedDrainCloser = (*DeltaQueue)(nil)

// NewDeltaQueue bounds the buffer at limit bytes; 0 means unbounded.
func NewDeltaQueue(limit int64, log utils.Logger) *DeltaQueue {
	q := &DeltaQueue{limit: limit, log: log}
	q.ready = sync.NewCond(&q.lock)
	return q
}

func (q *DeltaQueue) Drain(recs toyqueue.Records) error {
	if len(recs) == 0 {
		return nil
	}
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.closed {
		return tangle_errors.ErrClosed
	}
	add := TotalLen(recs)
	if q.limit > 0 && q.size+add > q.limit {
		if q.log != nil {
			q.log.Warn("delta queue overflow", "size", q.size, "incoming", add)
		}
		return tangle_errors.ErrOverflow
	}
	q.recs = append(q.recs, recs...)
	q.size += add
	q.ready.Broadcast()
	return nil
}

func (q *DeltaQueue) Feed() (toyqueue.Records, error) {
	q.lock.Lock()
	defer q.lock.Unlock()
	for len(q.recs) == 0 && !q.closed {
		q.ready.Wait()
	}
	if len(q.recs) == 0 {
		return nil, tangle_errors.ErrClosed
	}
	recs := q.recs
	q.recs = nil
	q.size = 0
	return recs, nil
}

// Size is the buffered byte count.
func (q *DeltaQueue) Size() int64 {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.size
}

// Close wakes all feeders; buffered records are still fed out before
// feeders see ErrClosed.
func (q *DeltaQueue) Close() error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	if q.log != nil {
		q.log.Debug("delta queue closed", "buffered", q.size)
	}
	q.ready.Broadcast()
	return nil
}
