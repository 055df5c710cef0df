// Package broadcast provides an in-process publish/subscribe bus with NATS
// style subjects. It delivers to every open subscription and keeps nothing:
// a message published while nobody listens is gone.
package broadcast

import (
	"strings"
	"sync"

	"github.com/yndd/ndd-runtime/pkg/logging"

	"github.com/yndd/dinesync"
)

const defaultBufferSize = 1024

type Bus struct {
	logger logging.Logger

	mu   sync.RWMutex
	seq  uint64
	next uint64
	subs map[uint64]*subscription
}

type subscription struct {
	pattern string
	ch      chan *dinesync.Msg
}

func NewBus(l logging.Logger) *Bus {
	if l == nil {
		l = logging.NewNopLogger()
	}
	return &Bus{
		logger: l,
		subs:   make(map[uint64]*subscription),
	}
}

// Subscribe opens a subscription for pattern. The returned function closes
// it; the channel is closed afterwards.
func (b *Bus) Subscribe(pattern string, buffer int) (<-chan *dinesync.Msg, func()) {
	if buffer <= 0 {
		buffer = defaultBufferSize
	}
	s := &subscription{pattern: pattern, ch: make(chan *dinesync.Msg, buffer)}
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = s
	b.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(s.ch)
		})
	}
}

// Publish hands a copy of m to every subscription matching subject and
// returns the sequence number assigned to it. A subscription whose buffer
// is full misses the message.
func (b *Bus) Publish(subject string, m *dinesync.Msg) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	for _, s := range b.subs {
		if !Match(s.pattern, subject) {
			continue
		}
		c := *m
		c.Data = append([]byte(nil), m.Data...)
		c.Sequence = b.seq
		select {
		case s.ch <- &c:
		default:
			b.logger.Info("broadcast subscriber full, message dropped", "subject", subject, "pattern", s.pattern)
		}
	}
	return b.seq
}

// Match reports whether subject matches pattern. "*" matches exactly one
// token, a trailing ">" matches one or more tokens.
func Match(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")
	for i, p := range pt {
		if p == ">" {
			return i == len(pt)-1 && len(st) > i
		}
		if i >= len(st) {
			return false
		}
		if p != "*" && p != st[i] {
			return false
		}
	}
	return len(pt) == len(st)
}
