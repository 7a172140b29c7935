package eventbus

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrClosed = errors.New("event bus closed")

// Envelope is what subscribers receive.
type Envelope struct {
	Topic       string    `json:"topic"`
	Payload     any       `json:"payload"`
	PublishedAt time.Time `json:"published_at"`
}

// Bus is a small in-process publish/subscribe hub. Publishing never blocks:
// a subscriber whose buffer is full misses the message.
type Bus struct {
	mu         sync.RWMutex
	subs       map[string]map[uint64]chan Envelope
	nextID     uint64
	bufferSize int
	closed     bool
	dropped    int64
}

func New(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Bus{
		subs:       make(map[string]map[uint64]chan Envelope),
		bufferSize: bufferSize,
	}
}

func (b *Bus) Publish(topic string, payload any) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}
	env := Envelope{Topic: topic, Payload: payload, PublishedAt: time.Now().UTC()}
	for id, ch := range b.subs[topic] {
		select {
		case ch <- env:
		default:
			atomic.AddInt64(&b.dropped, 1)
			logrus.Warnf("[EVENTBUS] Subscriber %d on %s is full, dropping message", id, topic)
		}
	}
	return nil
}

// Subscribe returns a channel of topic messages and the function that ends
// the subscription and closes the channel.
func (b *Bus) Subscribe(topic string) (<-chan Envelope, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Envelope, b.bufferSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.nextID++
	id := b.nextID
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]chan Envelope)
	}
	b.subs[topic][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[topic][id]; ok {
				delete(b.subs[topic], id)
				close(sub)
			}
		})
	}
}

func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *Bus) Dropped() int64 {
	return atomic.LoadInt64(&b.dropped)
}

// Close ends every subscription. Later publishes fail with ErrClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for topic, subs := range b.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(b.subs, topic)
	}
}
