package chatmonitor

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	StageInbound  = "inbound"
	StageRoute    = "route"
	StageFlow     = "flow"
	StageOutbound = "outbound"

	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

type Event struct {
	Timestamp  time.Time         `json:"timestamp"`
	Sender     string            `json:"sender"`
	Role       string            `json:"role,omitempty"`
	Stage      string            `json:"stage"`  // inbound | route | flow | outbound
	Kind       string            `json:"kind"`   // text | interactive | buttons | template
	Status     string            `json:"status"` // ok | error | skipped
	Simulated  bool              `json:"simulated,omitempty"`
	Error      string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	DurationMs int64             `json:"duration_ms,omitempty"`
}

type Stats struct {
	TotalInbound   int64   `json:"total_inbound"`
	TotalOutbound  int64   `json:"total_outbound"`
	TotalSimulated int64   `json:"total_simulated"`
	TotalSkipped   int64   `json:"total_skipped"`
	TotalErrors    int64   `json:"total_errors"`
	RecentEvents   []Event `json:"recent_events"`
}

// Monitor keeps the last N conversation events in a ring buffer plus running totals.
// A nil *Monitor ignores every call.
type Monitor struct {
	eventsMu sync.Mutex
	events   []Event
	idx      int
	count    int
	ttl      time.Duration

	totalInbound   int64
	totalOutbound  int64
	totalSimulated int64
	totalSkipped   int64
	totalErrors    int64
}

// New creates a monitor holding size events; events older than ttl are hidden
// from GetStats (0 keeps them all).
func New(size int, ttl time.Duration) *Monitor {
	if size <= 0 {
		size = 200
	}
	return &Monitor{events: make([]Event, size), ttl: ttl}
}

func (m *Monitor) Record(e Event) {
	if m == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	switch e.Stage {
	case StageInbound:
		atomic.AddInt64(&m.totalInbound, 1)
	case StageOutbound:
		if e.Status == StatusOK {
			atomic.AddInt64(&m.totalOutbound, 1)
			if e.Simulated {
				atomic.AddInt64(&m.totalSimulated, 1)
			}
		}
	}

	switch e.Status {
	case StatusError:
		atomic.AddInt64(&m.totalErrors, 1)
	case StatusSkipped:
		atomic.AddInt64(&m.totalSkipped, 1)
	}

	m.eventsMu.Lock()
	m.events[m.idx] = e
	m.idx = (m.idx + 1) % len(m.events)
	if m.count < len(m.events) {
		m.count++
	}
	m.eventsMu.Unlock()
}

func (m *Monitor) GetStats() Stats {
	if m == nil {
		return Stats{RecentEvents: []Event{}}
	}
	m.eventsMu.Lock()
	defer m.eventsMu.Unlock()

	res := make([]Event, 0, m.count)
	cutoff := time.Time{}
	if m.ttl > 0 {
		cutoff = time.Now().UTC().Add(-m.ttl)
	}
	start := (m.idx - m.count) % len(m.events)
	if start < 0 {
		start += len(m.events)
	}
	for i := 0; i < m.count; i++ {
		e := m.events[(start+i)%len(m.events)]
		if !cutoff.IsZero() && e.Timestamp.Before(cutoff) {
			continue
		}
		res = append(res, e)
	}

	return Stats{
		TotalInbound:   atomic.LoadInt64(&m.totalInbound),
		TotalOutbound:  atomic.LoadInt64(&m.totalOutbound),
		TotalSimulated: atomic.LoadInt64(&m.totalSimulated),
		TotalSkipped:   atomic.LoadInt64(&m.totalSkipped),
		TotalErrors:    atomic.LoadInt64(&m.totalErrors),
		RecentEvents:   res,
	}
}
