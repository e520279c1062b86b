// Package keepalive polls the API's ping endpoint on a fixed interval so an
// idle host does not put it to sleep, and tracks the outcome of every ping.
package keepalive

import (
	"sync"
	"time"
)

// Status is a point-in-time copy of the poller counters.
type Status struct {
	LastPingTime        *time.Time `json:"last_ping_time"`
	LastPingStatus      string     `json:"last_ping_status"`
	PingCount           int64      `json:"ping_count"`
	SuccessCount        int64      `json:"success_count"`
	FailureCount        int64      `json:"failure_count"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
}

// State holds the counters. The poller goroutine is the only writer;
// HTTP handlers and metric collectors read through Snapshot.
type State struct {
	mu sync.RWMutex
	s  Status
}

// Snapshot returns a copy that is safe to use without the lock.
func (st *State) Snapshot() Status {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := st.s
	if st.s.LastPingTime != nil {
		t := *st.s.LastPingTime
		out.LastPingTime = &t
	}
	return out
}

// record applies one ping result and returns the consecutive failure count.
func (st *State) record(at time.Time, ok bool, status string) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.LastPingTime = &at
	st.s.LastPingStatus = status
	st.s.PingCount++
	if ok {
		st.s.SuccessCount++
		st.s.ConsecutiveFailures = 0
	} else {
		st.s.FailureCount++
		st.s.ConsecutiveFailures++
	}
	return st.s.ConsecutiveFailures
}
