package observability

import (
	"strconv"
	"sync"
	"time"
)

// Gate decision labels.
const (
	GateAllow                = "allow"
	GateRedirectLogin        = "redirect_login"
	GateRedirectUnauthorized = "redirect_unauthorized"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	gateDecisions map[string]int64
	loginOutcomes map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		gateDecisions: make(map[string]int64),
		loginOutcomes: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordGateDecision increments the counter for a gate outcome.
func (m *Metrics) RecordGateDecision(path, decision string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gateDecisions[path+"|"+decision]++
}

// RecordLoginOutcome tracks login successes and (throttled) failures.
func (m *Metrics) RecordLoginOutcome(outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginOutcomes[outcome]++
}

// GateDecisionCount returns the recorded count for a path/decision pair.
func (m *Metrics) GateDecisionCount(path, decision string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gateDecisions[path+"|"+decision]
}

// LoginOutcomeCount returns the recorded count for a login outcome.
func (m *Metrics) LoginOutcomeCount(outcome string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginOutcomes[outcome]
}
