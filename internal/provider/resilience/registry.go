package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ProviderHealth is a point-in-time view of one upstream.
type ProviderHealth struct {
	Name         string
	CircuitState gobreaker.State
	Counts       gobreaker.Counts

	// LastSuccessAt and LastFailureAt are nil until the first call of that
	// outcome completes.
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// IsHealthy reports a closed circuit.
func (h *ProviderHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// IsDegraded reports a half-open circuit that is probing the upstream.
func (h *ProviderHealth) IsDegraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// IsUnhealthy reports an open circuit.
func (h *ProviderHealth) IsUnhealthy() bool {
	return h.CircuitState == gobreaker.StateOpen
}

// Registry records call outcomes for each resilient client so the ops
// endpoints and the worker health check can report upstream status.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*tracked
}

type tracked struct {
	client    *Client
	successAt *time.Time
	failureAt *time.Time
	lastErr   string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*tracked)}
}

// Register adds client under name, replacing any earlier client of that name.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = &tracked{client: client}
}

// Unregister removes name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, name)
}

// RecordSuccess marks a successful call. Unknown names are ignored.
func (r *Registry) RecordSuccess(name string) {
	r.update(name, func(t *tracked, now *time.Time) { t.successAt = now })
}

// RecordFailure marks a failed call. Unknown names are ignored.
func (r *Registry) RecordFailure(name string, err error) {
	r.update(name, func(t *tracked, now *time.Time) {
		t.failureAt = now
		if err != nil {
			t.lastErr = err.Error()
		}
	})
}

func (r *Registry) update(name string, fn func(t *tracked, now *time.Time)) {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.clients[name]; ok {
		fn(t, &now)
	}
}

func (t *tracked) health(name string) *ProviderHealth {
	return &ProviderHealth{
		Name:          name,
		CircuitState:  t.client.CircuitBreakerState(),
		Counts:        t.client.CircuitBreakerCounts(),
		LastSuccessAt: t.successAt,
		LastFailureAt: t.failureAt,
		LastError:     t.lastErr,
	}
}

// GetHealth returns the health of name, or nil if it is not registered.
func (r *Registry) GetHealth(name string) *ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.clients[name]
	if !ok {
		return nil
	}
	return t.health(name)
}

// GetAllHealth returns every registered upstream ordered by name.
func (r *Registry) GetAllHealth() []*ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*ProviderHealth, 0, len(r.clients))
	for name, t := range r.clients {
		all = append(all, t.health(name))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// ProviderCount returns the number of registered upstreams.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Overall status values reported by Summary.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Summary collapses upstream health into one status: unhealthy when every
// circuit is open, degraded when any circuit is not closed. An empty
// registry is healthy.
func (r *Registry) Summary() string {
	all := r.GetAllHealth()
	open, notClosed := 0, 0
	for _, h := range all {
		if h.IsUnhealthy() {
			open++
		}
		if !h.IsHealthy() {
			notClosed++
		}
	}
	switch {
	case len(all) > 0 && open == len(all):
		return StatusUnhealthy
	case notClosed > 0:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}
