// Package health implements the supplemental `/debug/health` endpoint
// (SPEC_FULL.md §3), ported close to verbatim from the teacher's health
// package: a named registry of Checker implementations, an async
// Updater for checks too expensive to run inline, and a JSON status
// handler returning 503 whenever any registered check is failing.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Palladinium/quartermaster/internal/dcontext"
)

func init() {
	DefaultRegistry = NewRegistry()
}

// Registry is a collection of checks. Most applications use the global
// DefaultRegistry; tests may construct their own to stay isolated.
type Registry struct {
	mu               sync.RWMutex
	registeredChecks map[string]Checker
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{registeredChecks: make(map[string]Checker)}
}

// DefaultRegistry is the registry used by StatusHandler.
var DefaultRegistry *Registry

// Checker reports nil when the service it checks is healthy.
type Checker interface {
	Check(context.Context) error
}

// CheckFunc adapts a plain func(context.Context) error to a Checker.
type CheckFunc func(context.Context) error

func (cf CheckFunc) Check(ctx context.Context) error { return cf(ctx) }

// Updater is a Checker whose status is set explicitly rather than
// computed on each Check call, for checks too expensive to run inline
// on every /debug/health request.
type Updater interface {
	Checker
	Update(status error)
}

type updater struct {
	mu     sync.Mutex
	status error
}

func (u *updater) Check(context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status
}

func (u *updater) Update(status error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = status
}

// NewStatusUpdater returns an Updater with no initial status (healthy).
func NewStatusUpdater() Updater {
	return &updater{}
}

// Poll periodically runs c at interval and feeds the result to u, until
// ctx is done.
func Poll(ctx context.Context, u Updater, c Checker, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			u.Update(ctx.Err())
			return
		case <-t.C:
			u.Update(c.Check(ctx))
		}
	}
}

// CheckStatus returns the error message of every currently-failing check.
func (r *Registry) CheckStatus(ctx context.Context) map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make(map[string]string)
	for name, checker := range r.registeredChecks {
		if err := checker.Check(ctx); err != nil {
			statuses[name] = err.Error()
		}
	}
	return statuses
}

// CheckStatus reports failing checks from DefaultRegistry.
func CheckStatus(ctx context.Context) map[string]string {
	return DefaultRegistry.CheckStatus(ctx)
}

// Register associates checker with name. Panics on a duplicate name,
// since that only happens at package init time and indicates a
// build-time bug.
func (r *Registry) Register(name string, checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.registeredChecks[name]; exists {
		panic("health: check already registered: " + name)
	}
	r.registeredChecks[name] = checker
}

// Register associates checker with name in DefaultRegistry.
func Register(name string, checker Checker) {
	DefaultRegistry.Register(name, checker)
}

// StatusHandler serves the registered checks' current status as JSON,
// returning 503 if any check is failing and 200 otherwise.
func StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	checks := CheckStatus(r.Context())
	status := http.StatusOK
	if len(checks) != 0 {
		status = http.StatusServiceUnavailable
	}
	writeStatus(w, r, status, checks)
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int, checks map[string]string) {
	body, err := json.Marshal(checks)
	if err != nil {
		dcontext.GetLogger(r.Context()).WithError(err).Error("health: serializing status")
		body = []byte(`{"server_error":"could not serialize health status"}`)
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}
