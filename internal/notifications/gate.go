package notifications

import (
	"sync"

	"github.com/google/uuid"
)

// Gate suppresses duplicate confirmation emails within one process. The
// durable notified_at column covers restarts; this keeps two IPN deliveries
// racing inside the same process from both firing the mailer.
type Gate struct {
	mu   sync.Mutex
	seen map[uuid.UUID]struct{}
}

// NewGate builds an empty gate.
func NewGate() *Gate {
	return &Gate{seen: make(map[uuid.UUID]struct{})}
}

// TryAcquire reports whether the caller is the first to claim the
// enrollment. Later callers get false.
func (g *Gate) TryAcquire(enrollmentID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.seen[enrollmentID]; ok {
		return false
	}
	g.seen[enrollmentID] = struct{}{}
	return true
}

// Release drops the claim so a failed send can be retried by a later IPN.
func (g *Gate) Release(enrollmentID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, enrollmentID)
}
