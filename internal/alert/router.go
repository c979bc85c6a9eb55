// Package alert decides how a scored transaction is delivered: an urgent
// notification now, or nothing until the daily digest picks it up.
package alert

import (
	"github.com/alanyoungcy/insiderwatch/internal/domain"
	"github.com/alanyoungcy/insiderwatch/internal/scoring"
)

// Decision is the routing outcome for one transaction.
type Decision string

const (
	// DecisionUrgent means the transaction should be notified immediately.
	DecisionUrgent Decision = "urgent"
	// DecisionNone means the transaction waits for the daily digest.
	DecisionNone Decision = "none"
)

// Router is a stateless routing decision. Duplicate-send protection lives in
// the alert audit trail, not here: every persisted transaction is considered
// on every run, and the existing urgent alert row is what suppresses resends.
type Router struct {
	cfg scoring.Config
}

// NewRouter creates a Router using the given scoring thresholds.
func NewRouter(cfg scoring.Config) *Router {
	return &Router{cfg: cfg}
}

// Route returns the delivery decision for a persisted scored transaction.
func (r *Router) Route(tx domain.Transaction) Decision {
	if r.cfg.IsUrgent(tx.Score, tx.Value) {
		return DecisionUrgent
	}
	return DecisionNone
}
