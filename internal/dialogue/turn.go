package dialogue

import (
	"log"

	"go-insure/internal/session"
)

const maxChain = 8

// turn holds everything a single turn changes. Nothing reaches the store
// until the engine commits it.
type turn struct {
	sess    *session.Session
	updates session.Updates
	lead    *session.Lead
	quote   *session.QuoteRecord
	depth   int
}

func newTurn(s *session.Session) *turn {
	return &turn{sess: s.Clone(), updates: session.Updates{}}
}

func (t *turn) phase() Phase {
	return ParsePhase(t.sess.ContextState)
}

// set applies u to the working copy and queues it for commit. Once the
// application phase has begun the selected policy cannot change.
func (t *turn) set(u session.Updates) {
	if v, ok := u[session.FieldSelectedPolicy]; ok && t.phase().ClosingStarted() {
		if id, _ := v.(string); id != t.sess.SelectedPolicy {
			log.Printf("[Engine] user %d: ignoring selected_policy change after application started", t.sess.UserID)
			delete(u, session.FieldSelectedPolicy)
		}
	}
	t.sess.Apply(u)
	t.updates.Merge(u)
}

func (t *turn) moveTo(p Phase) {
	t.set(session.Updates{session.FieldContextState: string(p)})
}
