// Package dialogue runs the insurance advisory conversation: it routes each
// turn to the current phase handler or to the digression handler and
// commits the turn's changes atomically.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-insure/internal/catalog"
	"go-insure/internal/extract"
	"go-insure/internal/intent"
	"go-insure/internal/llm"
	"go-insure/internal/metrics"
	"go-insure/internal/retrieval"
	"go-insure/internal/session"
)

// Store is the session persistence the engine needs.
type Store interface {
	Load(ctx context.Context, identifier string) (*session.Session, error)
	Commit(ctx context.Context, c session.Commit) error
}

// Catalog resolves policies shown to the user.
type Catalog interface {
	GetByID(ctx context.Context, policyID string) (*catalog.Policy, error)
	GetByName(ctx context.Context, name string) (*catalog.Policy, error)
}

type Dependencies struct {
	Store     Store
	Catalog   Catalog
	Retriever retrieval.Retriever
	LLM       llm.Generator
	Locker    Locker
	// TopK is how many documents a recommendation run retrieves before re-ranking.
	TopK int
	Now  func() time.Time
	// QuoteNumber generates a unique quote reference.
	QuoteNumber func(time.Time) string
}

type Engine struct {
	store       Store
	catalog     Catalog
	retriever   retrieval.Retriever
	llm         llm.Generator
	locker      Locker
	topK        int
	now         func() time.Time
	quoteNumber func(time.Time) string
}

func NewEngine(deps Dependencies) *Engine {
	e := &Engine{
		store:       deps.Store,
		catalog:     deps.Catalog,
		retriever:   deps.Retriever,
		llm:         deps.LLM,
		locker:      deps.Locker,
		topK:        deps.TopK,
		now:         deps.Now,
		quoteNumber: deps.QuoteNumber,
	}
	if e.locker == nil {
		e.locker = NewLocalLocker()
	}
	if e.topK <= 0 {
		e.topK = 8
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.quoteNumber == nil {
		e.quoteNumber = newQuoteNumber
	}
	return e
}

func newQuoteNumber(now time.Time) string {
	return fmt.Sprintf("QT-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}

// HandleTurn processes one message. Only a missing identifier is returned
// as an error; every other failure becomes the fallback reply with nothing
// persisted.
func (e *Engine) HandleTurn(ctx context.Context, msg Message) (*Reply, error) {
	id := strings.TrimSpace(msg.Identifier)
	if id == "" {
		return nil, ErrMissingIdentifier
	}
	start := e.now()

	unlock, err := e.locker.Lock(ctx, id)
	if err != nil {
		log.Printf("[Engine] %s: lock failed: %v", id, err)
		metrics.TurnsTotal.WithLabelValues("unknown", "lock_error").Inc()
		return FallbackReply(), nil
	}
	defer unlock()

	sess, err := e.store.Load(ctx, id)
	if err != nil {
		log.Printf("[Engine] %s: load failed: %v", id, err)
		metrics.TurnsTotal.WithLabelValues("unknown", "error").Inc()
		return FallbackReply(), nil
	}
	startPhase := ParsePhase(sess.ContextState)

	t := newTurn(sess)
	reply, err := e.route(ctx, t, msg)
	if err != nil {
		var ce *CollaboratorError
		if errors.As(err, &ce) {
			log.Printf("[Engine] user %d: %s failed in %s: %v", sess.UserID, ce.Collaborator, startPhase, ce.Err)
		} else {
			log.Printf("[Engine] user %d: turn failed in %s: %v", sess.UserID, startPhase, err)
		}
		metrics.TurnsTotal.WithLabelValues(string(startPhase), "error").Inc()
		return FallbackReply(), nil
	}
	if msg.isEmpty() {
		reply.ChatHistory = sess.ChatHistory
	}

	commit := session.Commit{
		UserID:  sess.UserID,
		Updates: t.updates,
		Chat:    chatEntries(msg, reply),
		Lead:    t.lead,
		Quote:   t.quote,
	}
	if err := e.store.Commit(ctx, commit); err != nil {
		log.Printf("[Engine] user %d: commit failed: %v", sess.UserID, err)
		metrics.TurnsTotal.WithLabelValues(string(startPhase), "error").Inc()
		return FallbackReply(), nil
	}
	if t.lead != nil {
		metrics.LeadsTotal.Inc()
	}
	if t.quote != nil {
		metrics.QuotesTotal.Inc()
	}
	metrics.TurnsTotal.WithLabelValues(string(startPhase), "ok").Inc()
	metrics.TurnDuration.WithLabelValues(string(startPhase)).Observe(e.now().Sub(start).Seconds())
	log.Printf("[Engine] user %d: %s -> %s", sess.UserID, startPhase, t.phase())
	return reply, nil
}

func chatEntries(msg Message, reply *Reply) []session.ChatEntry {
	var entries []session.ChatEntry
	switch {
	case msg.Form != nil:
		entries = append(entries, session.ChatEntry{Role: session.RoleUser, Text: "[submitted quotation form]"})
	case strings.TrimSpace(msg.Text) != "":
		entries = append(entries, session.ChatEntry{Role: session.RoleUser, Text: strings.TrimSpace(msg.Text)})
	}
	if reply.Answer != "" {
		entries = append(entries, session.ChatEntry{Role: session.RoleAssistant, Text: reply.Answer})
	}
	return entries
}

func (e *Engine) route(ctx context.Context, t *turn, msg Message) (*Reply, error) {
	in := input{text: extract.CleanOption(msg.Text), form: msg.Form}
	p := t.phase()

	if in.form == nil && in.text != "" {
		if r, ok, err := e.navigate(ctx, t, in.text); ok {
			return r, err
		}
		if p.IsTerminal() || (!answersPhase(p, in.text) && intent.IsDigression(in.text, p.exceptions())) {
			return e.digress(ctx, t, in.text)
		}
	}
	return e.dispatch(ctx, t, p, in)
}

// navigate handles the global commands offered by the fallback reply.
// They are ignored once the application has started.
func (e *Engine) navigate(ctx context.Context, t *turn, text string) (*Reply, bool, error) {
	if t.phase().ClosingStarted() {
		return nil, false, nil
	}
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "start over", "restart":
		t.set(session.Updates{
			session.FieldContextState:         string(InitialPhase),
			session.FieldShownRecommendations: []session.ShownPolicy{},
			session.FieldRetrievedDocs:        []string{},
			session.FieldSelectedPolicy:       "",
			session.FieldStateBeforeDiversion: "",
		})
		r, err := e.dispatch(ctx, t, InitialPhase, input{})
		return r, true, err
	case "get policy recommendations", "get recommendations":
		r, err := e.dispatch(ctx, t, PhaseRecommendation, input{})
		return r, true, err
	case "speak to agent", "talk to an agent", "speak to an agent":
		r, err := e.prompt(ctx, t, t.phase())
		if err != nil {
			return nil, true, err
		}
		return &Reply{Answer: agentHandoff + "\n\n" + r.Answer, Options: r.Options, InputType: r.InputType}, true, nil
	}
	return nil, false, nil
}

// dispatch runs the handler for phase p.
func (e *Engine) dispatch(ctx context.Context, t *turn, p Phase, in input) (*Reply, error) {
	t.depth++
	if t.depth > maxChain {
		return nil, errChainTooDeep
	}
	if step, ok := onboardingSteps[p]; ok {
		return e.handleOnboarding(ctx, t, step, in)
	}
	switch p {
	case PhaseRecommendation:
		return e.handleRecommendation(ctx, t, in)
	case PhaseRecommendationGiven:
		return e.handleRecommendationGiven(ctx, t, in)
	case PhaseQuotation:
		return e.handleQuotation(ctx, t, in)
	case PhaseQuoteDisplayed:
		return e.handleQuoteDisplayed(ctx, t, in)
	case PhaseApplication:
		return e.handleApplication(ctx, t, in)
	case PhaseContactCapture:
		return e.handleContactCapture(ctx, t, in)
	case PhaseEmailCapture:
		return e.handleEmailCapture(ctx, t, in)
	case PhaseFollowUp:
		return e.followUpPrompt(t), nil
	}
	return e.dispatch(ctx, t, InitialPhase, in)
}

// advance moves to next and immediately runs its handler with empty input.
func (e *Engine) advance(ctx context.Context, t *turn, next Phase) (*Reply, error) {
	t.moveTo(next)
	return e.dispatch(ctx, t, next, input{})
}

// prompt is the side-effect free question for phase p, used to resume
// after a digression or a navigation command.
func (e *Engine) prompt(ctx context.Context, t *turn, p Phase) (*Reply, error) {
	if step, ok := onboardingSteps[p]; ok {
		return step.promptReply(t.sess), nil
	}
	switch p {
	case PhaseRecommendation:
		return &Reply{
			Answer:  "Shall I find the policies that best match your profile?",
			Options: []string{"Get Policy Recommendations"},
		}, nil
	case PhaseRecommendationGiven:
		return e.givenPrompt(t), nil
	case PhaseQuotation:
		return &Reply{Answer: resumeFormAnswer, InputType: InputForm}, nil
	case PhaseQuoteDisplayed:
		return e.quotePrompt(t), nil
	case PhaseApplication, PhaseContactCapture:
		return contactPrompt(), nil
	case PhaseEmailCapture:
		return emailPrompt(), nil
	case PhaseFollowUp:
		return e.followUpPrompt(t), nil
	}
	return onboardingSteps[InitialPhase].promptReply(t.sess), nil
}

// search runs retrieval and swallows failures: callers treat errors as no results.
func (e *Engine) search(ctx context.Context, query string, k int) []retrieval.Document {
	if e.retriever == nil {
		return nil
	}
	docs, err := e.retriever.Search(ctx, query, k)
	if err != nil {
		log.Printf("[Engine] retrieval failed for %q: %v", query, err)
		return nil
	}
	return docs
}

// lookupPolicy resolves a shown policy by id, then by name.
func (e *Engine) lookupPolicy(ctx context.Context, sp session.ShownPolicy) (*catalog.Policy, error) {
	if sp.PolicyID != "" {
		p, err := e.catalog.GetByID(ctx, sp.PolicyID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			return nil, &CollaboratorError{Collaborator: "catalog", Err: err}
		}
	}
	p, err := e.catalog.GetByName(ctx, sp.Name)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return nil, &CollaboratorError{Collaborator: "catalog", Err: err}
	}
	return p, err
}

// selectedPolicyName is the display name of the chosen policy.
func (e *Engine) selectedPolicyName(t *turn) string {
	for _, sp := range t.sess.ShownRecommendations {
		if sp.PolicyID == t.sess.SelectedPolicy && sp.Name != "" {
			return sp.Name
		}
	}
	if t.sess.SelectedPolicy != "" {
		return t.sess.SelectedPolicy
	}
	return "your selected policy"
}
