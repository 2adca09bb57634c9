package dialogue

import (
	"context"
	"log"
	"regexp"
	"strings"

	"go-insure/internal/intent"
	"go-insure/internal/session"
)

var (
	emailRe = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	nameRe  = regexp.MustCompile(`^\p{L}[\p{L}.' -]*$`)
)

const maxNameWords = 4

// answersPhase reports whether text already has the shape of the answer
// the closing phases ask for, so cue words inside an email or a name
// ("how.ard@...", "Sam How") are not read as a question.
func answersPhase(p Phase, text string) bool {
	switch p {
	case PhaseEmailCapture:
		return emailRe.MatchString(text)
	case PhaseContactCapture:
		return looksLikeName(text)
	}
	return false
}

func looksLikeName(text string) bool {
	text = strings.TrimSpace(text)
	if !nameRe.MatchString(text) || len(strings.Fields(text)) > maxNameWords {
		return false
	}
	return !intent.StartsWithCue(text)
}

func contactPrompt() *Reply {
	return &Reply{Answer: "To continue your application, I need your full name.", InputType: InputText}
}

func emailPrompt() *Reply {
	return &Reply{Answer: "Could you provide your email address?", InputType: InputText}
}

func (e *Engine) handleApplication(ctx context.Context, t *turn, in input) (*Reply, error) {
	t.moveTo(PhaseContactCapture)
	return &Reply{
		Answer:    "Great! To start your application for **" + e.selectedPolicyName(t) + "**, I need your full name.",
		InputType: InputText,
	}, nil
}

func (e *Engine) handleContactCapture(ctx context.Context, t *turn, in input) (*Reply, error) {
	name := strings.TrimSpace(in.text)
	if len(name) <= 2 {
		return &Reply{Answer: "Please provide your full name.", InputType: InputText}, nil
	}
	t.set(session.Updates{
		session.FieldName:         name,
		session.FieldContextState: string(PhaseEmailCapture),
	})
	return &Reply{Answer: "Thanks, " + name + "! Now, could you provide your email address?", InputType: InputText}, nil
}

func (e *Engine) handleEmailCapture(ctx context.Context, t *turn, in input) (*Reply, error) {
	email := emailRe.FindString(in.text)
	if email == "" {
		return &Reply{Answer: "Please provide a valid email address (e.g., you@example.com).", InputType: InputText}, nil
	}
	t.set(session.Updates{
		session.FieldEmail:        email,
		session.FieldContextState: string(PhaseFollowUp),
	})
	lead := &session.Lead{
		Name:          t.sess.Name,
		ContactMethod: "email",
		ContactValue:  email,
	}
	if id := t.sess.SelectedPolicy; id != "" {
		lead.PolicyID = &id
	}
	t.lead = lead
	log.Printf("[Engine] user %d: lead captured for policy %q", t.sess.UserID, t.sess.SelectedPolicy)

	name := t.sess.Name
	if name == "" {
		name = "there"
	}
	return &Reply{
		Answer:    "Thank you, " + name + "! A confirmation will be sent to " + email + ". Our team will contact you shortly.",
		InputType: InputText,
	}, nil
}

func (e *Engine) followUpPrompt(t *turn) *Reply {
	return &Reply{
		Answer:    "Your application for " + e.selectedPolicyName(t) + " is with our team. Feel free to ask me anything about your policy in the meantime.",
		InputType: InputText,
	}
}
