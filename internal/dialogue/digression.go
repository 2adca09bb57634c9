package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"go-insure/internal/metrics"
	"go-insure/internal/session"
)

const (
	digressionDocs    = 3
	digressionHistory = 6
)

var errNoGenerator = errors.New("no generator configured")

const digressionTemplate = `You are a helpful and knowledgeable insurance assistant. Keep your answer concise, ideally under 40 words.

User profile:
{{profile}}

Selected policy:
{{selected}}

Recent conversation:
{{history}}

Retrieved documents:
{{context}}

User question:
{{question}}

Instructions:
1. Answer using the retrieved documents together with the profile and conversation.
2. If the question is subjective ("which is better for me?", "what should I choose?"), do not recommend a policy directly. Point out the key differences from the documents and the personal factors the user should weigh (age, budget, goals, risk tolerance).
3. If the documents do not contain the answer, say you do not have that information.

Answer:`

// digress answers an off-flow question and then returns the user to the
// phase they left. The phase itself never changes here, so the resume
// point is always the current phase.
func (e *Engine) digress(ctx context.Context, t *turn, question string) (*Reply, error) {
	resume := t.phase()
	back, err := e.prompt(ctx, t, resume)
	if err != nil {
		return nil, err
	}

	answer, err := e.answer(ctx, t, question)
	if err != nil {
		log.Printf("[Engine] user %d: digression in %s failed: %v", t.sess.UserID, resume, err)
		metrics.DigressionsTotal.WithLabelValues(string(resume), "failed").Inc()
		return &Reply{Answer: apologyAnswer, Options: back.Options, InputType: back.InputType}, nil
	}
	metrics.DigressionsTotal.WithLabelValues(string(resume), "answered").Inc()
	t.set(session.Updates{session.FieldStateBeforeDiversion: string(resume)})

	switch {
	case resume.usesForm():
		return &Reply{Answer: answer + "\n\n" + resumeFormAnswer, InputType: InputForm}, nil
	case resume.IsTerminal():
		return &Reply{Answer: answer, InputType: InputText}, nil
	}
	return &Reply{
		Answer:    answer + "\n\nNow, back to where we were. " + back.Answer,
		Options:   back.Options,
		InputType: back.InputType,
	}, nil
}

func (e *Engine) answer(ctx context.Context, t *turn, question string) (string, error) {
	if e.llm == nil {
		return "", errNoGenerator
	}
	text, err := e.llm.Generate(ctx, e.digressionPrompt(ctx, t, question))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (e *Engine) digressionPrompt(ctx context.Context, t *turn, question string) string {
	var docs []string
	for _, d := range e.search(ctx, question, digressionDocs) {
		docs = append(docs, d.Content)
	}
	docs = append(docs, t.sess.RetrievedDocs...)

	profile, err := json.Marshal(t.sess.Profile())
	if err != nil {
		profile = []byte("{}")
	}
	selected := e.selectedPolicyDetails(ctx, t)
	if selected == "" {
		selected = "None"
	}

	r := strings.NewReplacer(
		"{{profile}}", string(profile),
		"{{selected}}", selected,
		"{{history}}", recentHistory(t.sess.ChatHistory, digressionHistory),
		"{{context}}", strings.Join(docs, "\n\n"),
		"{{question}}", question,
	)
	return r.Replace(digressionTemplate)
}

func recentHistory(history []session.ChatEntry, n int) string {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	lines := make([]string, 0, len(history))
	for _, h := range history {
		lines = append(lines, h.Role+": "+h.Text)
	}
	return strings.Join(lines, "\n")
}
