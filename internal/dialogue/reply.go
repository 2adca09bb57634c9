package dialogue

import (
	"strings"

	"go-insure/internal/quote"
	"go-insure/internal/session"
)

// Input types tell the client how to collect the next answer.
const (
	InputText = "text"
	InputForm = "multi_step_form"
)

// Message is one inbound turn. Form carries a structured quotation payload.
type Message struct {
	Identifier string            `json:"phone_number"`
	Text       string            `json:"query"`
	Form       map[string]string `json:"form,omitempty"`
}

func (m Message) isEmpty() bool {
	return strings.TrimSpace(m.Text) == "" && m.Form == nil
}

// Reply is the outbound turn.
type Reply struct {
	Answer      string              `json:"answer"`
	Options     []string            `json:"options,omitempty"`
	InputType   string              `json:"input_type,omitempty"`
	QuoteData   *QuoteData          `json:"quote_data,omitempty"`
	ChatHistory []session.ChatEntry `json:"chat_history,omitempty"`
}

// QuoteData is the structured quotation returned with a quote reply.
type QuoteData struct {
	QuoteNumber      string `json:"quote_number"`
	PolicyID         string `json:"policy_id,omitempty"`
	PolicyName       string `json:"policy_name,omitempty"`
	PlanType         string `json:"plan_type"`
	PayoutFrequency  string `json:"payout_frequency"`
	PremiumFrequency string `json:"premium_frequency,omitempty"`
	quote.Breakdown
}

// input is what a phase handler sees: cleaned text or a form payload.
type input struct {
	text string
	form map[string]string
}

func (in input) empty() bool {
	return in.text == "" && in.form == nil
}
