package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"go-insure/internal/extract"
	"go-insure/internal/intent"
	"go-insure/internal/quote"
	"go-insure/internal/session"
)

const sameAsPolicyTerm = "same as policy term"

var validate = validator.New()

// quotationForm is the validated shape of a submitted quotation form.
// Keys arrive either as conversation names or storage column names.
type quotationForm struct {
	DOB                string `validate:"omitempty,datetime=2006-01-02"`
	Gender             string `validate:"omitempty,oneof=male female other"`
	Nationality        string `validate:"omitempty,max=64"`
	MaritalStatus      string `validate:"omitempty,max=32"`
	Education          string `validate:"omitempty,max=64"`
	GSTApplicable      string `validate:"omitempty,oneof=yes no"`
	PlanType           string `validate:"omitempty,max=128"`
	PolicyTerm         string `validate:"omitempty,numeric"`
	PremiumPaymentTerm string `validate:"omitempty,max=32"`
	PremiumFrequency   string `validate:"omitempty,max=32"`
	PayoutFrequency    string `validate:"omitempty,max=64"`
	Coverage           string `validate:"omitempty,max=64"`
	Budget             string `validate:"omitempty,max=64"`
}

var formLabels = map[string]string{
	"DOB":                "date of birth (YYYY-MM-DD)",
	"Gender":             "gender",
	"Nationality":        "nationality",
	"MaritalStatus":      "marital status",
	"Education":          "education",
	"GSTApplicable":      "GST applicable",
	"PlanType":           "plan type",
	"PolicyTerm":         "policy term",
	"PremiumPaymentTerm": "premium payment term",
	"PremiumFrequency":   "premium frequency",
	"PayoutFrequency":    "payout frequency",
	"Coverage":           "coverage amount",
	"Budget":             "budget",
}

// quoteRequirements lists what a quote needs, in the order they are reported.
var quoteRequirements = []struct {
	label   string
	present func(*session.Session) bool
}{
	{"a plan type", func(s *session.Session) bool { return s.PlanType != "" }},
	{"a policy term", func(s *session.Session) bool { return s.PolicyTerm > 0 }},
	{"a premium payment term", func(s *session.Session) bool { return s.PremiumPaymentTerm > 0 }},
	{"a payout frequency", func(s *session.Session) bool { return s.PayoutFrequency != "" }},
	{"your date of birth", func(s *session.Session) bool { return s.DOB != "" }},
}

func newQuotationForm(raw map[string]string) quotationForm {
	norm := map[string]string{}
	for k, v := range raw {
		norm[session.FieldFor(strings.ToLower(strings.TrimSpace(k)))] = strings.TrimSpace(v)
	}
	return quotationForm{
		DOB:                norm[session.FieldDOB],
		Gender:             strings.ToLower(norm[session.FieldGender]),
		Nationality:        norm[session.FieldNationality],
		MaritalStatus:      norm[session.FieldMaritalStatus],
		Education:          norm[session.FieldEducation],
		GSTApplicable:      strings.ToLower(norm[session.FieldGSTApplicable]),
		PlanType:           norm[session.FieldPlanType],
		PolicyTerm:         norm[session.FieldPolicyTerm],
		PremiumPaymentTerm: norm[session.FieldPremiumPaymentTerm],
		PremiumFrequency:   norm[session.FieldPremiumFrequency],
		PayoutFrequency:    norm[session.FieldPayoutFrequency],
		Coverage:           norm[session.FieldCoverage],
		Budget:             norm[session.FieldBudget],
	}
}

// updates converts the form into session updates. Blank entries are left
// out so earlier answers survive.
func (f quotationForm) updates(current *session.Session) (session.Updates, []string) {
	u := session.Updates{}
	var invalid []string
	str := func(field, v string) {
		if v != "" {
			u[field] = v
		}
	}
	str(session.FieldDOB, f.DOB)
	str(session.FieldGender, f.Gender)
	str(session.FieldNationality, f.Nationality)
	str(session.FieldMaritalStatus, f.MaritalStatus)
	str(session.FieldEducation, f.Education)
	str(session.FieldGSTApplicable, f.GSTApplicable)
	str(session.FieldPlanType, f.PlanType)
	str(session.FieldPremiumFrequency, f.PremiumFrequency)
	str(session.FieldPayoutFrequency, f.PayoutFrequency)

	term := int64(current.PolicyTerm)
	if f.PolicyTerm != "" {
		n, ok := extract.Extract(f.PolicyTerm, extract.Term)
		if !ok {
			invalid = append(invalid, formLabels["PolicyTerm"])
		} else {
			term = n
			u[session.FieldPolicyTerm] = n
		}
	}
	switch {
	case strings.EqualFold(f.PremiumPaymentTerm, sameAsPolicyTerm):
		if term > 0 {
			u[session.FieldPremiumPaymentTerm] = term
		}
	case f.PremiumPaymentTerm != "":
		n, ok := extract.Extract(f.PremiumPaymentTerm, extract.Term)
		if !ok {
			invalid = append(invalid, formLabels["PremiumPaymentTerm"])
		} else {
			u[session.FieldPremiumPaymentTerm] = n
		}
	}
	if f.Coverage != "" {
		if n, ok := extract.Extract(f.Coverage, extract.Coverage); ok {
			u[session.FieldCoverage] = n
		} else {
			invalid = append(invalid, formLabels["Coverage"])
		}
	}
	if f.Budget != "" {
		if n, ok := extract.Extract(f.Budget, extract.Budget); ok {
			u[session.FieldBudget] = n
		} else {
			invalid = append(invalid, formLabels["Budget"])
		}
	}
	return u, invalid
}

func validationLabels(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	labels := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		labels = append(labels, formLabels[fe.Field()])
	}
	return labels
}

func formRetry(problems []string) *Reply {
	return &Reply{
		Answer:    "Some details in the form need another look: " + strings.Join(problems, ", ") + ". Please correct them and submit the form again.",
		InputType: InputForm,
	}
}

func (e *Engine) handleQuotation(ctx context.Context, t *turn, in input) (*Reply, error) {
	if in.form == nil {
		if in.text != "" {
			log.Printf("[Engine] user %d: text in %s, asking for the form", t.sess.UserID, PhaseQuotation)
		}
		return e.quotationPrompt(ctx, t), nil
	}

	form := newQuotationForm(in.form)
	if err := validate.Struct(form); err != nil {
		return formRetry(validationLabels(err)), nil
	}
	u, invalid := form.updates(t.sess)
	if len(invalid) > 0 {
		return formRetry(invalid), nil
	}
	_, hasCoverage := u[session.FieldCoverage]
	_, hasBudget := u[session.FieldBudget]
	if hasCoverage && hasBudget {
		return formRetry([]string{"enter either a coverage amount or a budget, not both"}), nil
	}

	log.Printf("[Engine] user %d: quotation form with %d fields", t.sess.UserID, len(u))
	t.set(u)

	var missing []string
	for _, req := range quoteRequirements {
		if !req.present(t.sess) {
			missing = append(missing, req.label)
		}
	}
	coverage, budget := quoteBasis(t.sess, hasCoverage, hasBudget)
	if len(missing) > 0 || (coverage == 0 && budget == 0) {
		return &Reply{Answer: missingInputsAnswer(missing, coverage == 0 && budget == 0), InputType: InputForm}, nil
	}

	now := e.now()
	b, err := quote.Compute(quote.Params{
		PlanType:           t.sess.PlanType,
		PolicyTerm:         t.sess.PolicyTerm,
		PremiumPaymentTerm: t.sess.PremiumPaymentTerm,
		PayoutFrequency:    t.sess.PayoutFrequency,
		DateOfBirth:        t.sess.DOB,
		Coverage:           coverage,
		Budget:             budget,
		AsOf:               now,
	})
	if err != nil {
		return &Reply{Answer: "I'm sorry, I couldn't generate a quote. " + err.Error(), InputType: InputForm}, nil
	}

	number := e.quoteNumber(now)
	t.set(session.Updates{
		session.FieldQuoteNumber:  number,
		session.FieldSumAssured:   b.SumAssured,
		session.FieldBasePremium:  b.BasePremium,
		session.FieldGST:          b.GST,
		session.FieldTotalPremium: b.TotalPremium,
		session.FieldContextState: string(PhaseQuoteDisplayed),
	})
	t.quote = &session.QuoteRecord{
		QuoteNumber:        number,
		PolicyID:           t.sess.SelectedPolicy,
		PlanType:           t.sess.PlanType,
		PolicyTerm:         b.PolicyTerm,
		PremiumPaymentTerm: b.PremiumPaymentTerm,
		PayoutFrequency:    t.sess.PayoutFrequency,
		SumAssured:         b.SumAssured,
		BasePremium:        b.BasePremium,
		GST:                b.GST,
		TotalPremium:       b.TotalPremium,
	}
	data := &QuoteData{
		QuoteNumber:      number,
		PolicyID:         t.sess.SelectedPolicy,
		PolicyName:       e.selectedPolicyName(t),
		PlanType:         t.sess.PlanType,
		PayoutFrequency:  t.sess.PayoutFrequency,
		PremiumFrequency: t.sess.PremiumFrequency,
		Breakdown:        b,
	}
	return &Reply{
		Answer:    quoteSummary(data),
		Options:   quoteOptions(),
		InputType: InputText,
		QuoteData: data,
	}, nil
}

// quoteBasis picks the single amount the quote is driven by. A value from
// the form wins; otherwise the onboarding cover is preferred to the budget.
func quoteBasis(s *session.Session, formCoverage, formBudget bool) (coverage, budget float64) {
	switch {
	case formCoverage:
		return float64(s.Coverage), 0
	case formBudget:
		return 0, float64(s.Budget)
	case s.Coverage > 0:
		return float64(s.Coverage), 0
	default:
		return 0, float64(s.Budget)
	}
}

func missingInputsAnswer(missing []string, noAmount bool) string {
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "it looks like we still need "+strings.Join(missing, ", "))
	}
	if noAmount {
		parts = append(parts, "you need to set a coverage amount or a budget")
	}
	return "I'm sorry, I can't generate a quote just yet because " + strings.Join(parts, ", and ") + ". Please fill out the form completely."
}

func quoteSummary(q *QuoteData) string {
	freq := q.PremiumFrequency
	if freq == "" {
		freq = "Yearly"
	}
	lines := []string{
		fmt.Sprintf("Here is your personalized quote (Quote ID: %s):", q.QuoteNumber),
		"- **Policy:** " + q.PolicyName,
		"- **Plan Selected:** " + q.PlanType,
		"- **Sum Assured:** " + formatINR(q.SumAssured),
		"- **Policy Term:** " + strconv.Itoa(q.PolicyTerm) + " years",
		"- **Premium Payment Term:** " + strconv.Itoa(q.PremiumPaymentTerm) + " years",
		"- **Premium:** " + formatINR(q.BasePremium),
		"- **GST (18%):** " + formatINR(q.GST),
		"- **Total Payable Premium:** " + formatINR(q.TotalPremium) + " (" + freq + ")",
	}
	return strings.Join(lines, "\n")
}

func quoteOptions() []string {
	return []string{"Proceed to Buy", "Recalculate Quote", "Speak to Agent"}
}

// quotationPrompt asks the model for a short encouragement to fill in the
// form, with a fixed text when generation fails.
func (e *Engine) quotationPrompt(ctx context.Context, t *turn) *Reply {
	answer := "Let's get you a personalized quote for " + e.selectedPolicyName(t) + "! Please fill out the form below to continue."
	if e.llm != nil {
		highlights := map[string]any{}
		for k, v := range t.sess.Profile() {
			switch k {
			case session.FieldEmploymentStatus, session.FieldAnnualIncome, session.FieldExistingPolicy, session.FieldPlanType:
				highlights[k] = v
			}
		}
		profile, _ := json.Marshal(highlights)
		name := t.sess.Name
		if name == "" {
			name = "there"
		}
		prompt := fmt.Sprintf(`You are a friendly and encouraging insurance assistant.

User's name: %s
Selected policy: %s
User's profile highlights: %s

The user is about to request a premium quotation. Write a short, welcoming message (under 30 words) that
mentions the next step is a personalized quote and encourages them to fill out the form.`, name, e.selectedPolicyName(t), profile)
		if text, err := e.llm.Generate(ctx, prompt); err == nil {
			answer = strings.TrimSpace(text)
		} else {
			log.Printf("[Engine] user %d: quotation prompt generation failed: %v", t.sess.UserID, err)
		}
	}
	return &Reply{Answer: answer, InputType: InputForm}
}

func (e *Engine) quotePrompt(t *turn) *Reply {
	if t.sess.QuoteNumber == "" {
		return &Reply{Answer: resumeFormAnswer, InputType: InputForm}
	}
	return &Reply{
		Answer: fmt.Sprintf("Your quote %s for %s comes to %s in total. Would you like to proceed?",
			t.sess.QuoteNumber, e.selectedPolicyName(t), formatINR(t.sess.TotalPremium)),
		Options:   quoteOptions(),
		InputType: InputText,
	}
}

func (e *Engine) handleQuoteDisplayed(ctx context.Context, t *turn, in input) (*Reply, error) {
	if in.form != nil {
		return e.handleQuotation(ctx, t, in)
	}
	lower := strings.ToLower(in.text)
	switch {
	case lower == "":
		return e.quotePrompt(t), nil
	case isCommand(lower, []string{"recalculate"}):
		t.moveTo(PhaseQuotation)
		return &Reply{Answer: "Sure, let's recalculate. Please update the form below.", InputType: InputForm}, nil
	case isCommand(lower, []string{"proceed", "buy", "apply"}):
		return e.advance(ctx, t, PhaseApplication)
	case intent.IsQuestion(lower):
		return e.digress(ctx, t, in.text)
	}
	r := e.quotePrompt(t)
	r.Answer = "Please choose one of the options below. " + r.Answer
	return r, nil
}
