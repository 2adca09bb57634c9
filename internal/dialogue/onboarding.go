package dialogue

import (
	"context"
	"strconv"
	"strings"

	"go-insure/internal/extract"
	"go-insure/internal/session"
)

// onboardingStep describes one question of the qualifying interview.
type onboardingStep struct {
	phase    Phase
	next     Phase
	question string
	options  []string
	hint     string
	parse    func(text string) (session.Updates, bool)
}

var incomeBuckets = map[string]int64{
	"less than 5 lakhs": 400000,
	"5-10 lakhs":        750000,
	"10-20 lakhs":       1500000,
	"20+ lakhs":         2500000,
}

var (
	incomeOptions = []string{"Less than 5 Lakhs", "5-10 Lakhs", "10-20 Lakhs", "20+ Lakhs"}
	needOptions   = []string{"Family Protection", "Savings & Investment", "Retirement Planning", "Child's Education"}
)

var onboardingSteps = map[Phase]onboardingStep{
	PhaseExistingPolicy: {
		phase:    PhaseExistingPolicy,
		next:     PhaseEmploymentStatus,
		question: "Do you currently have an insurance policy?",
		options:  []string{"I have an existing policy", "I do not have an existing policy"},
		hint:     "Please choose one of the options below.",
		parse: choice(session.FieldExistingPolicy,
			[]string{"I have an existing policy", "I do not have an existing policy"},
			map[string]string{"yes": "I have an existing policy", "no": "I do not have an existing policy"}),
	},
	PhaseEmploymentStatus: {
		phase:    PhaseEmploymentStatus,
		next:     PhaseAnnualIncome,
		question: "What is your current employment status?",
		options:  []string{"Salaried", "Self-Employed", "Other"},
		hint:     "Please choose one of the options below.",
		parse: choice(session.FieldEmploymentStatus,
			[]string{"Salaried", "Self-Employed", "Other"},
			map[string]string{"self employed": "Self-Employed", "business": "Self-Employed", "employed": "Salaried"}),
	},
	PhaseAnnualIncome: {
		phase:    PhaseAnnualIncome,
		next:     PhasePrimaryNeed,
		question: "What is your approximate annual income?",
		options:  incomeOptions,
		hint:     "Please pick an income range, or type an amount such as 8 lakh.",
		parse:    parseIncome,
	},
	PhasePrimaryNeed: {
		phase:    PhasePrimaryNeed,
		next:     PhaseAge,
		question: "What is the main reason you are looking for insurance?",
		options:  needOptions,
		hint:     "Please tell me what you want the policy to do for you.",
		parse:    parseNeed,
	},
	PhaseAge: {
		phase:    PhaseAge,
		next:     PhaseBudget,
		question: "How old are you?",
		hint:     "Please enter your age in years (18 to 80).",
		parse:    numeric(session.FieldAge, extract.Age),
	},
	PhaseBudget: {
		phase:    PhaseBudget,
		next:     PhaseTermLength,
		question: "How much can you set aside each year for premiums?",
		options:  []string{"10,000", "25,000", "50,000", "1 Lakh"},
		hint:     "Please enter a yearly amount of at least 500 rupees.",
		parse:    numeric(session.FieldBudget, extract.Budget),
	},
	PhaseTermLength: {
		phase:    PhaseTermLength,
		next:     PhaseCoverage,
		question: "For how many years would you like to stay covered?",
		options:  []string{"10 years", "20 years", "30 years"},
		hint:     "Please enter a term between 1 and 50 years.",
		parse:    numeric(session.FieldPolicyTerm, extract.Term),
	},
	PhaseCoverage: {
		phase:    PhaseCoverage,
		next:     PhaseRecommendation,
		question: "How much cover would you like?",
		options:  []string{"25 Lakhs", "50 Lakhs", "1 Crore", "2 Crore"},
		hint:     "Please enter a cover amount of at least 1 lakh.",
		parse:    numeric(session.FieldCoverage, extract.Coverage),
	},
}

func (s onboardingStep) promptReply(sess *session.Session) *Reply {
	answer := s.question
	if s.phase == InitialPhase && len(sess.ChatHistory) == 0 {
		answer = welcome(sess) + "\n\n" + s.question
	}
	return &Reply{Answer: answer, Options: append([]string(nil), s.options...), InputType: InputText}
}

func welcome(sess *session.Session) string {
	name := sess.Name
	if name == "" {
		name = "there"
	}
	return "Welcome, " + name + "! To help you find the best-fit insurance plan, I have a few quick questions."
}

func (e *Engine) handleOnboarding(ctx context.Context, t *turn, step onboardingStep, in input) (*Reply, error) {
	if in.text == "" {
		return step.promptReply(t.sess), nil
	}
	u, ok := step.parse(in.text)
	if !ok {
		r := step.promptReply(t.sess)
		r.Answer = step.hint + "\n\n" + step.question
		return r, nil
	}
	t.set(u)
	return e.advance(ctx, t, step.next)
}

// profileComplete reports whether every onboarding answer is present.
func profileComplete(s *session.Session) bool {
	return s.ExistingPolicy != "" &&
		s.EmploymentStatus != "" &&
		s.AnnualIncome != "" &&
		s.PrimaryNeed != "" &&
		s.Age > 0 &&
		s.Budget > 0 &&
		s.PolicyTerm > 0 &&
		s.Coverage > 0
}

func choice(field string, options []string, synonyms map[string]string) func(string) (session.Updates, bool) {
	return func(text string) (session.Updates, bool) {
		opt, ok := matchOption(text, options, synonyms)
		if !ok {
			return nil, false
		}
		return session.Updates{field: opt}, true
	}
}

func numeric(field string, kind extract.Field) func(string) (session.Updates, bool) {
	return func(text string) (session.Updates, bool) {
		n, ok := extract.Extract(text, kind)
		if !ok {
			return nil, false
		}
		return session.Updates{field: n}, true
	}
}

func parseIncome(text string) (session.Updates, bool) {
	if opt, ok := matchOption(text, incomeOptions, nil); ok {
		return session.Updates{
			session.FieldAnnualIncome: opt,
			session.FieldIncome:       incomeBuckets[strings.ToLower(opt)],
		}, true
	}
	n, ok := extract.Extract(text, extract.Income)
	if !ok {
		return nil, false
	}
	return session.Updates{
		session.FieldAnnualIncome: strings.TrimSpace(text),
		session.FieldIncome:       n,
	}, true
}

func parseNeed(text string) (session.Updates, bool) {
	if opt, ok := matchOption(text, needOptions, nil); ok {
		return session.Updates{session.FieldPrimaryNeed: opt}, true
	}
	need := strings.TrimSpace(text)
	if len(need) < 3 {
		return nil, false
	}
	return session.Updates{session.FieldPrimaryNeed: need}, true
}

// matchOption accepts an option's text, its 1-based ordinal or a synonym,
// case-insensitively.
func matchOption(text string, options []string, synonyms map[string]string) (string, bool) {
	norm := strings.ToLower(strings.TrimSpace(text))
	for _, opt := range options {
		if strings.ToLower(opt) == norm {
			return opt, true
		}
	}
	if i, err := strconv.Atoi(norm); err == nil && i >= 1 && i <= len(options) {
		return options[i-1], true
	}
	if opt, ok := synonyms[norm]; ok {
		return opt, true
	}
	return "", false
}
