package session

import (
	"encoding/json"
	"log"
)

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ShownPolicy is one entry of the recommendation set last presented.
type ShownPolicy struct {
	Name     string `json:"name"`
	PolicyID string `json:"policy_id"`
}

// ChatEntry is one (role, text) turn of the conversation.
type ChatEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Session is the decoded, conversation-facing view of a user's context.
type Session struct {
	UserID      uint   `json:"user_id"`
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`

	ContextState string `json:"context_state"`

	ExistingPolicy   string `json:"existing_policy,omitempty"`
	EmploymentStatus string `json:"employment_status,omitempty"`
	AnnualIncome     string `json:"annual_income,omitempty"`
	Income           int64  `json:"income,omitempty"`
	PrimaryNeed      string `json:"primary_need,omitempty"`
	Age              int    `json:"age,omitempty"`
	Budget           int64  `json:"budget,omitempty"`
	PolicyTerm       int    `json:"policy_term,omitempty"`
	Coverage         int64  `json:"coverage,omitempty"`

	DOB                string `json:"dob,omitempty"`
	Gender             string `json:"gender,omitempty"`
	Nationality        string `json:"nationality,omitempty"`
	MaritalStatus      string `json:"marital_status,omitempty"`
	Education          string `json:"education,omitempty"`
	GSTApplicable      string `json:"gst_applicable,omitempty"`
	PlanType           string `json:"plan_type,omitempty"`
	PremiumPaymentTerm int    `json:"premium_payment_term,omitempty"`
	PremiumFrequency   string `json:"premium_frequency,omitempty"`
	PayoutFrequency    string `json:"payout_frequency,omitempty"`

	ShownRecommendations []ShownPolicy `json:"shown_recommendations"`
	RetrievedDocs        []string      `json:"retrieved_docs"`
	SelectedPolicy       string        `json:"selected_policy,omitempty"`
	StateBeforeDiversion string        `json:"state_before_diversion,omitempty"`

	QuoteNumber  string  `json:"quote_number,omitempty"`
	SumAssured   float64 `json:"sum_assured,omitempty"`
	BasePremium  float64 `json:"base_premium,omitempty"`
	GST          float64 `json:"gst,omitempty"`
	TotalPremium float64 `json:"total_premium,omitempty"`

	ChatHistory []ChatEntry `json:"chat_history"`
}

// Updates is a partial set of conversation-facing fields to merge.
type Updates map[string]any

// Merge copies every entry of other into u.
func (u Updates) Merge(other Updates) {
	for k, v := range other {
		u[k] = v
	}
}

// Clone returns a deep enough copy for a turn-scoped working view.
func (s *Session) Clone() *Session {
	c := *s
	c.ShownRecommendations = append([]ShownPolicy(nil), s.ShownRecommendations...)
	c.RetrievedDocs = append([]string(nil), s.RetrievedDocs...)
	c.ChatHistory = append([]ChatEntry(nil), s.ChatHistory...)
	return &c
}

// Apply writes updates onto the in-memory session. Unknown names are ignored
// here; Store.Save rejects them.
func (s *Session) Apply(u Updates) {
	for k, v := range u {
		switch k {
		case FieldName:
			s.Name = asString(v)
		case FieldEmail:
			s.Email = asString(v)
		case FieldContextState:
			s.ContextState = asString(v)
		case FieldExistingPolicy:
			s.ExistingPolicy = asString(v)
		case FieldEmploymentStatus:
			s.EmploymentStatus = asString(v)
		case FieldAnnualIncome:
			s.AnnualIncome = asString(v)
		case FieldIncome:
			s.Income = asInt64(v)
		case FieldPrimaryNeed:
			s.PrimaryNeed = asString(v)
		case FieldAge:
			s.Age = int(asInt64(v))
		case FieldBudget:
			s.Budget = asInt64(v)
		case FieldPolicyTerm:
			s.PolicyTerm = int(asInt64(v))
		case FieldCoverage:
			s.Coverage = asInt64(v)
		case FieldDOB:
			s.DOB = asString(v)
		case FieldGender:
			s.Gender = asString(v)
		case FieldNationality:
			s.Nationality = asString(v)
		case FieldMaritalStatus:
			s.MaritalStatus = asString(v)
		case FieldEducation:
			s.Education = asString(v)
		case FieldGSTApplicable:
			s.GSTApplicable = asString(v)
		case FieldPlanType:
			s.PlanType = asString(v)
		case FieldPremiumPaymentTerm:
			s.PremiumPaymentTerm = int(asInt64(v))
		case FieldPremiumFrequency:
			s.PremiumFrequency = asString(v)
		case FieldPayoutFrequency:
			s.PayoutFrequency = asString(v)
		case FieldShownRecommendations:
			shown, _ := v.([]ShownPolicy)
			s.ShownRecommendations = append([]ShownPolicy(nil), shown...)
		case FieldRetrievedDocs:
			docs, _ := v.([]string)
			s.RetrievedDocs = append([]string(nil), docs...)
		case FieldSelectedPolicy:
			s.SelectedPolicy = asString(v)
		case FieldStateBeforeDiversion:
			s.StateBeforeDiversion = asString(v)
		case FieldQuoteNumber:
			s.QuoteNumber = asString(v)
		case FieldSumAssured:
			s.SumAssured = asFloat64(v)
		case FieldBasePremium:
			s.BasePremium = asFloat64(v)
		case FieldGST:
			s.GST = asFloat64(v)
		case FieldTotalPremium:
			s.TotalPremium = asFloat64(v)
		}
	}
}

// Profile returns the user-supplied facts, without history or documents.
func (s *Session) Profile() map[string]any {
	p := map[string]any{}
	put := func(k string, v any, set bool) {
		if set {
			p[k] = v
		}
	}
	put(FieldName, s.Name, s.Name != "")
	put(FieldExistingPolicy, s.ExistingPolicy, s.ExistingPolicy != "")
	put(FieldEmploymentStatus, s.EmploymentStatus, s.EmploymentStatus != "")
	put(FieldAnnualIncome, s.AnnualIncome, s.AnnualIncome != "")
	put(FieldIncome, s.Income, s.Income > 0)
	put(FieldPrimaryNeed, s.PrimaryNeed, s.PrimaryNeed != "")
	put(FieldAge, s.Age, s.Age > 0)
	put(FieldBudget, s.Budget, s.Budget > 0)
	put(FieldPolicyTerm, s.PolicyTerm, s.PolicyTerm > 0)
	put(FieldCoverage, s.Coverage, s.Coverage > 0)
	put(FieldDOB, s.DOB, s.DOB != "")
	put(FieldGender, s.Gender, s.Gender != "")
	put(FieldMaritalStatus, s.MaritalStatus, s.MaritalStatus != "")
	put(FieldPlanType, s.PlanType, s.PlanType != "")
	put(FieldPayoutFrequency, s.PayoutFrequency, s.PayoutFrequency != "")
	put(FieldQuoteNumber, s.QuoteNumber, s.QuoteNumber != "")
	put(FieldTotalPremium, s.TotalPremium, s.TotalPremium > 0)
	return p
}

func fromRecord(u *User, r *contextRecord) *Session {
	s := &Session{
		UserID:               u.ID,
		PhoneNumber:          u.PhoneNumber,
		Name:                 u.Name,
		Email:                u.Email,
		ContextState:         r.ContextState,
		ExistingPolicy:       r.ExistingPolicy,
		EmploymentStatus:     r.EmploymentStatus,
		AnnualIncome:         r.AnnualIncome,
		Income:               r.Income,
		PrimaryNeed:          r.PrimaryNeed,
		Age:                  r.Age,
		Budget:               r.PremiumBudget,
		PolicyTerm:           r.TermLength,
		Coverage:             r.CoverageRequired,
		DOB:                  r.DOB,
		Gender:               r.Gender,
		Nationality:          r.Nationality,
		MaritalStatus:        r.MaritalStatus,
		Education:            r.Education,
		GSTApplicable:        r.GSTApplicable,
		PlanType:             r.PlanOption,
		PremiumPaymentTerm:   r.PremiumPaymentTerm,
		PremiumFrequency:     r.PremiumPaymentFrequency,
		PayoutFrequency:      r.IncomePayoutFrequency,
		SelectedPolicy:       r.SelectedPolicy,
		StateBeforeDiversion: r.StateBeforeDiversion,
		QuoteNumber:          r.QuoteNumber,
		SumAssured:           r.SumAssured,
		BasePremium:          r.BasePremium,
		GST:                  r.GSTAmount,
		TotalPremium:         r.TotalPremium,
	}
	s.ShownRecommendations = decodeShown(r.ShownRecommendations, u.ID)
	s.RetrievedDocs = decodeDocs(r.RetrievedDocs, u.ID)
	return s
}

// Decode failures degrade to empty collections: a corrupt column must not
// wedge the conversation.
func decodeShown(raw []byte, userID uint) []ShownPolicy {
	shown := []ShownPolicy{}
	if len(raw) == 0 {
		return shown
	}
	if err := json.Unmarshal(raw, &shown); err != nil {
		log.Printf("[Store] user %d: unreadable shown_recommendations, treating as empty: %v", userID, err)
		return []ShownPolicy{}
	}
	return shown
}

func decodeDocs(raw []byte, userID uint) []string {
	docs := []string{}
	if len(raw) == 0 {
		return docs
	}
	if err := json.Unmarshal(raw, &docs); err != nil {
		log.Printf("[Store] user %d: unreadable retrieved_docs, treating as empty: %v", userID, err)
		return []string{}
	}
	return docs
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case uint:
		return int64(n)
	}
	return 0
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
