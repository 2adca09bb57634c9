package session

import (
	"time"

	"gorm.io/datatypes"
)

// User is the identity row keyed by phone number.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PhoneNumber string    `gorm:"uniqueIndex;size:32;not null" json:"phone_number"`
	Name        string    `gorm:"size:128" json:"name"`
	Email       string    `gorm:"size:256" json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// contextRecord is the persisted conversation state, one row per user.
// Column names are storage-facing; see aliases.go.
type contextRecord struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       uint   `gorm:"uniqueIndex;not null"`
	ContextState string `gorm:"size:64"`

	ExistingPolicy   string `gorm:"size:64"`
	EmploymentStatus string `gorm:"size:64"`
	AnnualIncome     string `gorm:"size:64"`
	Income           int64
	PrimaryNeed      string `gorm:"size:128"`
	Age              int
	PremiumBudget    int64
	TermLength       int
	CoverageRequired int64

	DOB                     string `gorm:"column:dob;size:16"`
	Gender                  string `gorm:"size:32"`
	Nationality             string `gorm:"size:64"`
	MaritalStatus           string `gorm:"size:32"`
	Education               string `gorm:"size:64"`
	GSTApplicable           string `gorm:"column:gst_applicable;size:16"`
	PlanOption              string `gorm:"size:128"`
	PremiumPaymentTerm      int
	PremiumPaymentFrequency string `gorm:"size:32"`
	IncomePayoutFrequency   string `gorm:"size:64"`

	ShownRecommendations datatypes.JSON
	RetrievedDocs        datatypes.JSON
	SelectedPolicy       string `gorm:"size:64"`
	StateBeforeDiversion string `gorm:"size:64"`

	QuoteNumber  string `gorm:"size:64"`
	SumAssured   float64
	BasePremium  float64
	GSTAmount    float64 `gorm:"column:gst_amount"`
	TotalPremium float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (contextRecord) TableName() string { return "user_contexts" }

// ChatMessage is one append-only chat history entry.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Role      string    `gorm:"size:16;not null" json:"role"` // "user" or "assistant"
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Lead is written once when the closing flow completes. There is no update path.
type Lead struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"index;not null" json:"user_id"`
	Name          string    `gorm:"size:128" json:"name"`
	PolicyID      *string   `gorm:"size:64" json:"policy_id,omitempty"`
	ContactMethod string    `gorm:"size:16;not null" json:"contact_method"`
	ContactValue  string    `gorm:"size:256;not null" json:"contact_value"`
	CreatedAt     time.Time `json:"createdAt"`
}

// QuoteRecord is the ledger entry for every computed quotation.
type QuoteRecord struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"index;not null" json:"user_id"`
	QuoteNumber        string    `gorm:"uniqueIndex;size:64;not null" json:"quote_number"`
	PolicyID           string    `gorm:"size:64" json:"policy_id"`
	PlanType           string    `gorm:"size:128" json:"plan_type"`
	PolicyTerm         int       `json:"policy_term"`
	PremiumPaymentTerm int       `json:"premium_payment_term"`
	PayoutFrequency    string    `gorm:"size:64" json:"payout_frequency"`
	SumAssured         float64   `json:"sum_assured"`
	BasePremium        float64   `json:"base_premium"`
	GST                float64   `json:"gst"`
	TotalPremium       float64   `json:"total_premium"`
	CreatedAt          time.Time `json:"createdAt"`
}

func (QuoteRecord) TableName() string { return "quotes" }

// Models lists everything AutoMigrate must create for this package.
func Models() []interface{} {
	return []interface{}{&User{}, &contextRecord{}, &ChatMessage{}, &Lead{}, &QuoteRecord{}}
}
