package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("policy not found")

// Policy is one insurance product. The table is read-only to the dialogue.
type Policy struct {
	ID                   uint    `gorm:"primaryKey" json:"id"`
	PolicyID             string  `gorm:"uniqueIndex;size:64;not null" json:"policy_id"`
	PolicyName           string  `gorm:"index;size:256;not null" json:"policy_name"`
	InsurerName          string  `gorm:"size:128" json:"insurer_name"`
	PolicyType           string  `gorm:"size:64" json:"policy_type"`
	Premium              float64 `json:"premium"`
	CoverageAmount       float64 `json:"coverage_amount"`
	SumAssured           float64 `json:"sum_assured"`
	EntryAgeMin          int     `json:"entry_age_min"`
	EntryAgeMax          int     `json:"entry_age_max"`
	PolicyTermMin        int     `json:"policy_term_min"`
	PolicyTermMax        int     `json:"policy_term_max"`
	WaitingPeriod        string  `gorm:"size:128" json:"waiting_period"`
	MaturityBenefits     string  `gorm:"type:text" json:"maturity_benefits"`
	ReturnOnMaturity     string  `gorm:"size:128" json:"return_on_maturity"`
	Renewability         string  `gorm:"size:128" json:"renewability"`
	ClaimProcess         string  `gorm:"type:text" json:"claim_process"`
	TaxBenefits          string  `gorm:"type:text" json:"tax_benefits"`
	Eligibility          string  `gorm:"type:text" json:"eligibility"`
	ClaimSettlementRatio float64 `json:"claim_settlement_ratio"`
	Description          string  `gorm:"type:text" json:"description"`
}

// Fields returns the policy's populated attributes keyed by snake_case name.
func (p *Policy) Fields() map[string]string {
	out := map[string]string{}
	str := func(k, v string) {
		if strings.TrimSpace(v) != "" {
			out[k] = v
		}
	}
	num := func(k string, v float64) {
		if v != 0 {
			out[k] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	integer := func(k string, v int) {
		if v != 0 {
			out[k] = strconv.Itoa(v)
		}
	}
	str("policy_id", p.PolicyID)
	str("policy_name", p.PolicyName)
	str("insurer_name", p.InsurerName)
	str("policy_type", p.PolicyType)
	num("premium", p.Premium)
	num("coverage_amount", p.CoverageAmount)
	num("sum_assured", p.SumAssured)
	integer("entry_age_min", p.EntryAgeMin)
	integer("entry_age_max", p.EntryAgeMax)
	integer("policy_term_min", p.PolicyTermMin)
	integer("policy_term_max", p.PolicyTermMax)
	str("waiting_period", p.WaitingPeriod)
	str("maturity_benefits", p.MaturityBenefits)
	str("return_on_maturity", p.ReturnOnMaturity)
	str("renewability", p.Renewability)
	str("claim_process", p.ClaimProcess)
	str("tax_benefits", p.TaxBenefits)
	str("eligibility", p.Eligibility)
	num("claim_settlement_ratio", p.ClaimSettlementRatio)
	str("description", p.Description)
	return out
}

// Document renders the policy as plain text for retrieval and prompting.
func (p *Policy) Document() string {
	fields := p.Fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, fields[k])
	}
	return strings.TrimSpace(b.String())
}

// Repository reads policies from the catalog table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, policyID string) (*Policy, error) {
	return r.first(ctx, "policy_id = ?", policyID)
}

// GetByName matches the policy name case-insensitively.
func (r *Repository) GetByName(ctx context.Context, name string) (*Policy, error) {
	return r.first(ctx, "LOWER(policy_name) = ?", strings.ToLower(strings.TrimSpace(name)))
}

func (r *Repository) first(ctx context.Context, query string, arg string) (*Policy, error) {
	if strings.TrimSpace(arg) == "" {
		return nil, ErrNotFound
	}
	var p Policy
	err := r.db.WithContext(ctx).Where(query, arg).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	return &p, nil
}

// Search finds policies whose name, type or description contain any keyword.
func (r *Repository) Search(ctx context.Context, keywords []string, limit int) ([]Policy, error) {
	q := r.db.WithContext(ctx).Model(&Policy{})
	var conds []string
	var args []interface{}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		like := "%" + kw + "%"
		conds = append(conds, "LOWER(policy_name) LIKE ? OR LOWER(policy_type) LIKE ? OR LOWER(description) LIKE ?")
		args = append(args, like, like, like)
	}
	if len(conds) > 0 {
		q = q.Where(strings.Join(conds, " OR "), args...)
	}
	var out []Policy
	if err := q.Order("id asc").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("search policies: %w", err)
	}
	return out, nil
}
