package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrMissingIdentifier = errors.New("missing phone number")
	ErrNotFound          = errors.New("session not found")
)

// Store persists sessions, chat history, leads and quote records through gorm.
type Store struct {
	db           *gorm.DB
	initialState string
}

// NewStore returns a store whose new contexts start at initialState.
func NewStore(db *gorm.DB, initialState string) *Store {
	return &Store{db: db, initialState: initialState}
}

// Commit is everything one turn writes. It is persisted in a single transaction.
type Commit struct {
	UserID  uint
	Updates Updates
	Chat    []ChatEntry
	Lead    *Lead
	Quote   *QuoteRecord
}

// Load returns the session for a phone number, creating the user and an
// empty context on first contact. Concurrent first contacts converge on one row.
func (s *Store) Load(ctx context.Context, phone string) (*Session, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrMissingIdentifier
	}
	tx := s.db.WithContext(ctx)

	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&User{PhoneNumber: phone}).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	var u User
	if err := tx.Where("phone_number = ?", phone).First(&u).Error; err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := s.ensureContext(tx, u.ID); err != nil {
		return nil, err
	}
	return s.read(tx, &u)
}

// Find returns an existing session without creating one.
func (s *Store) Find(ctx context.Context, phone string) (*Session, error) {
	tx := s.db.WithContext(ctx)
	var u User
	err := tx.Where("phone_number = ?", strings.TrimSpace(phone)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return s.read(tx, &u)
}

func (s *Store) read(tx *gorm.DB, u *User) (*Session, error) {
	var rec contextRecord
	err := tx.Where("user_id = ?", u.ID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load context: %w", err)
	}
	sess := fromRecord(u, &rec)

	var msgs []ChatMessage
	if err := tx.Where("user_id = ?", u.ID).Order("id asc").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	sess.ChatHistory = make([]ChatEntry, 0, len(msgs))
	for _, m := range msgs {
		sess.ChatHistory = append(sess.ChatHistory, ChatEntry{Role: m.Role, Text: m.Content})
	}
	return sess, nil
}

func (s *Store) ensureContext(tx *gorm.DB, userID uint) error {
	rec := contextRecord{
		UserID:               userID,
		ContextState:         s.initialState,
		ShownRecommendations: datatypes.JSON("[]"),
		RetrievedDocs:        datatypes.JSON("[]"),
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error; err != nil {
		return fmt.Errorf("create context: %w", err)
	}
	return nil
}

// Save merges only the supplied fields into the stored session.
func (s *Store) Save(ctx context.Context, userID uint, u Updates) error {
	return s.Commit(ctx, Commit{UserID: userID, Updates: u})
}

// Commit writes a turn's updates, chat entries, lead and quote record atomically.
func (s *Store) Commit(ctx context.Context, c Commit) error {
	identity, cols, err := toColumns(c.Updates)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(identity) > 0 {
			if err := tx.Model(&User{}).Where("id = ?", c.UserID).Updates(identity).Error; err != nil {
				return fmt.Errorf("update user: %w", err)
			}
		}
		if len(cols) > 0 {
			if err := s.ensureContext(tx, c.UserID); err != nil {
				return err
			}
			if err := tx.Model(&contextRecord{}).Where("user_id = ?", c.UserID).Updates(cols).Error; err != nil {
				return fmt.Errorf("update context: %w", err)
			}
		}
		if len(c.Chat) > 0 {
			msgs := make([]ChatMessage, 0, len(c.Chat))
			for _, e := range c.Chat {
				msgs = append(msgs, ChatMessage{UserID: c.UserID, Role: e.Role, Content: e.Text})
			}
			if err := tx.Create(&msgs).Error; err != nil {
				return fmt.Errorf("append chat history: %w", err)
			}
		}
		if c.Quote != nil {
			c.Quote.UserID = c.UserID
			if err := tx.Create(c.Quote).Error; err != nil {
				return fmt.Errorf("record quote: %w", err)
			}
		}
		if c.Lead != nil {
			c.Lead.UserID = c.UserID
			if err := tx.Create(c.Lead).Error; err != nil {
				return fmt.Errorf("record lead: %w", err)
			}
		}
		return nil
	})
}

// RecordLead appends one lead.
func (s *Store) RecordLead(ctx context.Context, lead *Lead) error {
	if lead.ContactValue == "" {
		return errors.New("lead requires a contact value")
	}
	if err := s.db.WithContext(ctx).Create(lead).Error; err != nil {
		return fmt.Errorf("record lead: %w", err)
	}
	return nil
}

// ListLeads returns the most recent leads first.
func (s *Store) ListLeads(ctx context.Context, limit int) ([]Lead, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var leads []Lead
	if err := s.db.WithContext(ctx).Order("created_at desc, id desc").Limit(limit).Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

// toColumns splits updates into users and user_contexts column maps,
// applying aliases and JSON-encoding structured fields.
func toColumns(u Updates) (map[string]interface{}, map[string]interface{}, error) {
	identity := map[string]interface{}{}
	cols := map[string]interface{}{}
	for field, v := range u {
		switch {
		case identityFields[field]:
			identity[field] = v
		case contextFields[field]:
			val, err := columnValue(field, v)
			if err != nil {
				return nil, nil, err
			}
			cols[ColumnFor(field)] = val
		default:
			return nil, nil, fmt.Errorf("unknown session field %q", field)
		}
	}
	return identity, cols, nil
}

func columnValue(field string, v any) (any, error) {
	switch field {
	case FieldShownRecommendations:
		shown, _ := v.([]ShownPolicy)
		if shown == nil {
			shown = []ShownPolicy{}
		}
		raw, err := json.Marshal(shown)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", field, err)
		}
		return datatypes.JSON(raw), nil
	case FieldRetrievedDocs:
		docs, _ := v.([]string)
		if docs == nil {
			docs = []string{}
		}
		raw, err := json.Marshal(docs)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", field, err)
		}
		return datatypes.JSON(raw), nil
	}
	return v, nil
}
