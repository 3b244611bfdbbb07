package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-debate/internal/debate"
)

// Record is the persisted form of one finished debate session. Sessions are
// single-shot: a record is written after the run completes and never mutated
// back into live state.
type Record struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	SessionID       string         `gorm:"uniqueIndex;size:64;not null" json:"session_id"`
	UserID          uint           `gorm:"index;not null" json:"user_id"`
	Topic           string         `gorm:"type:text;not null" json:"topic"`
	TimeContext     string         `gorm:"type:text" json:"time_context"`
	PRGoal          string         `gorm:"type:text" json:"pr_goal"`
	MaxRounds       int            `gorm:"not null" json:"max_rounds"`
	RoundsRun       int            `gorm:"not null;default:0" json:"rounds_run"`
	StopReason      string         `gorm:"size:200" json:"stop_reason,omitempty"`
	Seeded          bool           `gorm:"not null;default:false" json:"seeded"`
	Messages        datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"messages"`
	IntelPool       datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"intel_pool"`
	SearchedQueries datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"searched_queries"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name for GORM
func (Record) TableName() string {
	return "debate_sessions"
}

// FromState converts a finished session into its persisted form.
func FromState(st *debate.State, userID uint) (*Record, error) {
	messages, err := json.Marshal(st.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal messages: %w", err)
	}
	intel, err := json.Marshal(st.IntelPool)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal intel pool: %w", err)
	}
	queries, err := json.Marshal(st.SearchedQueries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal searched queries: %w", err)
	}

	return &Record{
		SessionID:       st.SessionID,
		UserID:          userID,
		Topic:           st.Topic,
		TimeContext:     st.TimeContext,
		PRGoal:          st.PRGoal,
		MaxRounds:       st.MaxRounds,
		RoundsRun:       st.CompletedRounds(),
		StopReason:      st.StopReason,
		Seeded:          st.Seeded,
		Messages:        datatypes.JSON(messages),
		IntelPool:       datatypes.JSON(intel),
		SearchedQueries: datatypes.JSON(queries),
	}, nil
}

// DecodeMessages unpacks the stored transcript.
func (r *Record) DecodeMessages() ([]debate.TurnMessage, error) {
	var messages []debate.TurnMessage
	if err := json.Unmarshal(r.Messages, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}

// summaryColumns excludes the JSON payloads so listings stay light.
var summaryColumns = []string{
	"id", "session_id", "user_id", "topic", "time_context", "pr_goal",
	"max_rounds", "rounds_run", "stop_reason", "seeded", "created_at", "updated_at",
}

// Store handles reading and writing session records.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new session store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Save writes a finished session for a user. Saving the same session id again
// replaces the stored copy.
func (s *Store) Save(ctx context.Context, st *debate.State, userID uint) (*Record, error) {
	rec, err := FromState(st, userID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		UpdateAll: true,
	}).Create(rec).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save session record: %w", err)
	}
	return rec, nil
}

// ListByUser returns a user's sessions, newest first, without the transcript
// payloads.
func (s *Store) ListByUser(ctx context.Context, userID uint) ([]Record, error) {
	var records []Record
	err := s.db.WithContext(ctx).
		Select(summaryColumns).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list session records: %w", err)
	}
	return records, nil
}

// Get returns one session owned by the user.
func (s *Store) Get(ctx context.Context, userID uint, sessionID string) (*Record, error) {
	var rec Record
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete soft-deletes one session owned by the user.
func (s *Store) Delete(ctx context.Context, userID uint, sessionID string) error {
	res := s.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Delete(&Record{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete session record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
