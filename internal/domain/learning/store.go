package learning

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skillsteps/skillsteps/pkg/uuid"
)

// ErrInvalidPath is returned by Save when the topic is blank or steps are missing.
var ErrInvalidPath = errors.New("learning path requires a topic and steps")

// ErrPathNotFound is returned when the path does not exist or belongs to another user.
var ErrPathNotFound = errors.New("learning path not found")

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SavedPath is a persisted learning path owned by one user.
type SavedPath struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Topic     string         `json:"topic"`
	Steps     []LearningStep `json:"steps"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// SaveInput is a path as submitted by a client. Steps may be partial and
// are normalized before storage.
type SaveInput struct {
	Topic string
	Steps []PartialStep
}

// PathStore persists learning paths in the saved_learning_path table.
type PathStore struct {
	db *sql.DB
}

// NewPathStore returns a store backed by db. The schema must be migrated.
func NewPathStore(db *sql.DB) *PathStore {
	return &PathStore{db: db}
}

// Save normalizes and stores a path for userID.
func (s *PathStore) Save(ctx context.Context, userID string, in SaveInput) (*SavedPath, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" || in.Steps == nil {
		return nil, ErrInvalidPath
	}

	steps := make([]LearningStep, 0, len(in.Steps))
	for i, p := range in.Steps {
		steps = append(steps, NormalizeStep(p, i+1))
	}
	raw, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("encode steps: %w", err)
	}

	now := time.Now().UTC()
	saved := &SavedPath{
		ID:        uuid.NewV7().String(),
		UserID:    userID,
		Topic:     topic,
		Steps:     steps,
		CreatedAt: now,
		UpdatedAt: now,
	}
	stamp := now.Format(timeLayout)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_learning_path (id, user_id, topic, steps, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, saved.ID, userID, topic, string(raw), stamp, stamp)
	if err != nil {
		return nil, fmt.Errorf("insert learning path: %w", err)
	}
	return saved, nil
}

// List returns userID's paths, newest first.
func (s *PathStore) List(ctx context.Context, userID string) ([]SavedPath, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, topic, steps, created_at, updated_at
		FROM saved_learning_path
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list learning paths: %w", err)
	}
	defer rows.Close()

	out := []SavedPath{}
	for rows.Next() {
		p, err := scanPath(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list learning paths: %w", err)
	}
	return out, nil
}

// Get returns one of userID's paths.
func (s *PathStore) Get(ctx context.Context, userID, id string) (*SavedPath, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, topic, steps, created_at, updated_at
		FROM saved_learning_path
		WHERE id = ? AND user_id = ?
	`, id, userID)
	p, err := scanPath(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPathNotFound
	}
	return p, err
}

// Delete removes one of userID's paths.
func (s *PathStore) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_learning_path WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete learning path: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete learning path: %w", err)
	}
	if n == 0 {
		return ErrPathNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPath(row scanner) (*SavedPath, error) {
	var p SavedPath
	var steps, created, updated string
	if err := row.Scan(&p.ID, &p.UserID, &p.Topic, &steps, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan learning path: %w", err)
	}
	if err := json.Unmarshal([]byte(steps), &p.Steps); err != nil {
		return nil, fmt.Errorf("decode steps of %s: %w", p.ID, err)
	}
	p.CreatedAt, _ = time.Parse(timeLayout, created) //nolint:errcheck // written by Save
	p.UpdatedAt, _ = time.Parse(timeLayout, updated) //nolint:errcheck
	return &p, nil
}
