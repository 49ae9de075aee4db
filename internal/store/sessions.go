package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/onboard/internal/inventory"
)

// ErrSessionNotFound is returned when writing to a session that does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Session is one browser session and the inventory it owns.
type Session struct {
	ID        string
	State     inventory.State
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Flash kinds.
const (
	FlashNotice      = "notice"
	FlashError       = "error"
	FlashCelebration = "celebration"
)

// Flash is a message shown once on the next page render.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// CreateSession creates a new session with an empty inventory.
func CreateSession(ctx context.Context, db *sql.DB) (*Session, error) {
	now := time.Now().Unix()
	id := uuid.NewString()

	state, err := json.Marshal(inventory.State{})
	if err != nil {
		return nil, fmt.Errorf("encoding session state: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO sessions (id, state, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, string(state), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &Session{ID: id, CreatedAt: time.Unix(now, 0), UpdatedAt: time.Unix(now, 0)}, nil
}

// GetSession returns a session by ID, or nil if it does not exist.
func GetSession(ctx context.Context, db *sql.DB, id string) (*Session, error) {
	var state string
	var created, updated int64
	err := db.QueryRowContext(ctx,
		`SELECT state, created_at, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&state, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	s := &Session{ID: id, CreatedAt: time.Unix(created, 0), UpdatedAt: time.Unix(updated, 0)}
	if err := json.Unmarshal([]byte(state), &s.State); err != nil {
		return nil, fmt.Errorf("decoding session state: %w", err)
	}
	return s, nil
}

// SaveSession stores the inventory state of a session.
func SaveSession(ctx context.Context, db *sql.DB, id string, state inventory.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE sessions SET state = ?, updated_at = ? WHERE id = ?`,
		string(data), time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return requireRow(result)
}

// TouchSession marks a session as active without changing its state.
func TouchSession(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	return requireRow(result)
}

// DeleteSession removes a session and its photos.
func DeleteSession(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// PurgeSessions removes sessions inactive since before cutoff, with their
// photos, and returns how many were removed.
func PurgeSessions(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM sessions WHERE updated_at < ?`, cutoff.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	return result.RowsAffected()
}

// CountSessions returns the number of stored sessions.
func CountSessions(ctx context.Context, db *sql.DB) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return count, nil
}

// SetFlash replaces the pending flash messages of a session.
func SetFlash(ctx context.Context, db *sql.DB, id string, flashes ...Flash) error {
	if flashes == nil {
		flashes = []Flash{}
	}
	data, err := json.Marshal(flashes)
	if err != nil {
		return fmt.Errorf("encoding flash: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE sessions SET flash = ? WHERE id = ?`, string(data), id,
	)
	if err != nil {
		return fmt.Errorf("setting flash: %w", err)
	}
	return requireRow(result)
}

// PopFlash returns and clears the pending flash messages of a session.
func PopFlash(ctx context.Context, db *sql.DB, id string) ([]Flash, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx, `SELECT flash FROM sessions WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting flash: %w", err)
	}

	var flashes []Flash
	if err := json.Unmarshal([]byte(data), &flashes); err != nil {
		return nil, fmt.Errorf("decoding flash: %w", err)
	}
	if len(flashes) == 0 {
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET flash = '[]' WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("clearing flash: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}
	return flashes, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
