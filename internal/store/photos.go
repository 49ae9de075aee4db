package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Photo kinds.
const (
	PhotoMachine = "machine"
	PhotoOther   = "other"
	PhotoLayout  = "layout"
)

// Photo is an uploaded image owned by a session.
type Photo struct {
	ID        string
	SessionID string
	Kind      string
	Mime      string
	Checksum  string
	Data      []byte
	CreatedAt time.Time
}

// SavePhoto stores a photo for a session and returns it with its new ID.
func SavePhoto(ctx context.Context, db *sql.DB, sessionID, kind, mime, checksum string, data []byte) (*Photo, error) {
	p := &Photo{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Kind:      kind,
		Mime:      mime,
		Checksum:  checksum,
		Data:      data,
		CreatedAt: time.Unix(time.Now().Unix(), 0),
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO photos (id, session_id, kind, mime, checksum, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SessionID, p.Kind, p.Mime, p.Checksum, p.Data, p.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("saving photo: %w", err)
	}
	return p, nil
}

// GetPhoto returns a photo with its data, or nil if the session owns no
// photo with that ID.
func GetPhoto(ctx context.Context, db *sql.DB, sessionID, id string) (*Photo, error) {
	p := &Photo{ID: id, SessionID: sessionID}
	var created int64
	err := db.QueryRowContext(ctx,
		`SELECT kind, mime, checksum, data, created_at FROM photos
		 WHERE id = ? AND session_id = ?`, id, sessionID,
	).Scan(&p.Kind, &p.Mime, &p.Checksum, &p.Data, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting photo: %w", err)
	}
	p.CreatedAt = time.Unix(created, 0)
	return p, nil
}

// ListPhotos returns the photos of one kind owned by a session, oldest
// first, without their data.
func ListPhotos(ctx context.Context, db *sql.DB, sessionID, kind string) ([]Photo, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, mime, checksum, created_at FROM photos
		 WHERE session_id = ? AND kind = ? ORDER BY created_at, rowid`, sessionID, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("listing photos: %w", err)
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		p := Photo{SessionID: sessionID, Kind: kind}
		var created int64
		if err := rows.Scan(&p.ID, &p.Mime, &p.Checksum, &created); err != nil {
			return nil, fmt.Errorf("scanning photo: %w", err)
		}
		p.CreatedAt = time.Unix(created, 0)
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// DeletePhotos removes the given photos owned by a session. Unknown IDs are ignored.
func DeletePhotos(ctx context.Context, db *sql.DB, sessionID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, sessionID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	_, err := db.ExecContext(ctx,
		`DELETE FROM photos WHERE session_id = ? AND id IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return fmt.Errorf("deleting photos: %w", err)
	}
	return nil
}
