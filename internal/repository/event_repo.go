package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"greenguile/internal/models"

	"github.com/google/uuid"
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

const (
	insertEventSQL = `
		INSERT INTO device_events (id, occurred_at, type, message, meta)
		VALUES (?, ?, ?, ?, ?)
	`
	selectEventsSQL = `SELECT id, occurred_at, type, message, meta FROM device_events`
	pruneEventsSQL  = `DELETE FROM device_events WHERE occurred_at < ?`

	// sqliteTimestampLayout keeps occurred_at sortable as text.
	sqliteTimestampLayout = "2006-01-02 15:04:05"
)

// Append inserts a new event. Empty EventID and zero OccurredAt are filled in.
func (r *EventSQLite) Append(ctx context.Context, e models.DeviceEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	at := e.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}

	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		sqliteTime(at),
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Description,
		encodeMeta(e.Metadata),
	)
	return err
}

// List returns events filtered by [from, to] (inclusive) and/or type, oldest first.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error) {
	where, args := eventFilter(from, to, typ)
	rows, err := r.db.QueryContext(ctx, selectEventsSQL+where+" ORDER BY occurred_at ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.DeviceEvent, 0, 64)
	for rows.Next() {
		var (
			ev   models.DeviceEvent
			meta sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Type, &ev.Description, &meta); err != nil {
			return nil, err
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		ev.Metadata = decodeMeta(meta)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func eventFilter(from, to time.Time, typ string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, sqliteTime(from))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, sqliteTime(to))
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func sqliteTime(t time.Time) string { return t.UTC().Format(sqliteTimestampLayout) }

// encodeMeta returns nil for absent or unencodable metadata so the column stays NULL.
func encodeMeta(v any) *string {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

// decodeMeta keeps the raw text when the stored JSON is malformed.
func decodeMeta(ns sql.NullString) any {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(ns.String), &v); err != nil {
		return ns.String
	}
	return v
}

// PruneBefore deletes events older than before and reports how many went.
func (r *EventSQLite) PruneBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, pruneEventsSQL, sqliteTime(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
