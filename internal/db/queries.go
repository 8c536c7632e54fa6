package db

import (
	"context"
	"database/sql"
	"time"
)

type Queries struct {
	db *sql.DB
}

func New(conn *sql.DB) *Queries {
	return &Queries{db: conn}
}

type Session struct {
	ID        string
	Channel   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Turn struct {
	ID           int64
	SessionID    string
	UserMessage  string
	ResponseJson string
	Model        sql.NullString
	CreatedAt    time.Time
}

type UpsertSessionParams struct {
	ID      string
	Channel string
}

const upsertSession = `
INSERT INTO sessions (id, channel) VALUES (?, ?)
ON CONFLICT (id) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertSession(ctx context.Context, arg UpsertSessionParams) error {
	_, err := q.db.ExecContext(ctx, upsertSession, arg.ID, arg.Channel)
	return err
}

type InsertTurnParams struct {
	SessionID    string
	UserMessage  string
	ResponseJson string
	Model        sql.NullString
}

const insertTurn = `
INSERT INTO turns (session_id, user_message, response_json, model) VALUES (?, ?, ?, ?)`

func (q *Queries) InsertTurn(ctx context.Context, arg InsertTurnParams) error {
	_, err := q.db.ExecContext(ctx, insertTurn, arg.SessionID, arg.UserMessage, arg.ResponseJson, arg.Model)
	return err
}

const getTurnsBySession = `
SELECT id, session_id, user_message, response_json, model, created_at
FROM turns WHERE session_id = ? ORDER BY id`

func (q *Queries) GetTurnsBySession(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := q.db.QueryContext(ctx, getTurnsBySession, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.UserMessage, &t.ResponseJson, &t.Model, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const listSessions = `
SELECT id, channel, created_at, updated_at FROM sessions ORDER BY updated_at DESC, id`

func (q *Queries) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := q.db.QueryContext(ctx, listSessions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Channel, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
