// Package history persists conversation turns so a session can be resumed.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"jobagent/internal/agent"
	"jobagent/internal/db"

	"github.com/openai/openai-go/v3/responses"
)

// Store implements agent.History on top of SQLite.
type Store struct {
	q       *db.Queries
	channel string
}

var _ agent.History = (*Store)(nil)

// NewStore records new sessions under channel ("cli", "http") unless the
// run's context names another one.
func NewStore(database *db.DB, channel string) *Store {
	return &Store{q: db.New(database.Conn()), channel: channel}
}

func (s *Store) EnsureSession(ctx context.Context, sessionID string) error {
	channel := agent.ChannelFromContext(ctx)
	if channel == "" {
		channel = s.channel
	}
	return s.q.UpsertSession(ctx, db.UpsertSessionParams{
		ID:      sessionID,
		Channel: channel,
	})
}

func (s *Store) SaveTurn(ctx context.Context, sessionID, userMessage string, resp *responses.Response) error {
	if err := s.EnsureSession(ctx, sessionID); err != nil {
		return fmt.Errorf("ensuring session: %w", err)
	}
	return s.q.InsertTurn(ctx, db.InsertTurnParams{
		SessionID:    sessionID,
		UserMessage:  userMessage,
		ResponseJson: resp.RawJSON(),
		Model:        sql.NullString{String: string(resp.Model), Valid: resp.Model != ""},
	})
}

// LoadInputHistory replays every stored turn as user message plus model
// output, oldest first.
func (s *Store) LoadInputHistory(ctx context.Context, sessionID string) ([]responses.ResponseInputItemUnionParam, error) {
	turns, err := s.q.GetTurnsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var items []responses.ResponseInputItemUnionParam
	for _, turn := range turns {
		items = append(items, responses.ResponseInputItemParamOfMessage(turn.UserMessage, "user"))

		var resp responses.Response
		if err := json.Unmarshal([]byte(turn.ResponseJson), &resp); err != nil {
			slog.Warn("skipping turn with invalid response JSON", "turn_id", turn.ID, "error", err)
			continue
		}
		items = append(items, agent.OutputToInput(resp.Output)...)
	}

	return items, nil
}

// Sessions lists known session IDs, most recently active first.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	sessions, err := s.q.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
	}
	return ids, nil
}
