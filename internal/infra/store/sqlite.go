package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"interview-bot/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	chat_id       INTEGER PRIMARY KEY,
	phase         TEXT    NOT NULL,
	pending_query TEXT    NOT NULL DEFAULT '',
	notice_id     INTEGER NOT NULL DEFAULT 0,
	dialogue      TEXT    NOT NULL DEFAULT '[]'
)`

// SQLite persists sessions across restarts. Dialogue turns are stored as a
// JSON array in prompt order.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging session database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sessions table: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Get(ctx context.Context, chatID int64) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT phase, pending_query, notice_id, dialogue FROM sessions WHERE chat_id = ?", chatID)

	var (
		phase        string
		pendingQuery string
		noticeID     int
		dialogueJSON string
	)
	if err := row.Scan(&phase, &pendingQuery, &noticeID, &dialogueJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewSession(chatID), nil
		}
		return nil, fmt.Errorf("loading session %d: %w", chatID, err)
	}

	var dialogue []domain.Turn
	if err := json.Unmarshal([]byte(dialogueJSON), &dialogue); err != nil {
		return nil, fmt.Errorf("decoding dialogue for session %d: %w", chatID, err)
	}

	return &domain.Session{
		ChatID:       chatID,
		Phase:        domain.Phase(phase),
		PendingQuery: pendingQuery,
		Dialogue:     dialogue,
		NoticeID:     noticeID,
	}, nil
}

func (s *SQLite) Put(ctx context.Context, sess *domain.Session) error {
	dialogue := sess.Dialogue
	if dialogue == nil {
		dialogue = []domain.Turn{}
	}
	dialogueJSON, err := json.Marshal(dialogue)
	if err != nil {
		return fmt.Errorf("encoding dialogue for session %d: %w", sess.ChatID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (chat_id, phase, pending_query, notice_id, dialogue)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			phase = excluded.phase,
			pending_query = excluded.pending_query,
			notice_id = excluded.notice_id,
			dialogue = excluded.dialogue`,
		sess.ChatID, string(sess.Phase), sess.PendingQuery, sess.NoticeID, string(dialogueJSON))
	if err != nil {
		return fmt.Errorf("saving session %d: %w", sess.ChatID, err)
	}

	return nil
}
