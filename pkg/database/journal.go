package database

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// Journal is an append-only local log of message events per gateway, backed
// by an embedded sqlite database.
type Journal struct {
	db *sql.DB
}

func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS message_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		gateway_id INTEGER NOT NULL,
		direction TEXT NOT NULL,
		chat_id TEXT NOT NULL,
		body TEXT,
		created_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Record(ctx context.Context, gatewayID uint, direction, chatID, body string) error {
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO message_events (gateway_id, direction, chat_id, body, created_at) VALUES (?, ?, ?, ?, ?)",
		gatewayID, direction, chatID, body, time.Now().UTC())
	return err
}

func (j *Journal) CountByDirection(ctx context.Context, gatewayID uint, direction string) (int, error) {
	var count int
	err := j.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM message_events WHERE gateway_id = ? AND direction = ?",
		gatewayID, direction).Scan(&count)
	return count, err
}

func (j *Journal) Close() error {
	return j.db.Close()
}
