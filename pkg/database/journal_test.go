package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRecordAndCount(t *testing.T) {
	journal, err := OpenJournal(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer journal.Close()

	ctx := context.Background()
	require.NoError(t, journal.Record(ctx, 1, DirectionSent, "1@c.us", "hello"))
	require.NoError(t, journal.Record(ctx, 1, DirectionSent, "2@c.us", "hi"))
	require.NoError(t, journal.Record(ctx, 1, DirectionReceived, "1@c.us", "reply"))
	require.NoError(t, journal.Record(ctx, 2, DirectionSent, "3@c.us", "other gateway"))

	sent, err := journal.CountByDirection(ctx, 1, DirectionSent)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	received, err := journal.CountByDirection(ctx, 1, DirectionReceived)
	require.NoError(t, err)
	assert.Equal(t, 1, received)

	otherSent, err := journal.CountByDirection(ctx, 2, DirectionSent)
	require.NoError(t, err)
	assert.Equal(t, 1, otherSent)
}

func TestJournalReopenKeepsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	journal, err := OpenJournal(path)
	require.NoError(t, err)
	require.NoError(t, journal.Record(ctx, 7, DirectionReceived, "1@c.us", "persisted"))
	require.NoError(t, journal.Close())

	reopened, err := OpenJournal(path)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.CountByDirection(ctx, 7, DirectionReceived)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
