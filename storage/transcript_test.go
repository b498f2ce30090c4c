package storage

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestTranscript_RecentReturnsChronologicalOrder(t *testing.T) {
	req := require.New(t)
	repo := NewTranscriptRepository(openTestDB(t), slog.Default())

	for i := 0; i < 5; i++ {
		req.NoError(repo.Append(domain.Message{
			Sender:  "alice",
			Content: fmt.Sprintf("msg-%d", i),
			Time:    fmt.Sprintf("10:00:0%d", i),
		}))
	}

	messages, err := repo.Recent(10)
	req.NoError(err)
	req.Len(messages, 5)
	for i, m := range messages {
		req.Equal(fmt.Sprintf("msg-%d", i), m.Content)
	}
}

func TestTranscript_RecentHonorsLimit(t *testing.T) {
	req := require.New(t)
	repo := NewTranscriptRepository(openTestDB(t), slog.Default())

	for i := 0; i < 8; i++ {
		req.NoError(repo.Append(domain.Message{Sender: "bob", Content: fmt.Sprintf("msg-%d", i), Time: "10:00:00"}))
	}

	messages, err := repo.Recent(3)
	req.NoError(err)
	req.Len(messages, 3)
	// The newest three, oldest first.
	req.Equal("msg-5", messages[0].Content)
	req.Equal("msg-7", messages[2].Content)
}

func TestTranscript_EmptyStore(t *testing.T) {
	repo := NewTranscriptRepository(openTestDB(t), slog.Default())
	messages, err := repo.Recent(10)
	require.NoError(t, err)
	require.Empty(t, messages)
}
