// Package storage keeps a local transcript of everything the client
// displayed. It is a convenience log, not a delivery guarantee: the
// broker owns persistence semantics.
package storage

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-relay/domain"
	"chat-relay/wire"
)

type TranscriptRepository struct {
	db  *badger.DB
	log *slog.Logger
	seq atomic.Uint64
}

func NewTranscriptRepository(db *badger.DB, log *slog.Logger) *TranscriptRepository {
	return &TranscriptRepository{db: db, log: log}
}

// Append persists one displayed message.
// The key is formatted as "msg:{timestamp_padded}:{seq}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Keep arrival order for messages landing on the same nanosecond via the
//     in-process sequence, with UUID as a final collision disconnector.
func (t *TranscriptRepository) Append(m domain.Message) error {
	key := fmt.Sprintf("msg:%019d:%012d:%s", time.Now().UnixNano(), t.seq.Add(1), uuid.NewString())
	value, err := wire.EncodeMessage(m)
	if err != nil {
		return err
	}
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Recent returns up to limit stored messages, oldest first. Thanks to the
// padded timestamp in the key, a reverse prefix scan yields the newest
// entries, re-reversed before returning.
func (t *TranscriptRepository) Recent(limit int) ([]domain.Message, error) {
	var raw [][]byte
	err := t.db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:")
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the last possible key for the prefix, then walk back.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(raw) < limit; it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			raw = append(raw, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		m, err := wire.DecodeMessage(raw[i])
		if err != nil {
			t.log.Warn("Skipping unreadable transcript entry", "error", err)
			continue
		}
		messages = append(messages, m)
	}
	return messages, nil
}
