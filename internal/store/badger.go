package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chatroom/internal/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	participantPrefix = "participant:"
	messagePrefix     = "msg:"
)

// BadgerStore is an embedded implementation of Store. Message keys are
// "msg:{timestamp_padded}:{uuid}": the 19-digit zero padding makes
// lexicographic key order the insertion order, and the UUID keeps two
// messages appended in the same nanosecond from colliding.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(path string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func participantKey(name string) []byte {
	return []byte(participantPrefix + name)
}

func messageKey() []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", messagePrefix, time.Now().UnixNano(), uuid.NewString()))
}

// Participant Repository Implementation
func (s *BadgerStore) CreateParticipant(_ context.Context, name string, lastSeen time.Time) error {
	value, err := json.Marshal(&models.Participant{Name: name, LastSeen: lastSeen})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(participantKey(name), value)
	})
}

func (s *BadgerStore) GetParticipant(_ context.Context, name string) (*models.Participant, error) {
	p := &models.Participant{}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(participantKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, p)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *BadgerStore) ListParticipants(_ context.Context) ([]*models.Participant, error) {
	var participants []*models.Participant
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(participantPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			p := &models.Participant{}
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, p)
			})
			if err != nil {
				return err
			}
			participants = append(participants, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (s *BadgerStore) TouchParticipant(_ context.Context, name string, lastSeen time.Time) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		key := participantKey(name)
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		p := &models.Participant{}
		if err := item.Value(func(value []byte) error {
			return json.Unmarshal(value, p)
		}); err != nil {
			return err
		}

		p.LastSeen = lastSeen
		value, err := json.Marshal(p)
		if err != nil {
			return err
		}
		return txn.Set(key, value)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *BadgerStore) ListStaleParticipants(ctx context.Context, cutoff time.Time) ([]*models.Participant, error) {
	all, err := s.ListParticipants(ctx)
	if err != nil {
		return nil, err
	}

	var stale []*models.Participant
	for _, p := range all {
		if !p.LastSeen.After(cutoff) {
			stale = append(stale, p)
		}
	}
	return stale, nil
}

func (s *BadgerStore) DeleteStaleParticipants(_ context.Context, cutoff time.Time) error {
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		// Staleness is re-checked per record inside this transaction so
		// a heartbeat written since the stale read keeps its participant.
		prefix := []byte(participantPrefix)
		var doomed [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			p := &models.Participant{}
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, p)
			})
			if err != nil {
				return err
			}
			if !p.LastSeen.After(cutoff) {
				doomed = append(doomed, it.Item().KeyCopy(nil))
			}
		}

		for _, key := range doomed {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Message Repository Implementation
func (s *BadgerStore) AppendMessage(_ context.Context, msg *models.Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(), value)
	})
}

func (s *BadgerStore) AppendMessages(_ context.Context, msgs []*models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, msg := range msgs {
			value, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			if err := txn.Set(messageKey(), value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) ListMessages(_ context.Context) ([]*models.Message, error) {
	var messages []*models.Message
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(messagePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			msg := &models.Message{}
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, msg)
			})
			if err != nil {
				return err
			}
			messages = append(messages, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}
