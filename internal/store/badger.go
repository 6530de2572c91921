package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore is a Store backed by dgraph-io/badger/v4, an embedded-KV
// dependency. A game record is marshaled to JSON once per mutating
// call and written with badger.Entry.WithTTL, mirroring a classic
// txn.Set/Get usage pattern; a read re-writes the same bytes with a
// refreshed TTL so that every access resets the idle expiration even
// though badger itself only resets TTL on write, not on read.
// GameRecord.IdleTTL round-trips through the "exp" JSON field so the
// window survives the read-modify-write cycle instead of reverting to
// an untimed record on the very first reload.
//
// A per-key in-process mutex guards the read-modify-write sequence in
// Mutate: per-key serialization is expected to come from single-owner
// routing in the manager, but BadgerStore does not rely on that
// alone, so concurrent callers within this process cannot interleave
// their read-modify-write cycles on one key. The mutexes are local to
// this process and do not coordinate with any other process.
type BadgerStore struct {
	db *badger.DB

	keyLocksMu sync.Mutex
	keyLocks   map[string]*sync.Mutex
}

// OpenBadgerStore opens (creating if absent) a badger database rooted
// at dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db, keyLocks: make(map[string]*sync.Mutex)}, nil
}

func (s *BadgerStore) lockFor(key string) *sync.Mutex {
	s.keyLocksMu.Lock()
	defer s.keyLocksMu.Unlock()
	m, ok := s.keyLocks[key]
	if !ok {
		m = &sync.Mutex{}
		s.keyLocks[key] = m
	}
	return m
}

func (s *BadgerStore) Create(_ context.Context, key string, rec *GameRecord) (bool, error) {
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	var created bool
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			created = false
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		entry := badger.NewEntry([]byte(key), data).WithTTL(idleTTLOrDefault(rec.IdleTTL))
		if err := txn.SetEntry(entry); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func (s *BadgerStore) Load(_ context.Context, key string) (*GameRecord, error) {
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()
	return s.loadLocked(key)
}

// loadLocked reads and refreshes the TTL on the record at key. Caller
// must hold the key's mutex.
func (s *BadgerStore) loadLocked(key string) (*GameRecord, error) {
	var rec GameRecord
	var raw []byte
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		entry := badger.NewEntry([]byte(key), raw).WithTTL(idleTTLOrDefault(rec.IdleTTL))
		return txn.SetEntry(entry)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *BadgerStore) Save(_ context.Context, key string, rec *GameRecord) error {
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()
	return s.saveLocked(key, rec)
}

func (s *BadgerStore) saveLocked(key string, rec *GameRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data).WithTTL(idleTTLOrDefault(rec.IdleTTL))
		return txn.SetEntry(entry)
	})
}

func (s *BadgerStore) Exists(_ context.Context, key string) (bool, error) {
	exists := true
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			exists = false
			return nil
		}
		return err
	})
	return exists, err
}

func (s *BadgerStore) Mutate(_ context.Context, key string, fn func(*GameRecord) error) error {
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	rec, err := s.loadLocked(key)
	if err != nil {
		return err
	}
	if err := fn(rec); err != nil {
		return err
	}
	return s.saveLocked(key, rec)
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// idleTTLOrDefault clamps a requested TTL to a sane default: a
// refreshable idle TTL defaulting to one hour.
func idleTTLOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return time.Hour
	}
	return ttl
}
