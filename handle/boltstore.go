package handle

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketBlobs = []byte("blobs")
	bucketMeta  = []byte("meta")
)

type boltMeta struct {
	Kind    string `json:"kind"`
	Size    int    `json:"size"`
	Preview string `json:"preview"`
}

// BoltStore is a durable Store backed by bbolt. Entries survive process
// restarts; like MemStore, storage is append-only and existing entries are
// never rewritten.
type BoltStore struct {
	db      *bolt.DB
	ceiling int
}

// OpenBolt opens (or creates) a bbolt-backed store at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open handle store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketBlobs); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init handle store: %w", err)
	}
	return &BoltStore{db: db, ceiling: DefaultWindowCeiling}, nil
}

// SetWindowCeiling overrides the per-call read ceiling. Values <= 0 keep
// the default.
func (s *BoltStore) SetWindowCeiling(n int) {
	if n > 0 {
		s.ceiling = n
	}
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Put implements Store.
func (s *BoltStore) Put(text, kind string) (Handle, error) {
	key := KeyFor(text)
	h := Handle{
		Key:     key,
		Kind:    kind,
		Size:    len(text),
		Preview: preview(text),
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta.Get([]byte(key)) != nil {
			// Already stored; keep the existing entry.
			return nil
		}
		raw, err := json.Marshal(boltMeta{Kind: kind, Size: h.Size, Preview: h.Preview})
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketBlobs).Put([]byte(key), []byte(text)); err != nil {
			return err
		}
		return meta.Put([]byte(key), raw)
	})
	if err != nil {
		return Handle{}, fmt.Errorf("put handle: %w", err)
	}
	return h, nil
}

// Stats implements Store.
func (s *BoltStore) Stats(key string) (Stats, error) {
	var st Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketMeta).Get([]byte(key))
		if raw == nil {
			return fmt.Errorf("%w: %s", ErrUnknownHandle, key)
		}
		var m boltMeta
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("corrupt handle meta %s: %w", key, err)
		}
		text := tx.Bucket(bucketBlobs).Get([]byte(key))
		st = Stats{
			Key:       key,
			Kind:      m.Kind,
			Size:      m.Size,
			LineCount: lineCount(string(text)),
			Preview:   m.Preview,
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	return st, nil
}

// ReadWindow implements Store.
func (s *BoltStore) ReadWindow(key string, start, size int) (Window, error) {
	var w Window
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketBlobs).Get([]byte(key))
		if raw == nil {
			return fmt.Errorf("%w: %s", ErrUnknownHandle, key)
		}
		w = clampWindow(key, string(raw), start, size, s.ceiling)
		return nil
	})
	if err != nil {
		return Window{}, err
	}
	return w, nil
}

var _ Store = (*MemStore)(nil)
var _ Store = (*BoltStore)(nil)
