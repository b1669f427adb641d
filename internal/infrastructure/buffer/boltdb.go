package buffer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const defaultBucket = "buffer"

// ErrSuperseded is returned by Enqueue when a newer item with the same coalesce key is already queued.
var ErrSuperseded = errors.New("buffer: superseded by a newer item")

// Store persists deferred operations in BoltDB until the storage backend is reachable again.
// Items live in one bucket ordered by priority then time; a second bucket maps each
// coalesce key to the item currently holding it.
type Store struct {
	db    *bolt.DB
	items []byte
	index []byte
}

// Open initializes the BoltDB file and ensures both buckets exist.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = defaultBucket
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:    db,
		items: []byte(bucket),
		index: []byte(bucket + ".index"),
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(s.items); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(s.index)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Enqueue stores item, replacing any queued item with the same coalesce key.
// An item older than the one already queued is rejected with ErrSuperseded.
func (s *Store) Enqueue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	item.normalize()
	item.bucketKey = buildKey(item)

	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		items, index := tx.Bucket(s.items), tx.Bucket(s.index)

		if ck := item.CoalesceKey(); ck != "" {
			if prevKey := index.Get([]byte(ck)); prevKey != nil {
				if prev, ok := decode(items.Get(prevKey)); ok && prev.QueuedAt.After(item.QueuedAt) {
					return ErrSuperseded
				}
				if err := items.Delete(prevKey); err != nil {
					return err
				}
			}
			if err := index.Put([]byte(ck), item.bucketKey); err != nil {
				return err
			}
		}
		return items.Put(item.bucketKey, payload)
	})
}

// GetBatch returns up to limit items in queue order without removing them.
func (s *Store) GetBatch(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.items).Cursor()
		for k, v := c.First(); k != nil && len(items) < limit; k, v = c.Next() {
			item, ok := decode(v)
			if !ok {
				continue
			}
			item.bucketKey = append([]byte(nil), k...)
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

// Remove deletes item and releases its coalesce key if it still holds it.
func (s *Store) Remove(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		items, index := tx.Bucket(s.items), tx.Bucket(s.index)

		key := item.bucketKey
		if len(key) == 0 {
			key = findByID(items, item.ID)
			if key == nil {
				return nil
			}
		}
		if ck := item.CoalesceKey(); ck != "" {
			if held := index.Get([]byte(ck)); held != nil && string(held) == string(key) {
				if err := index.Delete([]byte(ck)); err != nil {
					return err
				}
			}
		}
		return items.Delete(key)
	})
}

// Requeue re-inserts an already removed item behind its peers.
func (s *Store) Requeue(item Item) error {
	item.bucketKey = nil
	item.Timestamp = time.Now()
	err := s.Enqueue(item)
	if errors.Is(err, ErrSuperseded) {
		return nil
	}
	return err
}

// Size returns the number of queued items.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.items).Stats().KeyN
		return nil
	})
	return count, err
}

// Cleanup drops items first queued before olderThan and reports how many were removed.
func (s *Store) Cleanup(olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var removed int
	err := s.db.Update(func(tx *bolt.Tx) error {
		items, index := tx.Bucket(s.items), tx.Bucket(s.index)

		var stale []Item
		c := items.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if item, ok := decode(v); ok && item.QueuedAt.Before(olderThan) {
				item.bucketKey = append([]byte(nil), k...)
				stale = append(stale, item)
			}
		}
		// deleting through the cursor while iterating skips entries
		for _, item := range stale {
			if ck := item.CoalesceKey(); ck != "" {
				if err := index.Delete([]byte(ck)); err != nil {
					return err
				}
			}
			if err := items.Delete(item.bucketKey); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func findByID(items *bolt.Bucket, id string) []byte {
	if id == "" {
		return nil
	}
	c := items.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if item, ok := decode(v); ok && item.ID == id {
			return append([]byte(nil), k...)
		}
	}
	return nil
}

func decode(v []byte) (Item, bool) {
	var item Item
	if v == nil || json.Unmarshal(v, &item) != nil {
		return Item{}, false
	}
	return item, true
}

func buildKey(item Item) []byte {
	return []byte(fmt.Sprintf("%d_%020d_%s", item.Priority, item.Timestamp.UnixNano(), item.ID))
}
