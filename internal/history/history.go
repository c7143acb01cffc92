package history

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketCmd = "cmd"

// History keeps the most recent command lines, persisted to a bolt database
// when a file is given and held in memory otherwise.
type History struct {
	items    []string
	db       *bolt.DB
	maxItems int
	mu       sync.Mutex
}

func New(file string, maxItems int) (*History, error) {
	if maxItems < 1 {
		maxItems = 1000
	}
	h := &History{maxItems: maxItems}
	if file == "" {
		return h, nil
	}

	db, err := bolt.Open(file, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", file, err)
	}
	h.db = db
	if err := h.load(); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

func (h *History) Add(item string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = append(h.items, item)
	if len(h.items) > h.maxItems {
		h.items = h.items[len(h.items)-h.maxItems:]
	}
	if h.db == nil {
		return nil
	}
	return h.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCmd))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		if err := b.Put(marshalSeq(seq), []byte(item)); err != nil {
			return err
		}
		return trim(b, h.maxItems)
	})
}

func (h *History) GetAll() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string{}, h.items...)
}

func (h *History) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}

func (h *History) load() error {
	return h.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketCmd))
		if err != nil {
			return err
		}
		if err := trim(b, h.maxItems); err != nil {
			return err
		}
		return b.ForEach(func(_, v []byte) error {
			h.items = append(h.items, string(v))
			return nil
		})
	})
}

// trim deletes the oldest entries until at most max remain.
func trim(b *bolt.Bucket, max int) error {
	n := 0
	if err := b.ForEach(func(_, _ []byte) error { n++; return nil }); err != nil {
		return err
	}
	excess := n - max
	c := b.Cursor()
	for k, _ := c.First(); k != nil && excess > 0; k, _ = c.First() {
		if err := b.Delete(k); err != nil {
			return err
		}
		excess--
	}
	return nil
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
