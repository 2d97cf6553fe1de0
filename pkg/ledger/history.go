package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/forge/pkg/forgetypes"
)

var bucketWorkerStatusHistory = []byte("worker_status_history")

// evictedRecord is what history stores per worker: the last known status
// plus when it was evicted, so pruning can drop entries past retention.
type evictedRecord struct {
	Status    *forgetypes.WorkerStatus `json:"status"`
	EvictedAt time.Time                `json:"evicted_at"`
}

// historyStore is a small bbolt-backed keep-after-eviction cache,
// following the teacher's storage package's bucket-per-kind,
// marshal-to-JSON-value convention.
type historyStore struct {
	db        *bolt.DB
	retention time.Duration
}

func openHistoryStore(path string) (*historyStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketWorkerStatusHistory)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &historyStore{db: db}, nil
}

func (h *historyStore) close() error {
	return h.db.Close()
}

func (h *historyStore) put(ws *forgetypes.WorkerStatus) error {
	rec := evictedRecord{Status: ws, EvictedAt: time.Now()}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return h.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWorkerStatusHistory).Put([]byte(ws.WorkerID), data)
	})
}

func (h *historyStore) get(id forgetypes.WorkerID) (*forgetypes.WorkerStatus, bool) {
	var rec evictedRecord
	found := false

	h.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketWorkerStatusHistory).Get([]byte(id))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		found = true
		return nil
	})

	if !found {
		return nil, false
	}
	if h.retention > 0 && time.Since(rec.EvictedAt) > h.retention {
		return nil, false
	}
	return rec.Status, true
}

// prune deletes history entries that have aged out of the retention
// window. A zero retention disables pruning (entries never expire).
func (h *historyStore) prune(now time.Time) error {
	if h.retention <= 0 {
		return nil
	}

	return h.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketWorkerStatusHistory)
		var stale [][]byte

		err := b.ForEach(func(k, v []byte) error {
			var rec evictedRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				stale = append(stale, append([]byte{}, k...))
				return nil
			}
			if now.Sub(rec.EvictedAt) > h.retention {
				stale = append(stale, append([]byte{}, k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
