package crash

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/forge/pkg/forgetypes"
)

var bucketCrashRecords = []byte("crash_records")

// recordStore persists CrashRecords in a bbolt bucket keyed by
// "<worker_id>/<crashed_at RFC3339Nano>", so a prefix scan over one
// worker's key range returns its records in chronological order — the
// same bucket-per-kind, JSON-marshal-per-record convention the status
// ledger's history store uses.
type recordStore struct {
	db *bolt.DB
}

func openRecordStore(path string) (*recordStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCrashRecords)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &recordStore{db: db}, nil
}

func (s *recordStore) close() error {
	return s.db.Close()
}

func recordKey(id forgetypes.WorkerID, at time.Time) []byte {
	return []byte(fmt.Sprintf("%s/%s", id, at.Format(time.RFC3339Nano)))
}

func (s *recordStore) append(rec *forgetypes.CrashRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCrashRecords).Put(recordKey(rec.WorkerID, rec.CrashedAt), data)
	})
}

// forWorker returns every record stored for id, oldest first.
func (s *recordStore) forWorker(id forgetypes.WorkerID) ([]*forgetypes.CrashRecord, error) {
	prefix := []byte(string(id) + "/")
	var out []*forgetypes.CrashRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketCrashRecords).Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			var rec forgetypes.CrashRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			out = append(out, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CrashedAt.Before(out[j].CrashedAt) })
	return out, nil
}

func hasPrefix(k, prefix []byte) bool {
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// prune deletes records older than retention across all workers. A zero
// or negative retention disables pruning.
func (s *recordStore) prune(now time.Time, retention time.Duration) error {
	if retention <= 0 {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCrashRecords)
		var stale [][]byte

		err := b.ForEach(func(k, v []byte) error {
			var rec forgetypes.CrashRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				stale = append(stale, append([]byte{}, k...))
				return nil
			}
			if now.Sub(rec.CrashedAt) > retention {
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
