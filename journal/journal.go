// Copyright 2026 RetailNext, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mailru/easyjson"
	"github.com/retailnext/gradeupload/metrics"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var NotFound = errors.New("not found")

var liabilitiesBucket = []byte("liabilities")

// Journal is a bbolt database of liabilities left behind by running items.
// Entries that survive a crash are discharged by recovery.
type Journal struct {
	db       *bbolt.DB
	counters *metrics.JournalCounters
}

func Open(path string, mode os.FileMode) (*Journal, error) {
	db, err := bbolt.Open(path, mode, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := matchDirOwner(path); err != nil {
		zap.S().Warnw("journal_chown_error", "path", path, "err", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(liabilitiesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{
		db:       db,
		counters: metrics.NewJournalCounters(string(liabilitiesBucket)),
	}, nil
}

// matchDirOwner gives the database the owner of its directory, so a journal
// created by a recovery run as root stays writable for uploads.
func matchDirOwner(path string) error {
	if os.Geteuid() != 0 {
		return nil
	}
	var file, dir syscall.Stat_t
	if err := syscall.Stat(path, &file); err != nil {
		return err
	}
	if err := syscall.Stat(filepath.Dir(path), &dir); err != nil {
		return err
	}
	if file.Uid == dir.Uid && file.Gid == dir.Gid {
		return nil
	}
	return os.Chown(path, int(dir.Uid), int(dir.Gid))
}

func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) Put(entry Entry) error {
	if entry.ID == "" {
		return errors.New("journal entry without id")
	}
	value, err := easyjson.Marshal(entry)
	if err != nil {
		return err
	}
	j.counters.Puts.Inc()
	return j.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(liabilitiesBucket).Put([]byte(entry.ID), value)
	})
}

// Get returns the entry with id, or NotFound.
func (j *Journal) Get(id string) (Entry, error) {
	var entry Entry
	err := j.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(liabilitiesBucket).Get([]byte(id))
		if value == nil {
			return NotFound
		}
		return easyjson.Unmarshal(value, &entry)
	})
	if err != nil {
		j.counters.Misses.Inc()
		return Entry{}, err
	}
	j.counters.Hits.Inc()
	return entry, nil
}

// Delete discharges an entry. Deleting a missing entry is not an error.
func (j *Journal) Delete(id string) error {
	j.counters.Deletes.Inc()
	return j.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(liabilitiesBucket).Delete([]byte(id))
	})
}

// Entries returns every live entry, oldest first.
func (j *Journal) Entries() ([]Entry, error) {
	var entries []Entry
	err := j.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(liabilitiesBucket).ForEach(func(k, v []byte) error {
			var entry Entry
			if err := easyjson.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("journal entry %s: %w", k, err)
			}
			entries = append(entries, entry)
			return nil
		})
	})
	return entries, err
}
