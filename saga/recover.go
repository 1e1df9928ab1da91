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

package saga

import (
	"context"
	"fmt"

	"github.com/retailnext/gradeupload/broker"
	"github.com/retailnext/gradeupload/committer"
	"github.com/retailnext/gradeupload/filename"
	"github.com/retailnext/gradeupload/grade"
	"github.com/retailnext/gradeupload/journal"
	"github.com/retailnext/gradeupload/metrics"
	"go.uber.org/zap"
)

type RecoveryJournal interface {
	Ledger
	Get(id string) (journal.Entry, error)
	Entries() ([]journal.Entry, error)
}

// Recovered is what happened to one leftover journal entry. Recorded is set
// for an object a grade record references; it is kept and only its entry
// is removed.
type Recovered struct {
	Entry        journal.Entry
	Compensation Compensation
	Recorded     bool
	Err          error
}

// Recover runs the compensation for every liability left in j by items that
// never finished, and removes the entries it discharged. With ids only those
// entries are considered. With dryRun nothing is changed.
func Recover(ctx context.Context, j RecoveryJournal, b broker.Broker, c committer.Committer, ids []string, dryRun bool) ([]Recovered, error) {
	lgr := zap.S()
	entries, err := selectEntries(j, ids)
	if err != nil {
		return nil, err
	}
	results := make([]Recovered, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result := Recovered{Entry: entry}
		switch entry.Kind {
		case journal.KindCredential:
			result.Compensation = RevokeCredential
		case journal.KindObject:
			// The commit may have landed before the entry could be cleared.
			recorded, err := hasRecord(ctx, c, entry)
			if err != nil {
				result.Err = fmt.Errorf("checking for a record: %w", err)
				lgr.Warnw("recover_error", "id", entry.ID, "file", entry.FileName, "err", result.Err)
				results = append(results, result)
				continue
			}
			result.Recorded = recorded
			if !recorded {
				result.Compensation = RollbackObject
			}
		default:
			result.Err = fmt.Errorf("unknown journal kind %s", entry.Kind)
			results = append(results, result)
			continue
		}
		if dryRun {
			lgr.Infow("recover_pending", "id", entry.ID, "file", entry.FileName, "compensation", result.Compensation, "recorded", result.Recorded, "key", entry.Key)
			results = append(results, result)
			continue
		}

		switch result.Compensation {
		case RevokeCredential:
			result.Err = b.Revoke(ctx, grade.Credential{TargetURL: entry.URL, ObjectKey: entry.Key})
		case RollbackObject:
			result.Err = c.Rollback(ctx, objectRef(entry))
		}
		if result.Compensation != NoCompensation {
			metrics.Saga.Compensation(result.Compensation.String(), result.Err)
		}
		if result.Err == nil {
			result.Err = j.Delete(entry.ID)
		}
		if result.Err != nil {
			lgr.Warnw("recover_error", "id", entry.ID, "file", entry.FileName, "compensation", result.Compensation, "err", result.Err)
		} else {
			lgr.Infow("recover_done", "id", entry.ID, "file", entry.FileName, "compensation", result.Compensation, "recorded", result.Recorded)
		}
		results = append(results, result)
	}
	return results, nil
}

func selectEntries(j RecoveryJournal, ids []string) ([]journal.Entry, error) {
	if len(ids) == 0 {
		return j.Entries()
	}
	entries := make([]journal.Entry, 0, len(ids))
	for _, id := range ids {
		entry, err := j.Get(id)
		if err != nil {
			return nil, fmt.Errorf("journal entry %s: %w", id, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func hasRecord(ctx context.Context, c committer.Committer, entry journal.Entry) (bool, error) {
	identity, err := filename.Parse(entry.FileName)
	if err != nil {
		return false, err
	}
	vc := grade.ValidatedContext{Identity: identity, LectureID: entry.LectureID, StudentID: entry.StudentID}
	return c.Recorded(ctx, vc, objectRef(entry))
}

func objectRef(entry journal.Entry) grade.ObjectRef {
	return grade.ObjectRef{URL: entry.URL, Key: entry.Key}
}
