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
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/retailnext/gradeupload/backend"
	"github.com/retailnext/gradeupload/broker"
	"github.com/retailnext/gradeupload/committer"
	"github.com/retailnext/gradeupload/filename"
	"github.com/retailnext/gradeupload/grade"
	"github.com/retailnext/gradeupload/journal"
	"github.com/retailnext/gradeupload/metrics"
	"github.com/retailnext/gradeupload/validate"
	"go.uber.org/zap"
)

const (
	actionJournal = "journal"
)

var ErrEmptyFile = errors.New("empty file")

type Transferrer interface {
	Transfer(ctx context.Context, cred grade.Credential, body []byte, mimeType string) (grade.ObjectRef, error)
}

// Ledger records live liabilities so they can be discharged after a crash.
type Ledger interface {
	Put(entry journal.Entry) error
	Delete(id string) error
}

// Saga takes one candidate through parse, validate, credential, transfer
// and commit. Ledger may be nil. Zero timeouts mean no limit.
type Saga struct {
	Validator           validate.Validator
	Broker              broker.Broker
	Transfer            Transferrer
	Committer           committer.Committer
	Ledger              Ledger
	StageTimeout        time.Duration
	CompensationTimeout time.Duration
}

// item holds the values one run passes between stages.
type item struct {
	*Saga
	index     int
	candidate grade.Candidate
	lgr       *zap.SugaredLogger

	identity grade.Identity
	mimeType string
	vc       grade.ValidatedContext
	cred     grade.Credential
	credID   string
	ref      grade.ObjectRef
	refID    string
	record   grade.Record

	secondary []grade.SecondaryError
}

// Run never returns an error: every failure ends up in the outcome.
func (s *Saga) Run(ctx context.Context, index int, candidate grade.Candidate) (outcome grade.Outcome) {
	start := time.Now()
	it := &item{
		Saga:      s,
		index:     index,
		candidate: candidate,
		lgr:       zap.S().With("file", candidate.FileName, "index", index),
	}

	var compensation Compensation
	defer func() {
		if compensation != NoCompensation {
			it.compensate(ctx, compensation)
		}
		outcome.Secondary = it.secondary
		metrics.Saga.SecondsTotal.Add(time.Since(start).Seconds())
	}()

	state := Pending
	for {
		current := state
		err := it.guard(current.String(), func() error { return it.step(ctx, current) })
		next, comp := Next(state, err)
		if next == Failed {
			stage := state.Stage()
			compensation = comp
			metrics.Saga.StageFailure(stage.String())
			it.lgr.Warnw("item_failed", "stage", stage, "err", err, "compensation", comp)
			if backend.IsAuthExpired(err) {
				// Every sibling would be rejected the same way.
				grade.Halt(ctx, err)
			}
			return grade.Failed(index, candidate.FileName, stage, err.Error())
		}
		if next == Committed {
			metrics.Saga.Committed.Inc()
			it.lgr.Infow("item_committed", "record", it.record.ID, "url", it.record.ObjectURL)
			return grade.Committed(index, candidate.FileName, it.record)
		}
		state = next
	}
}

func (it *item) step(ctx context.Context, s State) error {
	if s == Pending {
		return it.parse()
	}
	// Every remaining stage talks to another system; a cancelled batch
	// fails the stage here instead of starting the call.
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	if s == Parsed {
		return it.validate(ctx)
	}
	// A call that may leave a credential, an object or a record behind runs
	// to completion once started, so its result is known either way.
	callCtx, cancel := detach(ctx, it.StageTimeout)
	defer cancel()
	switch s {
	case Validated:
		return it.issue(callCtx)
	case CredentialIssued:
		return it.transfer(callCtx)
	case Uploaded:
		return it.commit(callCtx)
	}
	panic(fmt.Sprintf("no action from %s", s))
}

// detach returns a context that ignores cancellation of parent but keeps its
// values, bounded by timeout when it is positive.
func detach(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(parent)
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// guard turns a panic in f into an error, so it fails this item only.
func (it *item) guard(what string, f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.Saga.Panics.Inc()
			it.lgr.Errorw("saga_panic", "in", what, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic in %s: %v", what, r)
		}
	}()
	return f()
}

func (it *item) parse() error {
	identity, err := filename.Parse(it.candidate.FileName)
	if err != nil {
		return err
	}
	mimeType, _ := filename.MimeTypeForExtension(identity.Extension)
	if len(it.candidate.Body) == 0 {
		return ErrEmptyFile
	}
	if detected := it.candidate.MimeType; detected != "" && !sameMimeType(detected, mimeType) {
		return &filename.ParseError{
			FileName: it.candidate.FileName,
			Reason:   fmt.Sprintf("content is %s but extension %q means %s", detected, identity.Extension, mimeType),
		}
	}
	it.identity = identity
	it.mimeType = mimeType
	return nil
}

func sameMimeType(detected, expected string) bool {
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	return strings.EqualFold(strings.TrimSpace(detected), expected)
}

func (it *item) validate(ctx context.Context) error {
	vc, err := it.Validator.Validate(ctx, it.identity)
	if err != nil {
		return err
	}
	it.vc = vc
	return nil
}

func (it *item) issue(ctx context.Context) error {
	cred, err := it.Broker.Issue(ctx, it.vc)
	if err != nil {
		return err
	}
	it.cred = cred
	it.credID = it.remember(journal.KindCredential, cred.ObjectKey, cred.TargetURL)
	return nil
}

func (it *item) transfer(ctx context.Context) error {
	ref, err := it.Transfer.Transfer(ctx, it.cred, it.candidate.Body, it.mimeType)
	if err != nil {
		return err
	}
	it.ref = ref
	// The object replaces the credential as the live liability.
	it.refID = it.remember(journal.KindObject, ref.Key, ref.URL)
	it.forget(it.credID)
	return nil
}

func (it *item) commit(ctx context.Context) error {
	record, err := it.Committer.Commit(ctx, it.vc, it.ref)
	if err != nil {
		return err
	}
	it.record = record
	it.forget(it.refID)
	return nil
}

// compensate runs c once with a context that outlives batch cancellation.
// Its error is recorded as secondary and never changes the outcome.
func (it *item) compensate(parent context.Context, c Compensation) {
	ctx, cancel := detach(parent, it.CompensationTimeout)
	defer cancel()

	var err error
	var discharged string
	switch c {
	case RevokeCredential:
		err = it.guard(c.String(), func() error { return it.Broker.Revoke(ctx, it.cred) })
		discharged = it.credID
	case RollbackObject:
		err = it.guard(c.String(), func() error { return it.Committer.Rollback(ctx, it.ref) })
		discharged = it.refID
	default:
		panic(fmt.Sprintf("unknown compensation %s", c))
	}
	metrics.Saga.Compensation(c.String(), err)
	if err != nil {
		it.lgr.Warnw("compensation_error", "compensation", c, "err", err)
		it.secondary = append(it.secondary, grade.SecondaryError{Action: c.String(), Err: err})
		return
	}
	it.lgr.Infow("compensation_done", "compensation", c)
	it.forget(discharged)
}

func (it *item) remember(kind journal.Kind, key, url string) string {
	if it.Ledger == nil {
		return ""
	}
	entry := journal.NewEntry(kind, it.candidate.FileName, key, url)
	entry.LectureID = it.vc.LectureID
	entry.StudentID = it.vc.StudentID
	if err := it.Ledger.Put(entry); err != nil {
		it.journalError(err)
		return ""
	}
	return entry.ID
}

func (it *item) forget(id string) {
	if it.Ledger == nil || id == "" {
		return
	}
	if err := it.Ledger.Delete(id); err != nil {
		it.journalError(err)
	}
}

func (it *item) journalError(err error) {
	metrics.Saga.JournalErrors.Inc()
	it.lgr.Errorw("journal_error", "err", err)
	it.secondary = append(it.secondary, grade.SecondaryError{Action: actionJournal, Err: err})
}
