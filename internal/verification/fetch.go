package verification

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every read and write the core issues.
const DefaultTimeout = 15 * time.Second

// DocumentStore reads a subject's latest KYC submission.
type DocumentStore interface {
	KYCRecord(ctx context.Context, userID uint) (Record, error)
}

// Fetcher loads records and normalizes their image references.
type Fetcher struct {
	store   DocumentStore
	log     logrus.FieldLogger
	timeout time.Duration
}

// NewFetcher returns a Fetcher. A nil log discards diagnostics; timeout <= 0 means DefaultTimeout.
func NewFetcher(store DocumentStore, log logrus.FieldLogger, timeout time.Duration) (*Fetcher, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{store: store, log: log, timeout: timeout}, nil
}

// Fetch reads the record for userID. On failure it returns the placeholder
// record together with a *FetchError, so the record is always renderable.
func (f *Fetcher) Fetch(ctx context.Context, userID uint) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	rec, err := f.store.KYCRecord(ctx, userID)
	if err != nil {
		return Placeholder(userID), &FetchError{UserID: userID, Err: err}
	}
	if rec.UserID == 0 {
		return Placeholder(userID), &FetchError{UserID: userID, Err: ErrNoData}
	}
	if rec.UserID != userID {
		return Placeholder(userID), &FetchError{
			UserID: userID,
			Err:    fmt.Errorf("%w: record belongs to user %d", ErrNoData, rec.UserID),
		}
	}
	return rec.normalized(), nil
}

// Load is Fetch with the error logged and dropped.
func (f *Fetcher) Load(ctx context.Context, userID uint) Record {
	rec, err := f.Fetch(ctx, userID)
	if err != nil {
		f.log.WithError(err).WithField("user_id", userID).Warn("kyc record unavailable, showing placeholder")
	}
	return rec
}
