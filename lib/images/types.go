package images

import (
	"errors"
	"fmt"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/nyunai/nyun/lib/runtime"
	"github.com/samber/lo"
)

// Status is the state of one image in a pull batch.
type Status string

const (
	StatusPending Status = "pending"
	StatusSkipped Status = "skipped"
	StatusPulled  Status = "pulled"
	StatusFailed  Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusSkipped || s == StatusPulled || s == StatusFailed
}

// FailureKind classifies a failed pull.
type FailureKind string

const (
	// FailureAccessDenied is permanent until the user is granted access.
	FailureAccessDenied FailureKind = "access-denied"
	// FailureTransient covers network and engine errors worth retrying.
	FailureTransient FailureKind = "transient"
)

// SupportContact is shown when an image cannot be accessed.
const SupportContact = "contact@nyunai.com"

// PullJob is one image in a pull batch.
type PullJob struct {
	Image   *Ref
	Ordinal int // 1-based position in the batch
	Total   int
	Status  Status
}

// PullResult is the terminal outcome of a PullJob.
type PullResult struct {
	Image    *Ref
	Ordinal  int
	Status   Status
	Failure  FailureKind
	Err      error
	Bytes    int64
	Duration time.Duration
}

// Message is a one-line, user-facing summary of the outcome.
func (r PullResult) Message() string {
	switch r.Status {
	case StatusSkipped:
		return fmt.Sprintf("%s already present", r.Image)
	case StatusPulled:
		if r.Bytes > 0 {
			return fmt.Sprintf("%s pulled (%s)", r.Image, datasize.ByteSize(r.Bytes).HumanReadable())
		}
		return fmt.Sprintf("%s pulled", r.Image)
	case StatusFailed:
		if r.Failure == FailureAccessDenied {
			return fmt.Sprintf("%s could not be accessed; contact %s to request access", r.Image, SupportContact)
		}
		return fmt.Sprintf("%s failed to pull, try again: %v", r.Image, r.Err)
	default:
		return fmt.Sprintf("%s %s", r.Image, r.Status)
	}
}

func classifyFailure(err error) FailureKind {
	if errors.Is(err, runtime.ErrAccessDenied) {
		return FailureAccessDenied
	}
	return FailureTransient
}

// Failed returns the failed results of a batch.
func Failed(results []PullResult) []PullResult {
	return lo.Filter(results, func(r PullResult, _ int) bool {
		return r.Status == StatusFailed
	})
}
