// Package quota implements the plan-gated batch policy. All checks are pure
// decisions: the caller surfaces rejections to the user and aborts the
// invocation. Client-side checks are advisory only; the processor enforces
// the same policy authoritatively.
package quota

import (
	"fmt"

	"github.com/docforge/docforge/internal/client/batch"
	"github.com/docforge/docforge/internal/common"
)

// Plan is the subscription tier gating feature access and resource limits.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// Flow distinguishes the two batch-count policies of the free tier.
type Flow int

const (
	FlowConvert Flow = iota
	FlowSignature
)

// Limits holds the policy values. The free-tier size ceiling is configurable
// because the product states it inconsistently across surfaces; it is not
// hard-coded here.
type Limits struct {
	FreeMaxFileSize    int64
	PremiumMaxFileSize int64
	FreeConvertBatch   int
	FreeSignatureBatch int
}

// DefaultLimits returns the shipped policy values.
func DefaultLimits() Limits {
	return Limits{
		FreeMaxFileSize:    10 << 20,
		PremiumMaxFileSize: 50 << 20,
		FreeConvertBatch:   5,
		FreeSignatureBatch: 3,
	}
}

// MaxFileSize returns the per-file byte ceiling for the plan.
func (l Limits) MaxFileSize(plan Plan) int64 {
	if plan == PlanPremium {
		return l.PremiumMaxFileSize
	}
	return l.FreeMaxFileSize
}

// CheckBatch decides whether adding incoming files to a batch that already
// holds current files is allowed. A rejection covers the entire incoming
// set: the existing batch is left untouched and nothing is partially added.
func CheckBatch(current, incoming int, plan Plan, flow Flow, l Limits) error {
	if incoming <= 0 {
		return fmt.Errorf("%w: nothing to add", common.ErrNoFilesSelected)
	}
	if plan == PlanPremium {
		return nil
	}

	limit := l.FreeConvertBatch
	if flow == FlowSignature {
		limit = l.FreeSignatureBatch
	}

	if current+incoming > limit {
		return fmt.Errorf("%w: free plan allows %d files, have %d and adding %d",
			common.ErrBatchTooLarge, limit, current, incoming)
	}
	return nil
}

// CheckSize returns the files exceeding the plan's byte ceiling. An empty
// result means the whole batch may be submitted.
func CheckSize(files []*batch.FileHandle, plan Plan, l Limits) []*batch.FileHandle {
	ceiling := l.MaxFileSize(plan)
	var oversized []*batch.FileHandle
	for _, f := range files {
		if f.Size > ceiling {
			oversized = append(oversized, f)
		}
	}
	return oversized
}
