// Package invoke is the client for the remote operation processor. It builds
// operation requests, forwards the session's bearer credential, and maps
// processor outcomes back to the shared error taxonomy.
package invoke

import (
	"fmt"

	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/pagerange"
)

// Kind is the processing action requested.
type Kind string

const (
	KindConvert Kind = "convert"
	KindMerge   Kind = "merge"
	KindSplit   Kind = "split"
	KindProtect Kind = "protect"
	KindUnlock  Kind = "unlock"
	KindOCR     Kind = "ocr"
)

// MinPasswordLen applies to protect passwords.
const MinPasswordLen = 6

// Options is the per-operation variant carrying exactly the fields that
// operation requires. Validate runs at the orchestrator boundary, before any
// network call.
type Options interface {
	Kind() Kind
	Validate() error
	// payload returns the operation-specific request fields.
	payload() map[string]any
}

type ConvertOptions struct {
	TargetFormat string
}

func (o ConvertOptions) Kind() Kind { return KindConvert }

func (o ConvertOptions) Validate() error {
	if o.TargetFormat == "" {
		return fmt.Errorf("convert: target format required")
	}
	return nil
}

func (o ConvertOptions) payload() map[string]any {
	return map[string]any{"targetFormat": o.TargetFormat}
}

type MergeOptions struct {
	OutputName string
}

func (o MergeOptions) Kind() Kind { return KindMerge }

func (o MergeOptions) Validate() error { return nil }

func (o MergeOptions) payload() map[string]any {
	if o.OutputName == "" {
		return nil
	}
	return map[string]any{"outputName": o.OutputName}
}

type SplitOptions struct {
	PageRanges string
}

func (o SplitOptions) Kind() Kind { return KindSplit }

func (o SplitOptions) Validate() error {
	return pagerange.Validate(o.PageRanges)
}

func (o SplitOptions) payload() map[string]any {
	return map[string]any{"pageRanges": o.PageRanges}
}

type ProtectOptions struct {
	Password string
	Confirm  string
}

func (o ProtectOptions) Kind() Kind { return KindProtect }

func (o ProtectOptions) Validate() error {
	if len(o.Password) < MinPasswordLen {
		return common.ErrPasswordTooShort
	}
	if o.Password != o.Confirm {
		return common.ErrPasswordMismatch
	}
	return nil
}

func (o ProtectOptions) payload() map[string]any {
	return map[string]any{"password": o.Password}
}

type UnlockOptions struct {
	Password string
}

func (o UnlockOptions) Kind() Kind { return KindUnlock }

func (o UnlockOptions) Validate() error {
	if o.Password == "" {
		return fmt.Errorf("unlock: password required")
	}
	return nil
}

func (o UnlockOptions) payload() map[string]any {
	return map[string]any{"password": o.Password}
}

type OCROptions struct {
	Language string
}

func (o OCROptions) Kind() Kind { return KindOCR }

func (o OCROptions) Validate() error { return nil }

func (o OCROptions) payload() map[string]any {
	if o.Language == "" {
		return nil
	}
	return map[string]any{"language": o.Language}
}
