// Package pagerange validates and parses the page-range expressions accepted
// by the split operation, e.g. "1-3,4,5-7".
package pagerange

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docforge/docforge/internal/common"
)

// Range is an inclusive page interval. A single page n is the interval n-n.
type Range struct {
	From int
	To   int
}

// Parse decodes a comma-separated list of pages and inclusive intervals.
// Empty segments, non-numeric input, page zero, and reversed intervals are
// all rejected; the return error wraps common.ErrInvalidPageRange.
func Parse(s string) ([]Range, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty expression", common.ErrInvalidPageRange)
	}

	segments := strings.Split(s, ",")
	ranges := make([]Range, 0, len(segments))

	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", common.ErrInvalidPageRange, s)
		}

		from, to, ok := splitSegment(seg)
		if !ok {
			return nil, fmt.Errorf("%w: segment %q", common.ErrInvalidPageRange, seg)
		}
		if from < 1 || to < from {
			return nil, fmt.Errorf("%w: segment %q", common.ErrInvalidPageRange, seg)
		}
		ranges = append(ranges, Range{From: from, To: to})
	}

	return ranges, nil
}

// Validate reports whether s is a well-formed page-range expression.
func Validate(s string) error {
	_, err := Parse(s)
	return err
}

func splitSegment(seg string) (from, to int, ok bool) {
	parts := strings.SplitN(seg, "-", 2)

	from, ok = parsePage(parts[0])
	if !ok {
		return 0, 0, false
	}

	if len(parts) == 1 {
		return from, from, true
	}

	to, ok = parsePage(parts[1])
	if !ok {
		return 0, 0, false
	}
	return from, to, true
}

// parsePage accepts decimal digits only; signs and spaces are rejected.
func parsePage(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// String renders r in the same syntax Parse accepts.
func (r Range) String() string {
	if r.From == r.To {
		return strconv.Itoa(r.From)
	}
	return fmt.Sprintf("%d-%d", r.From, r.To)
}
