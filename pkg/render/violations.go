package render

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrMissingDefaultGroup is recorded when a container has no default-group
	// nodes. Nothing is rendered for that pass.
	ErrMissingDefaultGroup = errors.New("render: container is missing the default group")
	// ErrUnknownInputType is recorded for input nodes whose type is outside the
	// known set. The node is skipped.
	ErrUnknownInputType = errors.New("render: unknown input type")
	// ErrMissingAttributes is recorded for nodes decoded without attributes.
	ErrMissingAttributes = errors.New("render: node has no attributes")
)

// Violation describes one contract breach found during a render pass.
type Violation struct {
	Err    error
	Node   string
	Detail string
}

func (v Violation) Error() string {
	var b strings.Builder
	if v.Err != nil {
		b.WriteString(v.Err.Error())
	} else {
		b.WriteString("render: contract violation")
	}
	if v.Node != "" {
		fmt.Fprintf(&b, " (node %q)", v.Node)
	}
	if v.Detail != "" {
		b.WriteString(": ")
		b.WriteString(v.Detail)
	}
	return b.String()
}

func (v Violation) Unwrap() error { return v.Err }

// Report accumulates violations. A nil *Report discards everything, so
// renderers can record unconditionally. Safe for concurrent use.
type Report struct {
	mu         sync.Mutex
	violations []Violation
}

// Record appends a violation.
func (r *Report) Record(v Violation) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.violations = append(r.violations, v)
	r.mu.Unlock()
}

// Violations returns a copy of everything recorded so far.
func (r *Report) Violations() []Violation {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Violation(nil), r.violations...)
}

// Has reports whether a violation wrapping target was recorded.
func (r *Report) Has(target error) bool {
	for _, v := range r.Violations() {
		if errors.Is(v, target) {
			return true
		}
	}
	return false
}

// Err joins all violations into one error, or nil when there are none.
func (r *Report) Err() error {
	violations := r.Violations()
	if len(violations) == 0 {
		return nil
	}
	errs := make([]error, 0, len(violations))
	for _, v := range violations {
		errs = append(errs, v)
	}
	return errors.Join(errs...)
}
