package scene

import (
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
)

// ErrorKind classifies build failures.
type ErrorKind string

const (
	ErrStructural ErrorKind = "structural"
	ErrCycle      ErrorKind = "reference_cycle"
	ErrRead       ErrorKind = "read"
)

// Error describes a document that could not be used. At the root it is
// returned from Build; for nested documents it is collected in
// Diagnostics.Errors and the subtree is dropped.
type Error struct {
	Kind    ErrorKind
	File    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err carries a scene *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

func wrapXMLError(err error, file, context string) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &Error{Kind: ErrStructural, File: file, Message: fmt.Sprintf("%s (line %d)", context, se.Line), Err: err}
	}
	return &Error{Kind: ErrStructural, File: file, Message: context, Err: err}
}

// WarningKind classifies non-fatal findings.
type WarningKind string

const (
	WarnMissingReference WarningKind = "missing_reference"
	WarnMalformedField   WarningKind = "malformed_field"
	WarnDuplicatePrefab  WarningKind = "duplicate_prefab"
)

// Warning is a recoverable problem. Field and Value are set for malformed fields.
type Warning struct {
	Kind    WarningKind
	File    string
	Field   string
	Value   string
	Message string
}

func (w Warning) String() string {
	s := string(w.Kind)
	if w.File != "" {
		s += " " + w.File
	}
	if w.Field != "" {
		s += fmt.Sprintf(" %s=%q", w.Field, w.Value)
	}
	if w.Message != "" {
		s += ": " + w.Message
	}
	return s
}

// SkippedLayer records a layer reference that was not descended into.
type SkippedLayer struct {
	Name   string
	Reason string
}

// Diagnostics accumulates everything a build chose to tolerate.
type Diagnostics struct {
	Warnings []Warning
	Errors   []*Error
	Skipped  []SkippedLayer
}

// Of returns the warnings of one kind, in the order they were recorded.
func (d *Diagnostics) Of(kind WarningKind) []Warning {
	if d == nil {
		return nil
	}
	var out []Warning
	for _, w := range d.Warnings {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}

// Empty reports whether nothing was recorded.
func (d *Diagnostics) Empty() bool {
	return d == nil || len(d.Warnings)+len(d.Errors)+len(d.Skipped) == 0
}

func (d *Diagnostics) warn(log *slog.Logger, w Warning) {
	d.Warnings = append(d.Warnings, w)
	log.Warn(w.Message, "kind", string(w.Kind), "file", w.File, "field", w.Field, "value", w.Value)
}

func (d *Diagnostics) fail(log *slog.Logger, err *Error) {
	d.Errors = append(d.Errors, err)
	log.Error("dropping document", "kind", string(err.Kind), "file", err.File, "err", err)
}

func (d *Diagnostics) skip(log *slog.Logger, name, reason string) {
	d.Skipped = append(d.Skipped, SkippedLayer{Name: name, Reason: reason})
	log.Debug("skipping layer", "layer", name, "reason", reason)
}
