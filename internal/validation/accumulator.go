// Package validation collects conversion faults section by section and
// decides at explicit flush points whether the conversion may continue.
package validation

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// DefaultPrefix marks scene properties that override registered mesh defaults.
const DefaultPrefix = "DefaultMesh-"

// SectionError is the aggregated failure raised by ExecuteErrors.
type SectionError struct {
	Section string
	Faults  []Fault // every fault pending at flush time, fatal and not
	err     error
}

// Error implements error.
func (e *SectionError) Error() string {
	return fmt.Sprintf("%s: %d fatal fault(s): %v", e.Section, len(e.Fatal()), e.err)
}

// Unwrap exposes the fatal faults to errors.Is and errors.As.
func (e *SectionError) Unwrap() []error {
	return multierr.Errors(e.err)
}

// Fatal returns only the fatal faults.
func (e *SectionError) Fatal() []Fault {
	var out []Fault
	for _, f := range e.Faults {
		if f.IsFatal() {
			out = append(out, f)
		}
	}
	return out
}

// Accumulator is the fault log of one conversion call. It is not safe for
// concurrent use.
type Accumulator struct {
	log      *zap.Logger
	section  string
	mesh     string
	defaults mod3.PropertyMap
	pending  []Fault
	warnings []Fault
}

// New creates an accumulator logging flushed warnings to log.
func New(log *zap.Logger) *Accumulator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Accumulator{log: log}
}

// SetSection scopes subsequent faults and clears the mesh scope.
func (a *Accumulator) SetSection(name string) {
	a.section = name
	a.mesh = ""
	a.log.Debug("section", zap.String("section", name))
}

// SetMeshName scopes subsequent faults to a mesh inside the current section.
func (a *Accumulator) SetMeshName(name string) {
	a.mesh = name
}

// Section returns the active section name.
func (a *Accumulator) Section() string { return a.section }

// Record appends a fault stamped with the active section and mesh.
func (a *Accumulator) Record(f Fault) {
	if f.Section == "" {
		f.Section = a.section
	}
	if f.Mesh == "" {
		f.Mesh = a.mesh
	}
	a.pending = append(a.pending, f)
}

// RegisterDefault makes name recoverable when missing.
func (a *Accumulator) RegisterDefault(name string, v mod3.Value) {
	a.defaults.Set(name, v)
}

// Default returns the registered default for name.
func (a *Accumulator) Default(name string) (mod3.Value, bool) {
	return a.defaults.Get(name)
}

// AttemptLoadDefaults registers every entry of table as a default, preferring
// a DefaultPrefix-prefixed override from source. Nothing is recorded.
func (a *Accumulator) AttemptLoadDefaults(table mod3.PropertyMap, source mod3.PropertyMap) {
	table.Range(func(key string, v mod3.Value) bool {
		if override, ok := source.Get(DefaultPrefix + key); ok {
			v = override
		}
		a.defaults.Set(key, v)
		return true
	})
}

// PropertyMissing records a missing field and returns the substituted
// default. Without a registered default the fault is fatal and ok is false.
func (a *Accumulator) PropertyMissing(name string) (v mod3.Value, ok bool) {
	v, ok = a.defaults.Get(name)
	f := Fault{
		Kind:    MissingField,
		Code:    CodeMissingProperty,
		Element: NoElement,
		Field:   name,
	}
	if ok {
		f.Detail = "substituted default " + v.String()
	} else {
		f.Severity = Fatal
		f.Detail = "no default available"
	}
	a.Record(f)
	return v, ok
}

// VerifyLoad copies name from source into storage, substituting the
// registered default when it is missing. A name already present in storage
// is reported as a duplicate and left untouched.
func (a *Accumulator) VerifyLoad(source *mod3.PropertyMap, name string, storage *mod3.PropertyMap, context string) {
	v, ok := source.Get(name)
	if !ok {
		if v, ok = a.PropertyMissing(name); !ok {
			return
		}
	}
	if storage.Has(name) {
		a.PropertyDuplicate(name, context, v)
		return
	}
	storage.Set(name, v)
}

// PropertyDuplicate records a conflicting second definition. The first
// definition stays in effect.
func (a *Accumulator) PropertyDuplicate(name, context string, value interface{}) {
	a.Record(Fault{
		Kind:    DuplicateDefinition,
		Code:    CodeDuplicateProperty,
		Element: NoElement,
		Field:   name,
		Values:  []interface{}{value},
		Detail:  "already defined on " + context,
	})
}

// InvalidGroupName records a weight group that maps to no bone. The entry is
// dropped; the conversion continues.
func (a *Accumulator) InvalidGroupName(vertex int, canonical string) {
	a.Record(Fault{
		Kind:    UnresolvableReference,
		Code:    CodeInvalidGroupName,
		Element: vertex,
		Field:   "group",
		Values:  []interface{}{canonical},
	})
}

// Unresolvable records a fatal dangling reference.
func (a *Accumulator) Unresolvable(code string, element int, field string, value interface{}) {
	a.Record(Fault{
		Kind:     UnresolvableReference,
		Severity: Fatal,
		Code:     code,
		Element:  element,
		Field:    field,
		Values:   []interface{}{value},
	})
}

// LimitExceeded records a fatal overflow of a format limit.
func (a *Accumulator) LimitExceeded(code string, element int, got, limit interface{}) {
	a.Record(Fault{
		Kind:     LimitExceeded,
		Severity: Fatal,
		Code:     code,
		Element:  element,
		Values:   []interface{}{got},
		Detail:   fmt.Sprintf("limit %v", limit),
	})
}

// Conflict records two per-corner values that disagree for one vertex. The
// first-seen value is kept.
func (a *Accumulator) Conflict(code string, vertex int, attribute string, kept, rejected interface{}) {
	a.Record(Fault{
		Kind:    ConflictingAttribute,
		Code:    code,
		Element: vertex,
		Field:   attribute,
		Values:  []interface{}{kept, rejected},
	})
}

// Pending returns the faults recorded since the last flush.
func (a *Accumulator) Pending() []Fault {
	return append([]Fault(nil), a.pending...)
}

// HasFatal reports whether a fatal fault is pending.
func (a *Accumulator) HasFatal() bool {
	for _, f := range a.pending {
		if f.IsFatal() {
			return true
		}
	}
	return false
}

// ExecuteErrors is the flush point. Any pending fatal fault yields a single
// *SectionError; otherwise pending warnings are logged and moved to the
// warning log. The pending log is empty afterwards in both cases.
func (a *Accumulator) ExecuteErrors() error {
	pending := a.pending
	a.pending = nil

	var err error
	for _, f := range pending {
		if f.IsFatal() {
			err = multierr.Append(err, f)
		}
	}
	if err != nil {
		a.log.Error("conversion aborted",
			zap.String("section", a.section),
			zap.Int("faults", len(pending)),
			zap.Error(err),
		)
		return &SectionError{Section: a.section, Faults: pending, err: err}
	}

	for _, f := range pending {
		a.log.Warn(f.Code,
			zap.String("kind", f.Kind.String()),
			zap.String("section", f.Section),
			zap.String("mesh", f.Mesh),
			zap.String("code", f.Code),
			zap.Int("element", f.Element),
			zap.String("field", f.Field),
			zap.Any("values", f.Values),
			zap.String("detail", f.Detail),
		)
	}
	a.warnings = append(a.warnings, pending...)
	return nil
}

// Warnings returns every warning flushed so far.
func (a *Accumulator) Warnings() []Fault {
	return append([]Fault(nil), a.warnings...)
}
