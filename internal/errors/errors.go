// Package errors formats compiler diagnostics with source context,
// line/column information, and a caret pointing at the offending
// column, targeted at token.Position and covering a fixed taxonomy of
// error kinds and severities.
package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cwbudde/slangc/internal/token"
)

// Kind is one taxonomy entry in the diagnostic classification.
type Kind int

const (
	Lexical Kind = iota
	Parse
	UnresolvedName
	DuplicateDeclaration
	TypeMismatch
	ArityMismatch
	MissingField
	SuperfluousField
	DuplicateField
	MissingCaseVariant
	DuplicateCaseVariant
	InvalidTypeExpression
	BadGenericArguments
	CannotIterate
	CannotCall
)

func (k Kind) String() string {
	names := [...]string{
		"lexical-error", "parse-error", "unresolved-name",
		"duplicate-declaration", "type-mismatch", "arity-mismatch",
		"missing-field", "superfluous-field", "duplicate-field",
		"missing-case-variant", "duplicate-case-variant",
		"invalid-type-expression", "bad-generic-arguments",
		"cannot-iterate", "cannot-call",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "error"
}

// Severity distinguishes fatal diagnostics from advisory ones. Every
// Kind in the current taxonomy is always reported as Error; Severity
// exists so a future phase could add warnings without a breaking change.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is a single compilation error or warning with position and
// source context.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Message  string
	Source   string
	File     string
	Pos      token.Position
}

// New creates a Diagnostic.
func New(kind Kind, pos token.Position, message, source, file string) *Diagnostic {
	return &Diagnostic{Kind: kind, Severity: SeverityError, Pos: pos, Message: message, Source: source, File: file}
}

// Error implements the error interface.
func (d *Diagnostic) Error() string { return d.Format(false) }

func (d *Diagnostic) sourceLines() []string {
	if d.Source == "" {
		return nil
	}
	return strings.Split(d.Source, "\n")
}

// Format renders five lines of source context (two before, the error
// line, two after) and a caret under the offending column.
func (d *Diagnostic) Format(color bool) string {
	var sb strings.Builder

	if d.File != "" {
		sb.WriteString(fmt.Sprintf("%s in %s:%d:%d [%s]\n", severityWord(d.Severity), d.File, d.Pos.Line, d.Pos.Column, d.Kind))
	} else {
		sb.WriteString(fmt.Sprintf("%s at %d:%d [%s]\n", severityWord(d.Severity), d.Pos.Line, d.Pos.Column, d.Kind))
	}

	lines := d.sourceLines()
	if len(lines) > 0 {
		start := d.Pos.Line - 2
		if start < 1 {
			start = 1
		}
		end := d.Pos.Line + 2
		if end > len(lines) {
			end = len(lines)
		}
		for ln := start; ln <= end; ln++ {
			if ln < 1 || ln > len(lines) {
				continue
			}
			prefix := fmt.Sprintf("%4d | ", ln)
			sb.WriteString(prefix)
			sb.WriteString(lines[ln-1])
			sb.WriteString("\n")
			if ln == d.Pos.Line {
				sb.WriteString(strings.Repeat(" ", len(prefix)+d.Pos.Column-1))
				if color {
					sb.WriteString("\033[1;31m")
				}
				sb.WriteString("^")
				if color {
					sb.WriteString("\033[0m")
				}
				sb.WriteString("\n")
			}
		}
	}

	sb.WriteString(d.Message)
	return sb.String()
}

func severityWord(s Severity) string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Bag collects diagnostics across a phase.
type Bag struct {
	diags []*Diagnostic
}

// Add appends d to the bag.
func (b *Bag) Add(d *Diagnostic) { b.diags = append(b.diags, d) }

// HasErrors reports whether any SeverityError diagnostic was collected.
func (b *Bag) HasErrors() bool {
	for _, d := range b.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Diagnostics returns the collected diagnostics, sorted into stable
// source order (row, then column, then discovery order) so a rerun over
// unchanged source always reports errors in the same sequence.
func (b *Bag) Diagnostics() []*Diagnostic {
	out := make([]*Diagnostic, len(b.diags))
	copy(out, b.diags)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pos.Line != out[j].Pos.Line {
			return out[i].Pos.Line < out[j].Pos.Line
		}
		return out[i].Pos.Column < out[j].Pos.Column
	})
	return out
}

// MultiError renders every collected diagnostic as a single multi-error
// string.
func (b *Bag) MultiError(color bool) string {
	diags := b.Diagnostics()
	if len(diags) == 0 {
		return ""
	}
	if len(diags) == 1 {
		return diags[0].Format(color)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("compilation failed with %d error(s):\n\n", len(diags)))
	for i, d := range diags {
		sb.WriteString(fmt.Sprintf("[%d/%d] ", i+1, len(diags)))
		sb.WriteString(d.Format(color))
		if i < len(diags)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
