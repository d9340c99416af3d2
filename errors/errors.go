package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse  Phase = "parse"  // schema text to registry
	PhaseEncode Phase = "encode" // Value to code
	PhaseDecode Phase = "decode" // code to Value
	PhasePack   Phase = "pack"   // code to frame
	PhaseUnpack Phase = "unpack" // frame to code
	PhaseEngine Phase = "engine" // engine lifecycle
	PhaseLoad   Phase = "load"   // file and config loading
)

// Kind categorizes the error
type Kind string

const (
	KindSyntax         Kind = "syntax"
	KindSemantic       Kind = "semantic"
	KindUnknownMessage Kind = "unknown_message"
	KindTypeMismatch   Kind = "type_mismatch"
	KindOverflow       Kind = "overflow"
	KindFieldMissing   Kind = "field_missing"
	KindFieldUnknown   Kind = "field_unknown"
	KindTruncated      Kind = "truncated"
	KindUnknownTag     Kind = "unknown_tag"
	KindInvalidData    Kind = "invalid_data"
	KindFrameCorrupt   Kind = "frame_corrupt"
	KindNotInitialized Kind = "not_initialized"
	KindMissingSchema  Kind = "missing_schema"
	KindNotFound       Kind = "not_found"
	KindIO             Kind = "io"
	KindInvalidInput   Kind = "invalid_input"
)

// Class groups kinds into the four caller-facing error families.
type Class string

const (
	ClassSchema Class = "schema"
	ClassValue  Class = "value"
	ClassWire   Class = "wire"
	ClassState  Class = "state"
	ClassIO     Class = "io"
)

var kindClass = map[Kind]Class{
	KindSyntax:         ClassSchema,
	KindSemantic:       ClassSchema,
	KindUnknownMessage: ClassValue,
	KindTypeMismatch:   ClassValue,
	KindOverflow:       ClassValue,
	KindFieldMissing:   ClassValue,
	KindFieldUnknown:   ClassValue,
	KindInvalidInput:   ClassValue,
	KindTruncated:      ClassWire,
	KindUnknownTag:     ClassWire,
	KindInvalidData:    ClassWire,
	KindFrameCorrupt:   ClassWire,
	KindNotInitialized: ClassState,
	KindMissingSchema:  ClassState,
	KindNotFound:       ClassIO,
	KindIO:             ClassIO,
}

// Class returns the error family of k.
func (k Kind) Class() Class {
	return kindClass[k]
}

// NoOffset marks an error that does not point into a byte buffer.
const NoOffset = -1

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Message  string // message type being processed
	Expected string // schema type name
	Actual   string // value kind or token seen
	Detail   string
	Path     []string
	Offset   int
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Message != "" {
		b.WriteString(" in ")
		b.WriteString(e.Message)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(JoinPath(e.Path))
	}

	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	if e.Offset > NoOffset {
		fmt.Fprintf(&b, " (offset %d)", e.Offset)
	}

	hasTypes := e.Expected != "" || e.Actual != ""
	if hasTypes {
		b.WriteString(": ")
		switch {
		case e.Expected != "" && e.Actual != "":
			b.WriteString("expected ")
			b.WriteString(e.Expected)
			b.WriteString(", got ")
			b.WriteString(e.Actual)
		case e.Expected != "":
			b.WriteString("expected ")
			b.WriteString(e.Expected)
		default:
			b.WriteString("got ")
			b.WriteString(e.Actual)
		}
	}

	if e.Detail != "" {
		if hasTypes {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Class returns the error family.
func (e *Error) Class() Class {
	return e.Kind.Class()
}

// PathString renders Path the way it is printed in Error.
func (e *Error) PathString() string {
	return JoinPath(e.Path)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a Phase matches on Kind alone. Overflow is a narrower
// type mismatch, so an overflow error also matches KindTypeMismatch.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	if e.Kind == KindOverflow && t.Kind == KindTypeMismatch {
		return true
	}
	return e.Kind == t.Kind
}

// JoinPath joins path segments with dots. Index segments such as "[0]"
// attach to the preceding segment.
func JoinPath(path []string) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Index formats a list index as a path segment.
func Index(i int) string {
	return fmt.Sprintf("[%d]", i)
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: NoOffset,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Message sets the message type name
func (b *Builder) Message(name string) *Builder {
	b.err.Message = name
	return b
}

// Expected sets the schema type name
func (b *Builder) Expected(t string) *Builder {
	b.err.Expected = t
	return b
}

// Actual sets the observed kind
func (b *Builder) Actual(t string) *Builder {
	b.err.Actual = t
	return b
}

// Offset sets the byte offset
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Line sets the source line
func (b *Builder) Line(line int) *Builder {
	b.err.Line = line
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Sentinels for errors.Is. They match on Kind regardless of phase.
var (
	ErrSchemaSyntax         = &Error{Kind: KindSyntax}
	ErrSchemaSemantic       = &Error{Kind: KindSemantic}
	ErrUnknownMessageType   = &Error{Kind: KindUnknownMessage}
	ErrFieldTypeMismatch    = &Error{Kind: KindTypeMismatch}
	ErrOverflow             = &Error{Kind: KindOverflow}
	ErrMissingRequiredField = &Error{Kind: KindFieldMissing}
	ErrFieldUnknown         = &Error{Kind: KindFieldUnknown}
	ErrTruncatedBuffer      = &Error{Kind: KindTruncated}
	ErrUnknownFieldTag      = &Error{Kind: KindUnknownTag}
	ErrInvalidData          = &Error{Kind: KindInvalidData}
	ErrFrameCorrupt         = &Error{Kind: KindFrameCorrupt}
	ErrEngineNotInitialized = &Error{Kind: KindNotInitialized}
	ErrMissingSchema        = &Error{Kind: KindMissingSchema}
	ErrNotFound             = &Error{Kind: KindNotFound}
)

// Convenience constructors for common error patterns

// Syntax creates a schema syntax error at line.
func Syntax(line int, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSyntax,
		Line:   line,
		Offset: NoOffset,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Semantic creates a schema semantic error at line.
func Semantic(line int, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSemantic,
		Line:   line,
		Offset: NoOffset,
		Detail: fmt.Sprintf(format, args...),
	}
}

// UnknownMessage creates an unknown message type error
func UnknownMessage(phase Phase, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownMessage,
		Offset: NoOffset,
		Detail: fmt.Sprintf("message type %q is not declared", name),
		Value:  name,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, message string, path []string, expected, actual string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Message:  message,
		Path:     path,
		Offset:   NoOffset,
		Expected: expected,
		Actual:   actual,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, message string, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindOverflow,
		Message:  message,
		Path:     path,
		Offset:   NoOffset,
		Expected: targetType,
		Detail:   fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:    value,
	}
}

// FieldMissing creates a missing required field error
func FieldMissing(phase Phase, message string, path []string, fieldName string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindFieldMissing,
		Message: message,
		Path:    path,
		Offset:  NoOffset,
		Detail:  fmt.Sprintf("required field %q not found", fieldName),
	}
}

// FieldUnknown creates an unknown field error
func FieldUnknown(phase Phase, message string, path []string, fieldName string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindFieldUnknown,
		Message: message,
		Path:    path,
		Offset:  NoOffset,
		Detail:  fmt.Sprintf("unknown field %q", fieldName),
	}
}

// Truncated creates a truncated buffer error
func Truncated(phase Phase, offset, need, have int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTruncated,
		Offset: offset,
		Detail: fmt.Sprintf("need %d bytes, have %d", need, have),
	}
}

// UnknownTag creates an unknown field tag error
func UnknownTag(message string, path []string, offset int, index uint64) *Error {
	return &Error{
		Phase:   PhaseDecode,
		Kind:    KindUnknownTag,
		Message: message,
		Path:    path,
		Offset:  offset,
		Detail:  fmt.Sprintf("field tag %d is not declared", index),
		Value:   index,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, offset int, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Offset: offset,
		Detail: detail,
	}
}

// FrameCorrupt creates a frame corruption error
func FrameCorrupt(offset int, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseUnpack,
		Kind:   KindFrameCorrupt,
		Offset: offset,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Offset: NoOffset,
		Detail: detail,
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Offset: NoOffset,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// MissingSchema creates an error for operations that need a registry
// before one was loaded.
func MissingSchema(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMissingSchema,
		Offset: NoOffset,
		Detail: "no schema loaded",
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Offset: NoOffset,
		Detail: fmt.Sprintf("%s %q not found", what, name),
		Cause:  cause,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Offset: NoOffset,
		Detail: detail,
	}
}

// Load creates a file loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindIO,
		Offset: NoOffset,
		Detail: detail,
		Cause:  cause,
	}
}
