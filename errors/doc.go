// Package errors provides structured error types for the sgeproto engine.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// Every Kind belongs to a Class: schema, value, wire, state or io.
// The Error type includes rich context: message type, field path, byte offset,
// expected/actual type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
//		Message("Person").
//		Path("phone", errors.Index(0), "type").
//		Expected("int32").
//		Actual("string").
//		Build()
//
// which renders as
//
//	[encode] type_mismatch in Person at phone[0].type: expected int32, got string
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Truncated(errors.PhaseDecode, 12, 4, 1)
//	err := errors.FieldMissing(errors.PhaseDecode, "Person", nil, "name")
//
// All errors implement the standard error interface and support errors.Is/As.
// The Err* sentinels match any phase:
//
//	if errors.Is(err, sgeerrors.ErrTruncatedBuffer) { ... }
package errors
