package codec

import (
	stderrors "errors"

	"github.com/wippyai/sgeproto/errors"
)

// Version is the format version byte that starts every encoded message.
const Version byte = 0x01

// DefaultMaxDepth bounds message nesting on decode.
const DefaultMaxDepth = 256

func appendPath(path []string, seg string) []string {
	p := make([]string, len(path)+1)
	copy(p, path)
	p[len(path)] = seg
	return p
}

// annotate fills message and path context into errors raised below the
// point where that context is known.
func annotate(err error, message string, path []string) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		if e.Message == "" {
			e.Message = message
		}
		if e.Path == nil && len(path) > 0 {
			e.Path = append([]string(nil), path...)
		}
	}
	return err
}

// shift moves the offset of err by delta.
func shift(err error, delta int) error {
	var e *errors.Error
	if delta != 0 && stderrors.As(err, &e) && e.Offset > errors.NoOffset {
		e.Offset += delta
	}
	return err
}
