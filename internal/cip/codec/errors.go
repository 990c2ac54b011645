package codec

import (
	"errors"
	"fmt"
)

// ErrReleased is returned when a buffer is used after its ownership was
// transferred to an encoder or after an explicit Release.
var ErrReleased = errors.New("buffer used after release")

// ShortError reports a read that needed more bytes than the buffer holds.
type ShortError struct {
	Field  string
	Offset int
	Need   int
	Have   int
}

func (e *ShortError) Error() string {
	field := e.Field
	if field == "" {
		field = "data"
	}
	return fmt.Sprintf("%s truncated at offset %d: need %d bytes, have %d", field, e.Offset, e.Need, e.Have)
}

// FramingError reports a structurally invalid frame: an unexpected type id,
// a length that does not fit the buffer, or a mismatched reply service.
type FramingError struct {
	Layer string
	Msg   string
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("%s framing: %s", e.Layer, e.Msg)
}

// Framingf builds a FramingError for layer.
func Framingf(layer, format string, args ...any) *FramingError {
	return &FramingError{Layer: layer, Msg: fmt.Sprintf(format, args...)}
}
