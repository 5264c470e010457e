package archive

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat reports an archive extension no reader handles.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// ErrUnsafePath reports a member whose name would land outside the
// destination directory.
var ErrUnsafePath = errors.New("archive member escapes destination")

// ExtractionError reports an archive that could not be unpacked. It only
// affects the archive named; a batch moves on to the next one.
type ExtractionError struct {
	Archive string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Archive, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ErrorKind implements the roster error classifier.
func (e *ExtractionError) ErrorKind() string { return "extraction" }
