package tabular

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Kind classifies a resolve or load failure.
type Kind int

const (
	// KindUnsupportedFormat rejects file extensions outside the
	// supported set.
	KindUnsupportedFormat Kind = iota + 1
	// KindDelimiterDetection marks an ambiguous delimited sample. The
	// resolver never returns it as an error; it rides along as the
	// Cause of the delimiter InputRequest.
	KindDelimiterDetection
	// KindManualParse covers a delimited file that failed to parse with
	// its resolved delimiter, whether sniffed or user-provided.
	KindManualParse
	// KindSheetRead covers workbook open and sheet extraction failures.
	KindSheetRead
	// KindStatFileRead covers unreadable SAS datasets and transport
	// files.
	KindStatFileRead
	// KindEmptyFile rejects files or sheets with no content at all.
	KindEmptyFile
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "unsupported format"
	case KindDelimiterDetection:
		return "delimiter detection"
	case KindManualParse:
		return "parse"
	case KindSheetRead:
		return "sheet read"
	case KindStatFileRead:
		return "stat file read"
	case KindEmptyFile:
		return "empty file"
	}
	return "unknown"
}

// Error is a kinded failure tied to the file that caused it.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, filepath.Base(e.Path))
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, filepath.Base(e.Path), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is, or wraps, a tabular Error of the given
// kind.
func IsKind(err error, k Kind) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == k
}
