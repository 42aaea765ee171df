package tabular

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"unicode/utf8"

	"github.com/Varen-6/tabular-viewer-test-task/internal/sniff"
)

// sniffSampleSize is how much of a delimited file the resolver reads
// when deciding delimiter and header presence.
const sniffSampleSize = 2048

// InputKind names the parameter an unresolved upload is waiting for.
type InputKind string

const (
	InputDelimiter InputKind = "delimiter"
	InputSheet     InputKind = "sheet"
)

// InputRequest asks the user for the one parameter resolution still
// needs. Options carries the sheet names for sheet requests and is nil
// for delimiter requests, where any single character is acceptable.
// Cause holds the suppressed failure that forced the prompt, if there
// was one: delimiter requests wrap the detection error, sheet requests
// have no cause.
type InputRequest struct {
	Kind    InputKind `json:"kind"`
	Options []string  `json:"options,omitempty"`
	Cause   error     `json:"-"`
}

// Params are parse parameters known before resolution, either supplied
// up front or collected through an InputRequest round trip.
type Params struct {
	Delimiter string
	Sheet     string
}

// Resolution tells Load how to parse a file.
type Resolution struct {
	Format Format

	// Delimited text only.
	Delimiter rune
	HasHeader bool
	// Manual records that the delimiter came from the user rather than
	// the sniffer.
	Manual bool

	// Workbooks only.
	Sheet string
}

// Resolve decides how to parse the file at path. Exactly one of the
// three results is set: a Resolution when the file speaks for itself or
// params fill the gap, an InputRequest when the user must supply a
// delimiter or pick a sheet, or an error.
func Resolve(path string, params Params) (*Resolution, *InputRequest, error) {
	format := FromPath(path)
	switch {
	case format.Delimited():
		return resolveDelimited(path, format, params)
	case format.Workbook():
		return resolveWorkbook(path, format, params)
	case format.Stat():
		// Statistical formats carry their own schema.
		return &Resolution{Format: format}, nil, nil
	}
	return nil, nil, &Error{
		Kind: KindUnsupportedFormat,
		Path: path,
		Err:  fmt.Errorf("extension %q is not supported", filepath.Ext(path)),
	}
}

func resolveDelimited(path string, format Format, params Params) (*Resolution, *InputRequest, error) {
	if params.Delimiter != "" {
		d, _ := utf8.DecodeRuneInString(params.Delimiter)
		if d == utf8.RuneError || len(params.Delimiter) != utf8.RuneLen(d) {
			return nil, nil, &Error{
				Kind: KindManualParse,
				Path: path,
				Err:  fmt.Errorf("delimiter %q is not a single character", params.Delimiter),
			}
		}
		return &Resolution{Format: format, Delimiter: d, HasHeader: true, Manual: true}, nil, nil
	}

	sample, err := readSample(path)
	if err != nil {
		return nil, nil, err
	}

	s := sniff.New()
	hasHeader, err := s.HasHeader(sample)
	if err != nil {
		// Ambiguous sample. Recoverable: ask for the delimiter instead
		// of failing the upload.
		return nil, delimiterRequest(path, err), nil
	}
	if !hasHeader {
		// Headerless files fall back to a comma regardless of content.
		return &Resolution{Format: format, Delimiter: ',', HasHeader: false}, nil, nil
	}
	dialect, err := s.Sniff(sample)
	if err != nil {
		return nil, delimiterRequest(path, err), nil
	}
	return &Resolution{Format: format, Delimiter: rune(dialect.Delimiter), HasHeader: true}, nil, nil
}

func delimiterRequest(path string, cause error) *InputRequest {
	return &InputRequest{
		Kind:  InputDelimiter,
		Cause: &Error{Kind: KindDelimiterDetection, Path: path, Err: cause},
	}
}

// readSample reads the leading sniffSampleSize bytes of the file.
func readSample(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, sniffSampleSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if n == 0 {
		return "", &Error{Kind: KindEmptyFile, Path: path, Err: fmt.Errorf("file has no content")}
	}
	return string(buf[:n]), nil
}

func resolveWorkbook(path string, format Format, params Params) (*Resolution, *InputRequest, error) {
	sheets, err := sheetNames(path, format)
	if err != nil {
		return nil, nil, err
	}
	if len(sheets) == 0 {
		return nil, nil, &Error{Kind: KindSheetRead, Path: path, Err: fmt.Errorf("workbook has no sheets")}
	}
	if params.Sheet != "" {
		if !slices.Contains(sheets, params.Sheet) {
			return nil, nil, &Error{
				Kind: KindSheetRead,
				Path: path,
				Err:  fmt.Errorf("no sheet named %q", params.Sheet),
			}
		}
		return &Resolution{Format: format, Sheet: params.Sheet}, nil, nil
	}
	if len(sheets) == 1 {
		return &Resolution{Format: format, Sheet: sheets[0]}, nil, nil
	}
	return nil, &InputRequest{Kind: InputSheet, Options: sheets}, nil
}
