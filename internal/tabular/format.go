package tabular

import (
	"path/filepath"
	"sort"
	"strings"
)

// Format is the closed set of file formats the viewer understands.
// Dispatch switches on the tag; nothing registers formats at runtime.
type Format int

const (
	FormatUnsupported Format = iota
	FormatCSV
	FormatTXT
	FormatXLS
	FormatXLSX
	FormatXLSM
	FormatXLTX
	FormatXLTM
	FormatSAS7BDAT
	FormatXPT
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatTXT:
		return "txt"
	case FormatXLS:
		return "xls"
	case FormatXLSX:
		return "xlsx"
	case FormatXLSM:
		return "xlsm"
	case FormatXLTX:
		return "xltx"
	case FormatXLTM:
		return "xltm"
	case FormatSAS7BDAT:
		return "sas7bdat"
	case FormatXPT:
		return "xpt"
	}
	return "unsupported"
}

// FromPath maps a file path to its Format by lowercased extension.
// Anything without a recognized extension is FormatUnsupported.
func FromPath(path string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "csv":
		return FormatCSV
	case "txt":
		return FormatTXT
	case "xls":
		return FormatXLS
	case "xlsx":
		return FormatXLSX
	case "xlsm":
		return FormatXLSM
	case "xltx":
		return FormatXLTX
	case "xltm":
		return FormatXLTM
	case "sas7bdat":
		return FormatSAS7BDAT
	case "xpt":
		return FormatXPT
	}
	return FormatUnsupported
}

// Delimited reports whether f parses as delimiter-separated text.
func (f Format) Delimited() bool { return f == FormatCSV || f == FormatTXT }

// Workbook reports whether f is a spreadsheet workbook.
func (f Format) Workbook() bool {
	switch f {
	case FormatXLS, FormatXLSX, FormatXLSM, FormatXLTX, FormatXLTM:
		return true
	}
	return false
}

// Stat reports whether f is a self-describing statistical file.
func (f Format) Stat() bool { return f == FormatSAS7BDAT || f == FormatXPT }

// FormatInfo describes one supported format for listings.
type FormatInfo struct {
	Extension   string `json:"extension"`
	Kind        string `json:"kind"`
	MayPrompt   bool   `json:"may_prompt"`
	Description string `json:"description"`
}

var supportedFormats = []Format{
	FormatCSV, FormatTXT,
	FormatXLS, FormatXLSX, FormatXLSM, FormatXLTX, FormatXLTM,
	FormatSAS7BDAT, FormatXPT,
}

var formatDescriptions = map[Format]string{
	FormatCSV:      "Comma-separated values",
	FormatTXT:      "Delimited text",
	FormatXLS:      "Excel 97-2003 workbook",
	FormatXLSX:     "Excel workbook",
	FormatXLSM:     "Excel macro-enabled workbook",
	FormatXLTX:     "Excel template",
	FormatXLTM:     "Excel macro-enabled template",
	FormatSAS7BDAT: "SAS dataset",
	FormatXPT:      "SAS transport file",
}

// Info returns the listing entry for f. MayPrompt marks formats whose
// resolution can require user input.
func (f Format) Info() FormatInfo {
	info := FormatInfo{
		Extension:   f.String(),
		Description: formatDescriptions[f],
	}
	switch {
	case f.Delimited():
		info.Kind = "delimited"
		info.MayPrompt = true
	case f.Workbook():
		info.Kind = "workbook"
		info.MayPrompt = true
	case f.Stat():
		info.Kind = "stat"
	}
	return info
}

// Formats lists every supported format, grouped by kind and
// alphabetical within each group.
func Formats() []FormatInfo {
	out := make([]FormatInfo, 0, len(supportedFormats))
	for _, f := range supportedFormats {
		out = append(out, f.Info())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Extension < out[j].Extension
	})
	return out
}
