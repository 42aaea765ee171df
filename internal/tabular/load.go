package tabular

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
)

// Load parses the file at path according to a resolution produced by
// Resolve. The whole file is read into memory; callers keep the dataset
// only as long as the upload session that owns it.
func Load(path string, res *Resolution) (*Dataset, error) {
	switch {
	case res.Format.Delimited():
		return loadDelimited(path, res)
	case res.Format.Workbook():
		return loadWorkbook(path, res)
	case res.Format == FormatSAS7BDAT:
		return loadSAS7BDAT(path)
	case res.Format == FormatXPT:
		return loadTransport(path)
	}
	return nil, &Error{Kind: KindUnsupportedFormat, Path: path, Err: fmt.Errorf("format %v", res.Format)}
}

func loadDelimited(path string, res *Resolution) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	skipBOM(br)

	r := csv.NewReader(NewSanitizingReader(br))
	r.Comma = res.Delimiter
	records, err := r.ReadAll()
	if err != nil {
		return nil, &Error{Kind: KindManualParse, Path: path, Err: err}
	}
	if len(records) == 0 {
		return nil, &Error{Kind: KindEmptyFile, Path: path, Err: fmt.Errorf("file has no rows")}
	}

	var names []string
	var data [][]string
	if res.HasHeader {
		names = headerNames(records[0])
		data = records[1:]
	} else {
		names = positionalNames(len(records[0]))
		data = records
	}

	rows := make([][]Value, len(data))
	for i, rec := range data {
		row := make([]Value, len(rec))
		for j, cell := range rec {
			row[j] = ParseCell(cell)
		}
		rows[i] = row
	}
	ds, err := FromRows(names, rows)
	if err != nil {
		return nil, &Error{Kind: KindManualParse, Path: path, Err: err}
	}
	return ds, nil
}

// headerNames cleans header cells; blank cells get positional names.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = CleanCell(h)
		if names[i] == "" {
			names[i] = fmt.Sprintf("col%d", i)
		}
	}
	return names
}

// positionalNames names columns col0..colN for headerless files.
func positionalNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("col%d", i)
	}
	return names
}
