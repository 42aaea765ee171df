package tabular

import (
	"fmt"
	"os"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// sheetNames lists the sheets of a workbook in workbook order.
func sheetNames(path string, format Format) ([]string, error) {
	if format == FormatXLS {
		f, err := os.Open(path)
		if err != nil {
			return nil, &Error{Kind: KindSheetRead, Path: path, Err: err}
		}
		defer f.Close()
		wb, err := xls.OpenReader(f, "utf-8")
		if err != nil {
			return nil, &Error{Kind: KindSheetRead, Path: path, Err: err}
		}

		names := make([]string, 0, wb.NumSheets())
		for i := 0; i < wb.NumSheets(); i++ {
			if sh := wb.GetSheet(i); sh != nil {
				names = append(names, sh.Name)
			}
		}
		return names, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &Error{Kind: KindSheetRead, Path: path, Err: err}
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func loadWorkbook(path string, res *Resolution) (*Dataset, error) {
	var rows [][]string
	var err error
	if res.Format == FormatXLS {
		rows, err = xlsRows(path, res.Sheet)
	} else {
		rows, err = xlsxRows(path, res.Sheet)
	}
	if err != nil {
		return nil, err
	}
	return datasetFromSheet(path, rows)
}

func xlsxRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &Error{Kind: KindSheetRead, Path: path, Err: err}
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &Error{Kind: KindSheetRead, Path: path, Err: err}
	}
	return rows, nil
}

func xlsRows(path, sheet string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Kind: KindSheetRead, Path: path, Err: err}
	}
	defer f.Close()
	wb, err := xls.OpenReader(f, "utf-8")
	if err != nil {
		return nil, &Error{Kind: KindSheetRead, Path: path, Err: err}
	}

	for i := 0; i < wb.NumSheets(); i++ {
		sh := wb.GetSheet(i)
		if sh == nil || sh.Name != sheet {
			continue
		}
		rows := make([][]string, 0, int(sh.MaxRow)+1)
		for r := 0; r <= int(sh.MaxRow); r++ {
			row := sh.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells[c] = row.Col(c)
			}
			rows = append(rows, cells)
		}
		return rows, nil
	}
	return nil, &Error{Kind: KindSheetRead, Path: path, Err: fmt.Errorf("no sheet named %q", sheet)}
}

// datasetFromSheet builds a dataset from raw sheet rows. The first row
// is the header; blank header cells get positional names, short rows
// are padded with missing cells, and fully blank trailing rows are
// dropped.
func datasetFromSheet(path string, rows [][]string) (*Dataset, error) {
	for len(rows) > 0 && blankRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	if len(rows) == 0 || width == 0 {
		return nil, &Error{Kind: KindEmptyFile, Path: path, Err: fmt.Errorf("sheet has no content")}
	}

	names := make([]string, width)
	for i := range names {
		var h string
		if i < len(rows[0]) {
			h = CleanCell(rows[0][i])
		}
		if h == "" {
			h = fmt.Sprintf("col%d", i)
		}
		names[i] = h
	}

	data := rows[1:]
	out := make([][]Value, len(data))
	for i, rec := range data {
		row := make([]Value, width)
		for j, cell := range rec {
			row[j] = ParseCell(cell)
		}
		out[i] = row
	}
	ds, err := FromRows(names, out)
	if err != nil {
		return nil, &Error{Kind: KindSheetRead, Path: path, Err: err}
	}
	return ds, nil
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
