package tabular

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kshedden/datareader"

	"github.com/Varen-6/tabular-viewer-test-task/internal/xpt"
)

func loadSAS7BDAT(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sas, err := datareader.NewSAS7BDATReader(f)
	if err != nil {
		return nil, &Error{Kind: KindStatFileRead, Path: path, Err: err}
	}
	sas.ConvertDates = true
	sas.TrimStrings = true

	series, err := sas.Read(-1)
	if err != nil && err != io.EOF {
		return nil, &Error{Kind: KindStatFileRead, Path: path, Err: err}
	}

	cols := make([]Column, len(series))
	for i, s := range series {
		col, err := columnFromSeries(s)
		if err != nil {
			return nil, &Error{Kind: KindStatFileRead, Path: path, Err: err}
		}
		cols[i] = col
	}
	ds, err := NewDataset(cols)
	if err != nil {
		return nil, &Error{Kind: KindStatFileRead, Path: path, Err: err}
	}
	return ds, nil
}

// columnFromSeries converts one datareader column, honoring its missing
// mask.
func columnFromSeries(s *datareader.Series) (Column, error) {
	miss := s.Missing()
	values := make([]Value, s.Length())
	switch data := s.Data().(type) {
	case []float64:
		for i, f := range data {
			if miss != nil && miss[i] {
				continue
			}
			values[i] = Number(f)
		}
	case []string:
		for i, str := range data {
			if miss != nil && miss[i] {
				continue
			}
			values[i] = Text(str)
		}
	case []time.Time:
		for i, t := range data {
			if miss != nil && miss[i] {
				continue
			}
			values[i] = Date(t)
		}
	default:
		return Column{}, fmt.Errorf("column %s holds unsupported type %T", s.Name, data)
	}
	return Column{Name: s.Name, Values: values}, nil
}

func loadTransport(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r, err := xpt.NewReader(f)
	if err != nil {
		return nil, &Error{Kind: KindStatFileRead, Path: path, Err: err}
	}

	vars := r.File().Variables
	cols := make([]Column, len(vars))
	for i, v := range vars {
		cols[i] = Column{Name: v.Name, Values: make([]Value, 0, r.RowCount())}
	}
	for {
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &Error{Kind: KindStatFileRead, Path: path, Err: err}
		}
		for i, cell := range row {
			switch c := cell.(type) {
			case float64:
				cols[i].Values = append(cols[i].Values, Number(c))
			case string:
				cols[i].Values = append(cols[i].Values, Text(c))
			default:
				cols[i].Values = append(cols[i].Values, Missing())
			}
		}
	}
	ds, err := NewDataset(cols)
	if err != nil {
		return nil, &Error{Kind: KindStatFileRead, Path: path, Err: err}
	}
	return ds, nil
}
