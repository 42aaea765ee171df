// Package profile computes per-column summaries of loaded datasets:
// descriptive statistics for numeric columns, cardinality for text,
// ranges for dates.
package profile

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/Varen-6/tabular-viewer-test-task/internal/tabular"
)

// Report summarizes a dataset column by column.
type Report struct {
	Rows    int             `json:"rows"`
	Columns []ColumnProfile `json:"columns"`
}

// ColumnProfile describes the content of one column. Kind is the scalar
// kind of the non-missing cells: number, text, or date when uniform,
// mixed otherwise, empty when every cell is missing.
type ColumnProfile struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Count   int    `json:"count"`
	Missing int    `json:"missing"`

	Numeric *NumericSummary `json:"numeric,omitempty"`
	Text    *TextSummary    `json:"text,omitempty"`
	Date    *DateSummary    `json:"date,omitempty"`
}

// NumericSummary carries descriptive statistics over the numeric cells.
type NumericSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// TextSummary describes the text cells.
type TextSummary struct {
	Distinct int `json:"distinct"`
}

// DateSummary bounds the date cells.
type DateSummary struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// Build profiles every column of the dataset.
func Build(ds *tabular.Dataset) (*Report, error) {
	cols := ds.Columns()
	rep := &Report{Rows: ds.RowCount(), Columns: make([]ColumnProfile, 0, len(cols))}
	for _, col := range cols {
		cp, err := profileColumn(col)
		if err != nil {
			return nil, err
		}
		rep.Columns = append(rep.Columns, cp)
	}
	return rep, nil
}

func profileColumn(col tabular.Column) (ColumnProfile, error) {
	cp := ColumnProfile{Name: col.Name}

	var numbers []float64
	var texts []string
	var dates []time.Time
	for _, v := range col.Values {
		switch v.Kind {
		case tabular.ValueNumber:
			numbers = append(numbers, v.Num)
		case tabular.ValueText:
			texts = append(texts, v.Str)
		case tabular.ValueDate:
			dates = append(dates, v.Time)
		default:
			cp.Missing++
		}
	}
	cp.Count = len(numbers) + len(texts) + len(dates)
	cp.Kind = columnKind(len(numbers), len(texts), len(dates))

	if len(numbers) > 0 {
		num, err := summarizeNumbers(numbers)
		if err != nil {
			return ColumnProfile{}, fmt.Errorf("column %s: %w", col.Name, err)
		}
		cp.Numeric = num
	}
	if len(texts) > 0 {
		distinct := make(map[string]struct{}, len(texts))
		for _, s := range texts {
			distinct[s] = struct{}{}
		}
		cp.Text = &TextSummary{Distinct: len(distinct)}
	}
	if len(dates) > 0 {
		lo, hi := dates[0], dates[0]
		for _, d := range dates[1:] {
			if d.Before(lo) {
				lo = d
			}
			if d.After(hi) {
				hi = d
			}
		}
		cp.Date = &DateSummary{
			Min: lo.Format("2006-01-02"),
			Max: hi.Format("2006-01-02"),
		}
	}
	return cp, nil
}

func summarizeNumbers(data []float64) (*NumericSummary, error) {
	mean, err := stats.Mean(data)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return nil, err
	}
	lo, err := stats.Min(data)
	if err != nil {
		return nil, err
	}
	hi, err := stats.Max(data)
	if err != nil {
		return nil, err
	}
	sd, err := stats.StandardDeviation(data)
	if err != nil {
		return nil, err
	}
	return &NumericSummary{Mean: mean, Median: median, Min: lo, Max: hi, StdDev: sd}, nil
}

func columnKind(numbers, texts, dates int) string {
	present := 0
	for _, n := range []int{numbers, texts, dates} {
		if n > 0 {
			present++
		}
	}
	switch {
	case present == 0:
		return "empty"
	case present > 1:
		return "mixed"
	case numbers > 0:
		return "number"
	case texts > 0:
		return "text"
	}
	return "date"
}
