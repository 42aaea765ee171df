// Package sniff infers the dialect of delimited text from a short sample.
//
// The detector mirrors the classic two-stage dialect-sniffing heuristic:
//
//  1. Quote-adjacency analysis. If the sample contains quoted fields, the
//     characters hugging the quotes are tallied and the dominant one becomes
//     the delimiter. Four patterns of decreasing specificity are tried.
//  2. Character-frequency analysis. Failing that, every 7-bit character is
//     scored on how consistently it appears N times per line across 10-line
//     chunks. Candidates above a consistency threshold (walked down from
//     100% to 90%) survive; ties fall back to a preferred list and then to
//     the most frequent candidate.
//
// [Sniffer.HasHeader] judges whether the first row is a header by typing
// each column over the remaining rows (integer, float, complex, or plain
// string length) and letting columns with a stable type vote on whether the
// first row breaks the pattern.
//
// The heuristic is deliberately quirky in places (a file with no quoted
// fields and no consistent separator can still elect an arbitrary character;
// a sample with no data rows votes "header present"). Callers treat these as
// specified behavior, not bugs to fix.
package sniff

import (
	"encoding/csv"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrDetection is returned when no delimiter can be determined from a sample.
var ErrDetection = errors.New("sniff: could not determine delimiter")

// Dialect describes how a delimited sample is structured.
type Dialect struct {
	Delimiter byte
	// Quote is the character the sample quotes fields with. It informs
	// detection only; parsing always uses the standard double-quote rules.
	Quote            byte
	DoubleQuote      bool
	SkipInitialSpace bool
}

// Sniffer detects delimited-text dialects. The zero value is not usable;
// construct with New.
type Sniffer struct {
	// Preferred lists delimiter candidates favored when frequency analysis
	// finds more than one consistent character.
	Preferred []byte
}

// New returns a Sniffer with the conventional preferred-delimiter order.
func New() *Sniffer {
	return &Sniffer{Preferred: []byte{',', '\t', ';', ' ', ':'}}
}

// Sniff determines the dialect of sample. It returns ErrDetection when no
// delimiter can be inferred.
func (s *Sniffer) Sniff(sample string) (Dialect, error) {
	quote, doubled, delim, skipSpace := guessQuoteAndDelimiter(sample)
	if delim == "" {
		delim, skipSpace = s.guessDelimiter(sample)
	}
	if delim == "" {
		return Dialect{}, ErrDetection
	}

	d := Dialect{
		Delimiter:        delim[0],
		Quote:            quote,
		DoubleQuote:      doubled,
		SkipInitialSpace: skipSpace,
	}
	if d.Quote == 0 {
		d.Quote = '"'
	}
	return d, nil
}

// HasHeader reports whether the first row of sample looks like a header.
//
// The sample is parsed with its sniffed dialect, so a sample whose dialect
// cannot be determined returns the sniffing error. Up to 21 data rows are
// examined; rows with a deviating field count are skipped.
func (s *Sniffer) HasHeader(sample string) (bool, error) {
	dialect, err := s.Sniff(sample)
	if err != nil {
		return false, err
	}

	rows := parseSample(sample, dialect)
	if len(rows) == 0 {
		return false, nil
	}

	header := rows[0]
	columns := len(header)

	// One entry per column still under consideration. Columns whose cells
	// disagree about their type drop out and abstain from the vote.
	columnTypes := make(map[int]cellClass, columns)
	for i := 0; i < columns; i++ {
		columnTypes[i] = cellClass{kind: kindUnset}
	}

	checked := 0
	for _, row := range rows[1:] {
		if checked > 20 {
			break
		}
		checked++
		if len(row) != columns {
			continue
		}
		for col, have := range columnTypes {
			this := classifyCell(row[col])
			if this == have {
				continue
			}
			if have.kind == kindUnset {
				columnTypes[col] = this
			} else {
				delete(columnTypes, col)
			}
		}
	}

	// Compare the surviving column types against the first row and vote.
	vote := 0
	for col, class := range columnTypes {
		switch class.kind {
		case kindLength:
			if utf8.RuneCountInString(header[col]) != class.length {
				vote++
			} else {
				vote--
			}
		case kindUnset:
			// No data row ever typed this column; counts toward "header".
			vote++
		default:
			if castsTo(header[col], class.kind) {
				vote--
			} else {
				vote++
			}
		}
	}
	return vote > 0, nil
}

// cellClass is the inferred type of a cell: a numeric kind, or the cell's
// rune length when no numeric parse succeeds.
type cellClass struct {
	kind   int
	length int
}

const (
	kindUnset = iota
	kindInt
	kindFloat
	kindComplex
	kindLength
)

func classifyCell(s string) cellClass {
	t := strings.TrimSpace(s)
	if _, err := strconv.ParseInt(t, 10, 64); err == nil {
		return cellClass{kind: kindInt}
	}
	if _, err := strconv.ParseFloat(t, 64); err == nil {
		return cellClass{kind: kindFloat}
	}
	if _, err := strconv.ParseComplex(normalizeComplex(t), 128); err == nil {
		return cellClass{kind: kindComplex}
	}
	return cellClass{kind: kindLength, length: utf8.RuneCountInString(s)}
}

func castsTo(s string, kind int) bool {
	t := strings.TrimSpace(s)
	switch kind {
	case kindInt:
		_, err := strconv.ParseInt(t, 10, 64)
		return err == nil
	case kindFloat:
		_, err := strconv.ParseFloat(t, 64)
		return err == nil
	case kindComplex:
		_, err := strconv.ParseComplex(normalizeComplex(t), 128)
		return err == nil
	}
	return false
}

// normalizeComplex maps the mathematical "j" imaginary suffix onto Go's "i".
func normalizeComplex(s string) string {
	if strings.HasSuffix(s, "j") || strings.HasSuffix(s, "J") {
		return s[:len(s)-1] + "i"
	}
	return s
}

// parseSample reads the sample as delimited rows using the sniffed dialect.
// Parse errors truncate rather than fail: the rows read so far are returned.
func parseSample(sample string, dialect Dialect) [][]string {
	if !validReaderDelim(dialect.Delimiter) {
		// encoding/csv cannot split on this character; fall back to whole
		// lines so header voting still sees one column.
		var rows [][]string
		for _, ln := range strings.Split(sample, "\n") {
			if ln != "" {
				rows = append(rows, []string{strings.TrimSuffix(ln, "\r")})
			}
		}
		return rows
	}

	r := csv.NewReader(strings.NewReader(sample))
	r.Comma = rune(dialect.Delimiter)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = dialect.SkipInitialSpace

	var rows [][]string
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		rows = append(rows, record)
	}
	return rows
}

func validReaderDelim(b byte) bool {
	return b != 0 && b != '"' && b != '\r' && b != '\n'
}
