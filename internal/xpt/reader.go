package xpt

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const recordLen = 80

const (
	libraryHeader    = "HEADER RECORD*******LIBRARY HEADER RECORD!!!!!!!"
	libv8Header      = "HEADER RECORD*******LIBV8"
	memberHeader     = "HEADER RECORD*******MEMBER "
	descriptorHeader = "HEADER RECORD*******DSCRPTR HEADER RECORD!!!!!!!"
	namestrHeader    = "HEADER RECORD*******NAMESTR HEADER RECORD!!!!!!!"
	obsHeader        = "HEADER RECORD*******OBS     HEADER RECORD!!!!!!!"
)

// Reader parses a transport file and iterates its observations.
type Reader struct {
	file    *File
	offsets []int // observation offset per variable
	obs     []byte
	obsLen  int
	nobs    int
	row     int
}

// NewReader reads all headers and observation data from src. The
// returned Reader serves metadata through File and rows through Next.
func NewReader(src io.Reader) (*Reader, error) {
	br := bufio.NewReader(src)
	r := &Reader{file: &File{}}
	if err := r.readHeaders(br); err != nil {
		return nil, err
	}
	if err := r.readObservations(br); err != nil {
		return nil, err
	}
	return r, nil
}

// File returns the parsed header metadata.
func (r *Reader) File() *File { return r.file }

// RowCount returns the number of observations in the file.
func (r *Reader) RowCount() int { return r.nobs }

// Next returns the next observation in file column order. Numeric cells
// are float64, character cells string, and missing numerics nil. After
// the last observation Next returns io.EOF.
func (r *Reader) Next() ([]any, error) {
	if r.row >= r.nobs {
		return nil, io.EOF
	}
	rec := r.obs[r.row*r.obsLen : (r.row+1)*r.obsLen]
	r.row++

	row := make([]any, len(r.file.Variables))
	for i, v := range r.file.Variables {
		raw := rec[r.offsets[i] : r.offsets[i]+v.Length]
		switch {
		case v.Type == Character:
			row[i] = strings.TrimRight(string(raw), " \x00")
		case isNumericMissing(raw):
			row[i] = nil
		default:
			row[i] = ibmToFloat64(raw)
		}
	}
	return row, nil
}

func (r *Reader) readHeaders(br *bufio.Reader) error {
	rec, err := readRecord(br)
	if err != nil {
		return fmt.Errorf("library header: %w", err)
	}
	if strings.HasPrefix(rec, libv8Header) {
		return ErrVersion
	}
	if !strings.HasPrefix(rec, libraryHeader) {
		return ErrFormat
	}

	// First real header record: SAS symbols, release, OS, created stamp.
	if rec, err = readRecord(br); err != nil {
		return fmt.Errorf("library header: %w", err)
	}
	r.file.Version = strings.TrimSpace(rec[24:32])
	r.file.OS = strings.TrimSpace(rec[32:40])
	r.file.Created = parseDatetime(rec[64:80])

	if rec, err = readRecord(br); err != nil {
		return fmt.Errorf("library header: %w", err)
	}
	r.file.Modified = parseDatetime(rec[0:16])

	if rec, err = readRecord(br); err != nil {
		return fmt.Errorf("member header: %w", err)
	}
	if !strings.HasPrefix(rec, memberHeader) {
		return fmt.Errorf("%w: member header missing", ErrFormat)
	}
	namestrLen, err := strconv.Atoi(strings.TrimSpace(rec[75:80]))
	if err != nil || (namestrLen != 140 && namestrLen != 136) {
		return fmt.Errorf("%w: namestr length %q", ErrFormat, strings.TrimSpace(rec[75:80]))
	}

	if rec, err = readRecord(br); err != nil {
		return fmt.Errorf("member header: %w", err)
	}
	if !strings.HasPrefix(rec, descriptorHeader) {
		return fmt.Errorf("%w: descriptor header missing", ErrFormat)
	}

	// Two member data records: dataset name, then label and type.
	if rec, err = readRecord(br); err != nil {
		return fmt.Errorf("member header: %w", err)
	}
	r.file.Dataset = strings.TrimSpace(rec[8:16])

	if rec, err = readRecord(br); err != nil {
		return fmt.Errorf("member header: %w", err)
	}
	r.file.Label = strings.TrimSpace(rec[32:72])
	r.file.Type = strings.TrimSpace(rec[72:80])

	if rec, err = readRecord(br); err != nil {
		return fmt.Errorf("namestr header: %w", err)
	}
	if !strings.HasPrefix(rec, namestrHeader) {
		return fmt.Errorf("%w: namestr header missing", ErrFormat)
	}
	nvar, err := strconv.Atoi(strings.TrimSpace(rec[54:58]))
	if err != nil || nvar < 0 {
		return fmt.Errorf("%w: variable count %q", ErrFormat, strings.TrimSpace(rec[54:58]))
	}

	// NAMESTR entries, padded out to a record boundary.
	block := nvar * namestrLen
	if pad := block % recordLen; pad != 0 {
		block += recordLen - pad
	}
	buf := make([]byte, block)
	if _, err := io.ReadFull(br, buf); err != nil {
		return fmt.Errorf("namestr block: %w", err)
	}
	for i := 0; i < nvar; i++ {
		v, pos, err := parseNamestr(buf[i*namestrLen : (i+1)*namestrLen])
		if err != nil {
			return err
		}
		r.file.Variables = append(r.file.Variables, v)
		r.offsets = append(r.offsets, pos)
		if end := pos + v.Length; end > r.obsLen {
			r.obsLen = end
		}
	}

	if rec, err = readRecord(br); err != nil {
		return fmt.Errorf("observation header: %w", err)
	}
	if !strings.HasPrefix(rec, obsHeader) {
		return fmt.Errorf("%w: observation header missing", ErrFormat)
	}
	return nil
}

func (r *Reader) readObservations(br *bufio.Reader) error {
	data, err := io.ReadAll(br)
	if err != nil {
		return fmt.Errorf("observations: %w", err)
	}
	if r.obsLen == 0 {
		return nil
	}
	n := len(data) / r.obsLen
	// Trailing all-blank rows are record padding, not data.
	for n > 0 && allBlank(data[(n-1)*r.obsLen:n*r.obsLen]) {
		n--
	}
	r.obs = data[:n*r.obsLen]
	r.nobs = n
	return nil
}

func parseNamestr(b []byte) (Variable, int, error) {
	typ := VarType(binary.BigEndian.Uint16(b[0:2]))
	length := int(binary.BigEndian.Uint16(b[4:6]))
	pos := int(binary.BigEndian.Uint32(b[84:88]))
	switch {
	case typ != Numeric && typ != Character:
		return Variable{}, 0, fmt.Errorf("%w: variable type %d", ErrFormat, typ)
	case typ == Numeric && (length < 2 || length > 8):
		return Variable{}, 0, fmt.Errorf("%w: numeric length %d", ErrFormat, length)
	case typ == Character && (length < 1 || length > 200):
		return Variable{}, 0, fmt.Errorf("%w: character length %d", ErrFormat, length)
	}
	v := Variable{
		Name:     strings.TrimSpace(string(b[8:16])),
		Label:    strings.TrimSpace(string(b[16:56])),
		Type:     typ,
		Length:   length,
		Format:   strings.TrimSpace(string(b[56:64])),
		Informat: strings.TrimSpace(string(b[72:80])),
	}
	return v, pos, nil
}

func readRecord(br *bufio.Reader) (string, error) {
	var b [recordLen]byte
	if _, err := io.ReadFull(br, b[:]); err != nil {
		return "", err
	}
	return string(b[:]), nil
}

// parseDatetime reads the ddMMMyy:hh:mm:ss stamps found in transport
// headers. SAS writes the month uppercase, which time.Parse refuses.
func parseDatetime(s string) time.Time {
	s = strings.TrimSpace(s)
	if len(s) != 16 {
		return time.Time{}
	}
	norm := s[:2] + strings.ToUpper(s[2:3]) + strings.ToLower(s[3:5]) + s[5:]
	t, err := time.Parse("02Jan06:15:04:05", norm)
	if err != nil {
		return time.Time{}
	}
	return t
}

func allBlank(b []byte) bool {
	for _, x := range b {
		if x != ' ' {
			return false
		}
	}
	return true
}
