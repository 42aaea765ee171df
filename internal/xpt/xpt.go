// Package xpt reads the SAS transport (XPORT) file format, versions 5
// and 6.
//
// A transport file is a stream of fixed 80-byte records. A library
// header introduces the file, a member header introduces the single
// dataset, a block of NAMESTR entries describes the variables, and an
// OBS header precedes the observations. Observations are packed back to
// back with no record alignment; the final record is padded with ASCII
// blanks. Numeric values are stored as truncated IBM System/360
// hexadecimal floating point, character values as space-padded ASCII.
//
// Versions 8 and 9 of the transport format (LIBV8 sentinel) use longer
// names and labels and are not supported; opening one returns
// ErrVersion.
package xpt

import (
	"errors"
	"time"
)

var (
	// ErrFormat is returned when the input does not start with a
	// transport library header.
	ErrFormat = errors.New("xpt: not a transport file")

	// ErrVersion is returned for version 8/9 transport files.
	ErrVersion = errors.New("xpt: unsupported transport version")
)

// VarType is the storage type of a transport variable.
type VarType int

const (
	Numeric   VarType = 1
	Character VarType = 2
)

func (t VarType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Character:
		return "character"
	}
	return "unknown"
}

// Variable describes one column of the transported dataset.
type Variable struct {
	Name     string
	Label    string
	Type     VarType
	Length   int // bytes occupied in each observation
	Format   string
	Informat string
}

// File carries the header metadata of a transport file.
type File struct {
	Dataset   string // member name
	Label     string
	Type      string
	Version   string // SAS release that wrote the file
	OS        string
	Created   time.Time
	Modified  time.Time
	Variables []Variable
}
