package dataset

import "errors"

var (
	// ErrUndecodable means no configured encoding produced a parseable CSV.
	ErrUndecodable = errors.New("could not decode file with any configured encoding")
	// ErrEmpty means the input held no header row.
	ErrEmpty = errors.New("dataset is empty")
	// ErrUnknownColumn means a requested column is not in the table's column set.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrUnsupported means the file extension has no loader.
	ErrUnsupported = errors.New("unsupported dataset format")
)
