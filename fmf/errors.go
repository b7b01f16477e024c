package fmf

import "fmt"

// CorruptArchiveError is returned when archive container cannot be opened or
// read. It is fatal for the whole parse.
type CorruptArchiveError struct {
	// Detected is the type of the data as sniffed from its signature, empty
	// when nothing could be detected.
	Detected string
	Err      error
}

func (e *CorruptArchiveError) Error() string {
	if len(e.Detected) > 0 {
		return fmt.Sprintf("corrupt archive (looks like %s): %v", e.Detected, e.Err)
	}
	return fmt.Sprintf("corrupt archive: %v", e.Err)
}

func (e *CorruptArchiveError) Unwrap() error {
	return e.Err
}

// MalformedDocumentError describes single archive entry which could not be
// decoded. Entry is skipped, parsing continues.
type MalformedDocumentError struct {
	Entry string
	Err   error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed document %q: %v", e.Entry, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}
