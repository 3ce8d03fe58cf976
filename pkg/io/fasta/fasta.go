// Package fasta implements the FASTA reader collaborator: a pull-based
// reader that yields description, read, and end-of-stream records without
// materializing the whole file in memory. Multi-line sequences are
// reassembled across buffered reads before being handed to the caller.
package fasta

import (
	"bufio"
	"io"
	"strings"

	"github.com/sbp-tools/sbp/pkg/errors"
)

// RecordKind identifies what a Record carries.
type RecordKind int

const (
	// Description is a ">"-prefixed header line, returned verbatim without
	// the leading marker.
	Description RecordKind = iota
	// Read is one assembled sequence: all non-header lines between two
	// headers (or between a header and end of file), concatenated.
	Read
	// End marks a clean end of stream. No further records follow.
	End
)

// Record is one item yielded by Reader.Next.
type Record struct {
	Kind RecordKind
	Data []byte
}

// Reader pulls records from a FASTA byte stream one at a time.
type Reader struct {
	scanner *bufio.Scanner
	pending strings.Builder
	haveSeq bool

	// queuedHeader holds a header line already consumed from the scanner
	// while flushing a preceding read, to be emitted as a Description on
	// the following call to Next.
	queuedHeader string
	haveQueued   bool

	done bool
}

// NewReader wraps r as a FASTA record stream. The scanner's internal
// buffer is grown to accommodate arbitrarily long single lines, since a
// read may span more bytes than bufio's default token size.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return &Reader{scanner: scanner}
}

// Next returns the next record. Once it returns a Record{Kind: End}, every
// subsequent call also returns End. A non-nil error means an I/O failure
// reading the underlying stream; the core treats it as io-error and aborts
// the stage.
func (r *Reader) Next() (Record, error) {
	if r.haveQueued {
		r.haveQueued = false
		return Record{Kind: Description, Data: []byte(r.queuedHeader)}, nil
	}
	if r.done {
		return Record{Kind: End}, nil
	}

	for r.scanner.Scan() {
		line := strings.TrimRight(r.scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			header := line[1:]
			if r.haveSeq {
				r.queuedHeader = header
				r.haveQueued = true
				return Record{Kind: Read, Data: []byte(r.flush())}, nil
			}
			return Record{Kind: Description, Data: []byte(header)}, nil
		}
		r.haveSeq = true
		r.pending.WriteString(line)
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, errors.Wrap(errors.CodeIOError, err, "reading FASTA stream")
	}

	if r.haveSeq {
		return Record{Kind: Read, Data: []byte(r.flush())}, nil
	}

	r.done = true
	return Record{Kind: End}, nil
}

func (r *Reader) flush() string {
	s := r.pending.String()
	r.pending.Reset()
	r.haveSeq = false
	return s
}
