package stream

import (
	"bufio"
	"io"
	"strings"
)

// FrameScanner incrementally reads `data:`-framed events from a
// response body. It buffers partial lines across reads, splits frames
// on blank-line boundaries, and ignores any line that does not carry a
// data field, so vendor keep-alive comments and unknown fields pass
// through harmlessly.
type FrameScanner struct {
	reader  *bufio.Reader
	current string
	err     error
}

// NewFrameScanner creates a scanner over an event stream body.
func NewFrameScanner(r io.Reader) *FrameScanner {
	return &FrameScanner{
		reader: bufio.NewReaderSize(r, 32*1024),
	}
}

// Next advances to the next data-bearing frame. Returns false at end
// of stream or on a read error; call Err to distinguish.
func (s *FrameScanner) Next() bool {
	s.current = ""

	var dataLines []string
	hasData := false

	for {
		line, err := s.reader.ReadString('\n')

		if err != nil && line == "" {
			if err == io.EOF && hasData {
				// Final frame without a trailing blank line.
				s.current = strings.Join(dataLines, "\n")
				s.err = err
				return true
			}
			s.err = err
			return false
		}

		line = strings.TrimRight(line, "\r\n")

		// Blank line marks a frame boundary.
		if line == "" {
			if hasData {
				s.current = strings.Join(dataLines, "\n")
				return true
			}
			continue
		}

		value, ok := strings.CutPrefix(line, "data:")
		if !ok {
			// Not a data line. Ignored, per the wire contract.
			continue
		}
		dataLines = append(dataLines, strings.TrimPrefix(value, " "))
		hasData = true
	}
}

// Data returns the payload of the most recent frame. Only valid after
// Next returned true.
func (s *FrameScanner) Data() string {
	return s.current
}

// Err returns the read error that stopped scanning. A clean end of
// stream reports nil.
func (s *FrameScanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
