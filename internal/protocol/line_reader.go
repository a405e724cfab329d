// internal/protocol/line_reader.go
package protocol

import (
	"bytes"
	"errors"
	"io"
)

// lineReader splits a timed reader into lines. The underlying reader signals a
// timeout by returning zero bytes and a nil error, as go.bug.st/serial does.
type lineReader struct {
	r     io.Reader
	buf   []byte
	chunk []byte
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: r, chunk: make([]byte, 256)}
}

func (lr *lineReader) ReadLine() ([]byte, error) {
	for {
		if i := bytes.IndexByte(lr.buf, '\n'); i >= 0 {
			return lr.take(i + 1), nil
		}

		n, err := lr.r.Read(lr.chunk)
		lr.buf = append(lr.buf, lr.chunk[:n]...)

		switch {
		case err != nil && !errors.Is(err, io.EOF):
			return lr.take(len(lr.buf)), err
		case n == 0 || err != nil:
			if i := bytes.IndexByte(lr.buf, '\n'); i >= 0 {
				return lr.take(i + 1), nil
			}
			return lr.take(len(lr.buf)), nil
		}
	}
}

// take removes and returns a copy of the first n buffered bytes.
func (lr *lineReader) take(n int) []byte {
	if n == 0 {
		return nil
	}
	line := make([]byte, n)
	copy(line, lr.buf[:n])
	lr.buf = lr.buf[n:]
	if len(lr.buf) == 0 {
		lr.buf = nil
	}
	return line
}
