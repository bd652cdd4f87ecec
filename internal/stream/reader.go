// Package stream provides a non-blocking, line-oriented reader over a child
// process's combined output pipe. The supervisor polls it on a fixed cadence
// instead of parking a goroutine in a blocking read, so it stays responsive
// to process exit and cancellation between polls.
package stream

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// Reader accumulates raw bytes from a pipe and yields complete lines as they
// become available. The trailing unterminated fragment is retained between
// polls and flushed as a final line at end of stream.
type Reader struct {
	file  *os.File
	fd    int
	buf   []byte
	chunk [4096]byte
	done  bool
}

// NewReader wraps the read end of a pipe. The descriptor is switched to
// non-blocking mode; a would-block condition during Poll is treated as the
// normal "no data yet" result, never as an error.
func NewReader(f *os.File) (*Reader, error) {
	if f == nil {
		return nil, errors.New("stream: nil file")
	}
	// Fd detaches the descriptor from the runtime poller, which would
	// otherwise simulate blocking reads regardless of O_NONBLOCK.
	fd := int(f.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, &os.PathError{Op: "set nonblock", Path: f.Name(), Err: err}
	}
	return &Reader{file: f, fd: fd}, nil
}

// Poll drains whatever bytes are currently available and returns the complete
// lines among them, possibly none. done reports end of stream; once true,
// subsequent polls return immediately.
func (r *Reader) Poll() (lines []string, done bool, err error) {
	if r.done {
		return nil, true, nil
	}

	for {
		n, rerr := unix.Read(r.fd, r.chunk[:])
		if n > 0 {
			r.buf = append(r.buf, r.chunk[:n]...)
		}
		if rerr != nil {
			if rerr == unix.EINTR {
				continue
			}
			if rerr == unix.EAGAIN || rerr == unix.EWOULDBLOCK {
				break
			}
			r.done = true
			return r.splitComplete(), true, &os.PathError{Op: "read", Path: r.file.Name(), Err: rerr}
		}
		if n == 0 { // EOF
			r.done = true
			lines = r.splitComplete()
			if len(r.buf) > 0 {
				lines = append(lines, trimCR(string(r.buf)))
				r.buf = nil
			}
			return lines, true, nil
		}
	}

	return r.splitComplete(), false, nil
}

// Close releases the underlying pipe.
func (r *Reader) Close() error {
	return r.file.Close()
}

// splitComplete extracts all newline-terminated lines from the buffer,
// leaving the trailing fragment in place.
func (r *Reader) splitComplete() []string {
	var lines []string
	start := 0
	for i := 0; i < len(r.buf); i++ {
		if r.buf[i] == '\n' {
			lines = append(lines, trimCR(string(r.buf[start:i])))
			start = i + 1
		}
	}
	if start > 0 {
		r.buf = append(r.buf[:0], r.buf[start:]...)
	}
	return lines
}

func trimCR(line string) string {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}
