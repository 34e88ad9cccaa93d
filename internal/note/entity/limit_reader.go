package entity

import "io"

// LimitReader reads at most max bytes from r. Reading past the limit returns
// ErrAttachmentTooLarge instead of silently truncating like io.LimitReader.
type LimitReader struct {
	r     io.Reader
	max   int64
	read  int64
	buf   [1]byte
	ended bool
}

func NewLimitReader(r io.Reader, max int64) *LimitReader {
	return &LimitReader{r: r, max: max}
}

// Read returns ErrAttachmentTooLarge once a byte beyond max is seen.
func (m *LimitReader) Read(p []byte) (int, error) {
	if m.read >= m.max {
		if m.ended {
			return 0, ErrAttachmentTooLarge
		}

		n, err := m.r.Read(m.buf[:])
		if n > 0 || err == nil {
			m.ended = true
			return 0, ErrAttachmentTooLarge
		}
		return 0, err
	}

	remaining := m.max - m.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err := m.r.Read(p)
	m.read += int64(n)
	return n, err
}

// N is the number of bytes read so far.
func (m *LimitReader) N() int64 {
	return m.read
}
