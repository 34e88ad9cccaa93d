package router

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"
)

var errHijackUnsupported = errors.New("router: response writer does not support hijacking")

// recorder captures the status, size and the first maxLoggedBodyBytes of
// a response. The router reports handler errors to it through SetError.
type recorder struct {
	http.ResponseWriter
	status    int
	written   int
	body      bytes.Buffer
	truncated bool
	err       error
}

func (rec *recorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(p []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}

	if room := maxLoggedBodyBytes - rec.body.Len(); room < len(p) {
		rec.body.Write(p[:max(room, 0)])
		rec.truncated = true
	} else {
		rec.body.Write(p)
	}

	n, err := rec.ResponseWriter.Write(p)
	rec.written += n
	return n, err
}

func (rec *recorder) SetError(err error) { rec.err = err }

func (rec *recorder) Status() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

func (rec *recorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rec *recorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rec.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errHijackUnsupported
}

// peekBody reads up to maxLoggedBodyBytes of the request body and restores
// it so the handler still sees the full stream.
func peekBody(r *http.Request) ([]byte, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false
	}

	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}

	if len(head) > maxLoggedBodyBytes {
		return head[:maxLoggedBodyBytes], true
	}
	return head, false
}
