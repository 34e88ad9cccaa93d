package router

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

// Request is what inbound handlers receive. Parsing failures come back as
// goerror validation errors so handlers can return them unchanged.
type Request struct {
	*http.Request
}

func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

func (r *Request) GetParamInt64(key string) (int64, error) {
	v, err := strconv.ParseInt(r.GetParam(key), 10, 64)
	if err != nil {
		return 0, goerror.NewInvalidFormat("param must integer value")
	}
	return v, nil
}

// GetQuery returns the trimmed value of key, or "" when absent.
func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// optionalQuery parses key with parse. An absent key yields the zero value.
func optionalQuery[T any](r *Request, key string, parse func(string) (T, error)) (T, error) {
	var zero T
	raw := r.GetQuery(key)
	if raw == "" {
		return zero, nil
	}

	v, err := parse(raw)
	if err != nil {
		return zero, goerror.NewInvalidFormat("Invalid query " + key)
	}
	return v, nil
}

func (r *Request) GetQueryInt32(key string) (int32, error) {
	return optionalQuery(r, key, func(s string) (int32, error) {
		v, err := strconv.ParseInt(s, 10, 32)
		return int32(v), err
	})
}

// GetQueryBool returns nil when key is absent.
func (r *Request) GetQueryBool(key string) (*bool, error) {
	return optionalQuery(r, key, func(s string) (*bool, error) {
		v, err := strconv.ParseBool(s)
		return &v, err
	})
}

// GetQueryDate parses key with layout. Absent keys give the zero time.
func (r *Request) GetQueryDate(key, layout string) (time.Time, error) {
	return optionalQuery(r, key, func(s string) (time.Time, error) {
		return time.Parse(layout, s)
	})
}

// DecodeBody decodes exactly one JSON value into dst. Unknown fields and
// trailing data are rejected.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if dec.Decode(dst) != nil || dec.Decode(new(json.RawMessage)) != io.EOF {
		return goerror.NewInvalidFormat()
	}
	return nil
}

// StreamSingleFile skips multipart parts until the form field name and
// returns it unread. The caller must consume it before reading the request
// again.
func (r *Request) StreamSingleFile(name string) (*multipart.Part, error) {
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt != "multipart/form-data" {
		return nil, goerror.NewInvalidFormat("Invalid request content-type")
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, goerror.NewInvalidFormat()
	}

	for {
		part, err := mr.NextPart()
		switch {
		case errors.Is(err, io.EOF):
			return nil, goerror.NewInvalidFormat("missing form field " + name)
		case err != nil:
			return nil, goerror.NewInvalidFormat()
		case part.FormName() == name:
			return part, nil
		}

		_, errCopy := io.Copy(io.Discard, part)
		if err := errors.Join(errCopy, part.Close()); err != nil {
			return nil, goerror.NewInvalidFormat(err.Error())
		}
	}
}
