package router

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/shandysiswandi/gofocus/internal/pkg/config"
)

const (
	maxLoggedBodyBytes = 32 * 1024
	redacted           = "***"
)

// alwaysRedacted covers credentials that travel through the auth and OAuth2
// endpoints regardless of instrument.log_mask_fields.
var alwaysRedacted = []string{
	"authorization",
	"cookie",
	"set-cookie",
	"password",
	"access_token",
	"refresh_token",
	"id_token",
	"client_secret",
	"challenge_token",
}

type redactor struct {
	keys map[string]struct{}
}

func newRedactor(cfg config.Config) redactor {
	keys := make(map[string]struct{}, len(alwaysRedacted))
	for _, k := range alwaysRedacted {
		keys[k] = struct{}{}
	}
	if cfg != nil {
		for _, k := range cfg.GetArray("instrument.log_mask_fields") {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keys[k] = struct{}{}
			}
		}
	}

	return redactor{keys: keys}
}

func (rd redactor) hides(key string) bool {
	_, ok := rd.keys[strings.ToLower(key)]
	return ok
}

func (rd redactor) header(h http.Header) http.Header {
	out := h.Clone()
	for k := range out {
		if rd.hides(k) {
			out.Set(k, redacted)
		}
	}
	return out
}

func (rd redactor) value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if rd.hides(k) {
				out[k] = redacted
				continue
			}
			out[k] = rd.value(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = rd.value(inner)
		}
		return out
	default:
		return v
	}
}

func (rd redactor) form(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		switch {
		case rd.hides(k):
			out[k] = redacted
		case len(v) == 1:
			out[k] = v[0]
		default:
			out[k] = v
		}
	}
	return out
}

// body renders a captured payload for logging. Multipart uploads are never
// rendered since they carry note attachments.
func (rd redactor) body(contentType string, body []byte, truncated bool) any {
	if len(body) == 0 {
		return nil
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	var out any
	switch {
	case mediaType == "multipart/form-data":
		return map[string]any{"omitted": "multipart", "bytes": len(body)}
	case mediaType == "application/x-www-form-urlencoded":
		if values, err := url.ParseQuery(string(body)); err == nil {
			out = rd.form(values)
		}
	default:
		var decoded any
		if err := json.Unmarshal(body, &decoded); err == nil {
			out = rd.value(decoded)
		}
	}

	if out == nil {
		if !utf8.Valid(body) {
			return "<binary body omitted>"
		}
		out = string(body)
	}

	if truncated {
		return map[string]any{"body": out, "truncated": true}
	}
	return out
}
