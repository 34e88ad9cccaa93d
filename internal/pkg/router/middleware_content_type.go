package router

import (
	"mime"
	"net/http"
)

// middlewareContentType rejects bodies that are neither JSON nor the media
// type listed for the route.
func middlewareContentType(allowed map[route]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength == 0 && len(r.TransferEncoding) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err == nil {
				if mediaType == "application/json" {
					next.ServeHTTP(w, r)
					return
				}
				if allowed[route{r.Method, matchedRoutePath(r)}] == mediaType {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeJSON(w, errorResponse{Message: "unsupported content type"}, http.StatusUnsupportedMediaType)
		})
	}
}
