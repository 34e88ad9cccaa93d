// Package router is the HTTP surface shared by every module: httprouter for
// dispatch, a fixed middleware chain, and JSON envelopes for handler results.
package router

import (
	"net/http"
	"slices"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/gofocus/internal/pkg/config"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/jwt"
	"github.com/shandysiswandi/gofocus/internal/pkg/uid"
)

// Handler returns the value to place under "data", or an error for the
// error envelope.
type Handler func(r *Request) (any, error)

type Config struct {
	Config     config.Config
	UUID       uid.StringID // correlation IDs
	JWT        jwt.JWT
	Revocation jwt.Revocation // optional
	Instrument instrument.Instrumentation
}

// route identifies a registered pattern, e.g. {POST, /api/v1/notes/:id}.
type route struct {
	method string
	path   string
}

// publicRoutes skip bearer authentication.
var publicRoutes = map[route]bool{
	{http.MethodGet, "/"}:                                 true,
	{http.MethodGet, "/health"}:                           true,
	{http.MethodGet, "/health/ready"}:                     true,
	{http.MethodGet, "/.well-known/openid-configuration"}: true,
	{http.MethodGet, "/oauth2/jwks"}:                      true,
	{http.MethodPost, "/api/v1/identity/login"}:           true,
	{http.MethodPost, "/api/v1/identity/login/2fa"}:       true,
	{http.MethodPost, "/api/v1/identity/refresh"}:         true,
	{http.MethodPost, "/api/v1/identity/register"}:        true,
	{http.MethodPost, "/oauth2/token"}:                    true,
	{http.MethodPost, "/oauth2/revoke"}:                   true,
}

// bodyMediaTypes lists routes accepting a body other than JSON.
var bodyMediaTypes = map[route]string{
	{http.MethodPost, "/oauth2/token"}:                 "application/x-www-form-urlencoded",
	{http.MethodPost, "/oauth2/revoke"}:                "application/x-www-form-urlencoded",
	{http.MethodPost, "/api/v1/notes/:id/attachments"}: "multipart/form-data",
}

type Router struct {
	hr  *httprouter.Router
	mws []Middleware
}

// NewRouter builds the router with the standard middleware chain, outermost
// first: recover, client IP, correlation ID, observability, maintenance,
// content type, authentication.
func NewRouter(cfg Config) *Router {
	hr := httprouter.New()
	hr.SaveMatchedRoutePath = true
	hr.NotFound = messageHandler("endpoint not found", http.StatusNotFound)
	hr.MethodNotAllowed = messageHandler("method not allowed", http.StatusMethodNotAllowed)
	hr.Handler(http.MethodGet, "/", messageHandler("Welcome to API GoFocus", http.StatusOK))

	return &Router{
		hr: hr,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareIP(cfg.Config),
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareMaintenance(cfg.Config),
			middlewareContentType(bodyMediaTypes),
			middlewareAuthentication(cfg.JWT, cfg.Revocation, publicRoutes),
		},
	}
}

func messageHandler(msg string, code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"message": msg}, code)
	})
}

func (r *Router) GET(path string, h Handler, mws ...Middleware)    { r.handle(http.MethodGet, path, h, mws) }
func (r *Router) POST(path string, h Handler, mws ...Middleware)   { r.handle(http.MethodPost, path, h, mws) }
func (r *Router) PUT(path string, h Handler, mws ...Middleware)    { r.handle(http.MethodPut, path, h, mws) }
func (r *Router) PATCH(path string, h Handler, mws ...Middleware)  { r.handle(http.MethodPatch, path, h, mws) }
func (r *Router) DELETE(path string, h Handler, mws ...Middleware) { r.handle(http.MethodDelete, path, h, mws) }

// GETRaw and POSTRaw register handlers that write their own responses.
func (r *Router) GETRaw(path string, h http.Handler, mws ...Middleware) {
	r.mount(http.MethodGet, path, h, mws)
}

func (r *Router) POSTRaw(path string, h http.Handler, mws ...Middleware) {
	r.mount(http.MethodPost, path, h, mws)
}

func (r *Router) handle(method, path string, h Handler, mws []Middleware) {
	r.mount(method, path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err == nil {
			writeSuccess(w, resp)
			return
		}

		if rec, ok := w.(interface{ SetError(error) }); ok {
			rec.SetError(err)
		}
		writeError(w, err)
	}), mws)
}

func (r *Router) mount(method, path string, h http.Handler, mws []Middleware) {
	r.hr.Handler(method, path, Chain(h, slices.Concat(r.mws, mws)...))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}
