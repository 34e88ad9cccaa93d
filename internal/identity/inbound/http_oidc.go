package inbound

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/shandysiswandi/gofocus/internal/identity/usecase"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/router"
)

const maxFormBytes = 64 << 10

// OIDCEndpoint serves the OAuth2 and OpenID Connect documents. They are
// plain JSON as the protocol defines them, not the API envelope.
type OIDCEndpoint struct {
	uc uc
}

func (h *OIDCEndpoint) Discovery() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := h.uc.Discovery(r.Context())

		w.Header().Set("Cache-Control", "public, max-age=3600")
		router.WriteJSON(w, discoveryResponse{
			Issuer:                            d.Issuer,
			TokenEndpoint:                     d.TokenEndpoint,
			UserinfoEndpoint:                  d.UserinfoEndpoint,
			JWKSURI:                           d.JWKSURI,
			RevocationEndpoint:                d.RevocationEndpoint,
			GrantTypesSupported:               d.GrantTypesSupported,
			ResponseTypesSupported:            d.ResponseTypesSupported,
			SubjectTypesSupported:             d.SubjectTypesSupported,
			IDTokenSigningAlgValuesSupported:  d.IDTokenSigningAlgValuesSupported,
			ScopesSupported:                   d.ScopesSupported,
			ClaimsSupported:                   d.ClaimsSupported,
			TokenEndpointAuthMethodsSupported: d.TokenEndpointAuthMethodsSupported,
		}, http.StatusOK)
	})
}

func (h *OIDCEndpoint) JWKS() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		router.WriteJSON(w, h.uc.JWKS(r.Context()), http.StatusOK)
	})
}

func (h *OIDCEndpoint) Token() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")

		form, ok := parseForm(w, r)
		if !ok {
			return
		}

		clientID, clientSecret, basic := clientCredentials(r, form)

		out, err := h.uc.OAuth2Token(r.Context(), usecase.OAuth2TokenInput{
			GrantType:    form.Get("grant_type"),
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Username:     form.Get("username"),
			Password:     form.Get("password"),
			RefreshToken: form.Get("refresh_token"),
			Scope:        form.Get("scope"),
			Nonce:        form.Get("nonce"),
		})
		if err != nil {
			writeOAuth2Error(w, r, err, basic)
			return
		}

		router.WriteJSON(w, oauth2TokenResponse{
			AccessToken:  out.AccessToken,
			TokenType:    out.TokenType,
			ExpiresIn:    out.ExpiresIn,
			RefreshToken: out.RefreshToken,
			IDToken:      out.IDToken,
			Scope:        out.Scope,
		}, http.StatusOK)
	})
}

func (h *OIDCEndpoint) Revoke() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		form, ok := parseForm(w, r)
		if !ok {
			return
		}

		clientID, clientSecret, basic := clientCredentials(r, form)

		if err := h.uc.OAuth2Revoke(r.Context(), usecase.OAuth2RevokeInput{
			Token:         form.Get("token"),
			TokenTypeHint: form.Get("token_type_hint"),
			ClientID:      clientID,
			ClientSecret:  clientSecret,
		}); err != nil {
			writeOAuth2Error(w, r, err, basic)
			return
		}

		w.WriteHeader(http.StatusOK)
	})
}

func (h *OIDCEndpoint) UserInfo() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out, err := h.uc.UserInfo(r.Context())
		if err != nil {
			var gerr *goerror.Error
			if errors.As(err, &gerr) && gerr.Type() == goerror.TypeBusiness {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				router.WriteJSON(w, oauth2ErrorResponse{Error: "invalid_token", ErrorDescription: gerr.Msg()}, gerr.StatusCode())
				return
			}

			slog.ErrorContext(r.Context(), "failed to load userinfo", "error", err)
			router.WriteJSON(w, oauth2ErrorResponse{Error: usecase.OAuth2ServerError}, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		router.WriteJSON(w, userInfoResponse{
			Subject:           out.Subject,
			Email:             out.Email,
			Name:              out.Name,
			PreferredUsername: out.PreferredUsername,
		}, http.StatusOK)
	})
}

func parseForm(w http.ResponseWriter, r *http.Request) (url.Values, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		router.WriteJSON(w, oauth2ErrorResponse{
			Error:            usecase.OAuth2InvalidRequest,
			ErrorDescription: "request body is not a valid form",
		}, http.StatusBadRequest)
		return nil, false
	}

	return r.PostForm, true
}

// clientCredentials reads client_secret_basic first and falls back to
// client_secret_post. Basic credentials are form-encoded (RFC 6749 2.3.1).
func clientCredentials(r *http.Request, form url.Values) (id, secret string, basic bool) {
	if u, p, ok := r.BasicAuth(); ok {
		uid, errID := url.QueryUnescape(u)
		pwd, errPwd := url.QueryUnescape(p)
		if errID == nil && errPwd == nil {
			return uid, pwd, true
		}
		return u, p, true
	}

	return form.Get("client_id"), form.Get("client_secret"), false
}

func writeOAuth2Error(w http.ResponseWriter, r *http.Request, err error, basic bool) {
	var oerr *usecase.OAuth2Error
	if !errors.As(err, &oerr) {
		slog.ErrorContext(r.Context(), "oauth2 request failed", "error", err)
		router.WriteJSON(w, oauth2ErrorResponse{
			Error:            usecase.OAuth2ServerError,
			ErrorDescription: "internal server error",
		}, http.StatusInternalServerError)
		return
	}

	if oerr.Code == usecase.OAuth2InvalidClient && basic {
		w.Header().Set("WWW-Authenticate", `Basic realm="oauth2"`)
	}

	router.WriteJSON(w, oauth2ErrorResponse{
		Error:            oerr.Code,
		ErrorDescription: oerr.Description,
	}, oerr.StatusCode())
}
