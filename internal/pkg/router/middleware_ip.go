package router

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/shandysiswandi/gofocus/internal/pkg/config"
)

// trustedProxies decides whether forwarding headers are believed. The rate
// limiter keys on the resolved address, so a spoofed X-Forwarded-For from an
// untrusted peer must not change it.
type trustedProxies []netip.Prefix

func parseTrustedProxies(cfg config.Config) trustedProxies {
	if cfg == nil {
		return nil
	}

	var out trustedProxies
	for _, raw := range cfg.GetArray("app.server.trusted_proxies") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			if addr, err := netip.ParseAddr(raw); err == nil {
				out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
				continue
			}
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy", "value", raw, "error", err)
			continue
		}
		out = append(out, prefix.Masked())
	}
	return out
}

func (tp trustedProxies) trusts(addr netip.Addr) bool {
	for _, p := range tp {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func peerAddr(r *http.Request) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// clientAddr walks X-Forwarded-For from the right while hops are trusted
// proxies. X-Real-IP is only consulted when X-Forwarded-For is absent.
func (tp trustedProxies) clientAddr(r *http.Request) (netip.Addr, bool) {
	peer, ok := peerAddr(r)
	if !ok || !tp.trusts(peer) {
		return peer, ok
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				return peer, true
			}
			hop = hop.Unmap()
			if !tp.trusts(hop) || i == 0 {
				return hop, true
			}
		}
	}

	if xrip, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xrip.Unmap(), true
	}
	return peer, true
}

func middlewareIP(cfg config.Config) Middleware {
	proxies := parseTrustedProxies(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if addr, ok := proxies.clientAddr(r); ok {
				r.RemoteAddr = addr.String()
			}
			next.ServeHTTP(w, r)
		})
	}
}
