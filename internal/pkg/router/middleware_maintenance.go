package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shandysiswandi/gofocus/internal/pkg/config"
)

// maintenanceRules holds exact route patterns plus prefixes written with a
// trailing "*", e.g. "/api/v1/notes*" to freeze the whole note module.
type maintenanceRules struct {
	exact      map[string]struct{}
	prefixes   []string
	retryAfter string
}

func newMaintenanceRules(cfg config.Config) maintenanceRules {
	rules := maintenanceRules{exact: map[string]struct{}{}}
	if cfg == nil {
		return rules
	}

	for _, ep := range cfg.GetArray("app.maintenance.endpoints") {
		ep = strings.TrimSpace(ep)
		switch {
		case ep == "":
		case strings.HasSuffix(ep, "*"):
			rules.prefixes = append(rules.prefixes, strings.TrimSuffix(ep, "*"))
		default:
			rules.exact[ep] = struct{}{}
		}
	}
	if s := cfg.GetInt("app.maintenance.retry_after_seconds"); s > 0 {
		rules.retryAfter = strconv.Itoa(s)
	}

	return rules
}

func (m maintenanceRules) blocks(route string) bool {
	if _, quiet := quietRoutes[route]; quiet {
		return false
	}
	if _, ok := m.exact[route]; ok {
		return true
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(route, p) {
			return true
		}
	}
	return false
}

func middlewareMaintenance(cfg config.Config) Middleware {
	rules := newMaintenanceRules(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rules.blocks(matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}
			if rules.retryAfter != "" {
				w.Header().Set("Retry-After", rules.retryAfter)
			}
			writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
		})
	}
}
