package routes

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// frontendHandler forwards page navigations that passed the access gate to the
// storefront frontend. Without a configured frontend, pages are 404.
func frontendHandler(frontendURL string, logg *logger.Logger) http.Handler {
	target, err := url.Parse(strings.TrimSpace(frontendURL))
	if err != nil || target.Scheme == "" || target.Host == "" {
		if err != nil && logg != nil {
			logg.Warn(logg.WithField(context.Background(), "frontend_url", frontendURL), "frontend.proxy_disabled")
		}
		return http.NotFoundHandler()
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if logg != nil {
				logg.Error(r.Context(), "frontend.proxy_failed", err)
			}
			w.WriteHeader(http.StatusBadGateway)
		},
	}
	return proxy
}
