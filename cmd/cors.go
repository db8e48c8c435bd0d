package main

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/cors"

	"homenest/internal/config"
)

func newCORS(cfg config.Config) *cors.Cors {
	origins := make(map[string]bool, len(cfg.CORS.AllowedOrigins))
	for _, o := range cfg.CORS.AllowedOrigins {
		origins[strings.TrimSuffix(o, "/")] = true
	}
	var suffixes []string
	for _, s := range cfg.CORS.PreviewSuffixes {
		if s = strings.TrimPrefix(s, "."); s != "" {
			suffixes = append(suffixes, "."+s)
		}
	}

	return cors.New(cors.Options{
		// AllowedOrigins is ignored once AllowOriginFunc is set.
		AllowOriginFunc: func(origin string) bool {
			return origins[origin] || previewOrigin(origin, suffixes)
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
}

// previewOrigin accepts https origins on a subdomain of one of the trusted suffixes.
// Each suffix starts with a dot, so matches end on a label boundary.
func previewOrigin(origin string, suffixes []string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	for _, suffix := range suffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}
