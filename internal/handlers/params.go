package handlers

import "net/http"

// getParam returns a route parameter. pat stores them in the query string with a
// leading colon; the plain name and PathValue cover other muxes.
func getParam(r *http.Request, name string) string {
	if r == nil {
		return ""
	}
	q := r.URL.Query()
	if val := q.Get(":" + name); val != "" {
		return val
	}
	if val := r.PathValue(name); val != "" {
		return val
	}
	return q.Get(name)
}
