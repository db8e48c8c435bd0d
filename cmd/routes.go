package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"homenest/internal/handlers"
)

func (app *application) standardMiddleware(route string) alice.Chain {
	return alice.New(app.logRequest, app.metrics.Route(route), app.recoverPanic, secureHeaders, makeResponseJSON)
}

func (app *application) authMiddleware(route string) alice.Chain {
	return app.standardMiddleware(route).Append(app.authenticate)
}

func (app *application) routes() http.Handler {
	base := app.cfg.Server.BasePath
	mux := pat.New()

	mux.Get("/", app.standardMiddleware("root").ThenFunc(app.healthHandler.Root))
	mux.Get("/healthz", app.standardMiddleware("healthz").ThenFunc(app.healthHandler.Healthz))
	mux.Get("/metrics", alice.New(app.recoverPanic).Then(app.metrics.Handler()))

	// Properties
	mux.Get(base, app.standardMiddleware("list_properties").ThenFunc(app.propertyHandler.GetProperties))
	mux.Get(base+"/featured", app.standardMiddleware("featured").ThenFunc(app.propertyHandler.GetFeatured))
	mux.Get(base+"/user/:email", app.authMiddleware("list_own_properties").ThenFunc(app.propertyHandler.GetPropertiesByUser))

	// Reviews
	mux.Get(base+"/reviews/user/:email", app.authMiddleware("list_own_reviews").ThenFunc(app.reviewHandler.GetReviewsByUser))
	mux.Put(base+"/reviews/:propertyId/:reviewId", app.authMiddleware("update_review").ThenFunc(app.reviewHandler.UpdateReview))
	mux.Del(base+"/reviews/:propertyId/:reviewId", app.authMiddleware("delete_review").ThenFunc(app.reviewHandler.DeleteReview))
	mux.Post(base+"/:id/reviews", app.authMiddleware("add_review").ThenFunc(app.reviewHandler.CreateReview))

	mux.Get(base+"/:id", app.authMiddleware("get_property").ThenFunc(app.propertyHandler.GetPropertyByID))
	mux.Put(base+"/:id", app.authMiddleware("update_property").ThenFunc(app.propertyHandler.UpdateProperty))
	mux.Del(base+"/:id", app.authMiddleware("delete_property").ThenFunc(app.propertyHandler.DeleteProperty))

	// pat treats a trailing slash as a prefix match, so these go last and are pinned.
	mux.Get(base+"/", exactPath(base+"/", app.standardMiddleware("list_properties").ThenFunc(app.propertyHandler.GetProperties)))
	mux.Post(base, app.authMiddleware("create_property").ThenFunc(app.propertyHandler.CreateProperty))
	mux.Post(base+"/", exactPath(base+"/", app.authMiddleware("create_property").ThenFunc(app.propertyHandler.CreateProperty)))

	mux.NotFound = app.standardMiddleware("not_found").ThenFunc(handlers.NotFound)

	return keepPlusInPath(mux)
}

func exactPath(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			handlers.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
