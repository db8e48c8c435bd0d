package main

import (
	"github.com/benbjohnson/clock"

	"homenest/internal/auth"
	"homenest/internal/config"
	"homenest/internal/handlers"
	"homenest/internal/metrics"
	"homenest/internal/services"
)

type application struct {
	cfg             config.Config
	verifier        auth.Verifier
	metrics         *metrics.HTTP
	propertyHandler *handlers.PropertyHandler
	reviewHandler   *handlers.ReviewHandler
	healthHandler   *handlers.HealthHandler
}

func initializeApp(cfg config.Config, store services.PropertyStore, verifier auth.Verifier, clk clock.Clock) *application {
	// Services
	propertyService := services.NewPropertyService(store, clk)
	reviewService := services.NewReviewService(store, clk)

	// Handlers
	propertyHandler := &handlers.PropertyHandler{Service: propertyService}
	reviewHandler := &handlers.ReviewHandler{Service: reviewService}
	healthHandler := &handlers.HealthHandler{Store: propertyService}

	return &application{
		cfg:             cfg,
		verifier:        verifier,
		metrics:         metrics.NewHTTP(),
		propertyHandler: propertyHandler,
		reviewHandler:   reviewHandler,
		healthHandler:   healthHandler,
	}
}
