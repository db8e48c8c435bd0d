package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homenest/internal/auth"
	"homenest/internal/config"
	"homenest/internal/models"
	"homenest/internal/repositories"
)

type testServer struct {
	t       *testing.T
	app     *application
	handler http.Handler
	tokens  *auth.JWTVerifier
	clock   *clock.Mock
	store   *repositories.MemoryPropertyRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	var cfg config.Config
	cfg.Server.BasePath = "/api/properties"
	cfg.Auth.Provider = config.ProviderJWT
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.VerifyTimeout = time.Second
	cfg.CORS.AllowedOrigins = []string{"http://localhost:5173"}
	cfg.CORS.PreviewSuffixes = []string{".vercel.app", "netlify.app"}

	tokens, err := auth.NewJWTVerifier(cfg.Auth.JWTSecret)
	require.NoError(t, err)

	clk := clock.NewMock()
	clk.Set(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	store := repositories.NewMemoryPropertyRepository()
	app := initializeApp(cfg, store, tokens, clk)

	return &testServer{
		t:       t,
		app:     app,
		handler: newCORS(cfg).Handler(app.routes()),
		tokens:  tokens,
		clock:   clk,
		store:   store,
	}
}

// do sends a request as email; an empty email sends no Authorization header.
func (s *testServer) do(method, path, email string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if email != "" {
		token, err := s.tokens.Issue(models.Identity{UID: "uid-" + email, Email: email}, time.Hour)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createProperty(email, name string, price float64) models.Property {
	s.t.Helper()

	rec := s.do("POST", "/api/properties", email, propertyBody(email, name, price))
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var p models.Property
	decode(s.t, rec, &p)
	return p
}

func propertyBody(email, name string, price float64) map[string]interface{} {
	return map[string]interface{}{
		"name":             name,
		"description":      "Bright and quiet",
		"category":         "Rent",
		"price":            price,
		"location":         "Dhaka",
		"imageUrl":         "https://img.example.com/" + name + ".jpg",
		"userEmail":        email,
		"userName":         "Owner",
		"userProfilePhoto": "https://img.example.com/owner.jpg",
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decode(t, rec, &body)
	return body.Message
}

func TestRoot(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("GET", "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HomeNest API is running!", messageOf(t, rec))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = s.do("GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateOnlyByOwner(t *testing.T) {
	s := newTestServer(t)
	p := s.createProperty("a@x.com", "P1", 1200)
	path := "/api/properties/" + p.ID.Hex()

	rec := s.do("PUT", path, "b@x.com", map[string]interface{}{"price": 900})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden: Can only update your own properties", messageOf(t, rec))

	rec = s.do("PUT", path, "a@x.com", map[string]interface{}{"price": 900})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do("GET", path, "b@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Property
	decode(t, rec, &got)
	assert.Equal(t, 900.0, got.Price)
	assert.Equal(t, "P1", got.Name)
	assert.Equal(t, "a@x.com", got.UserEmail)
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)
	p := s.createProperty("a@x.com", "P1", 1200)

	rec := s.do("GET", "/api/properties/"+p.ID.Hex(), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access denied. No token provided.", messageOf(t, rec))

	req := httptest.NewRequest("GET", "/api/properties/"+p.ID.Hex(), nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token.", messageOf(t, rec))

	rec = s.do("POST", "/api/properties", "", propertyBody("a@x.com", "P2", 10))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Listing stays public.
	rec = s.do("GET", "/api/properties", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("POST", "/api/properties", "b@x.com", propertyBody("a@x.com", "P1", 10))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body := propertyBody("a@x.com", "P1", 10)
	body["category"] = "Castle"
	rec = s.do("POST", "/api/properties", "a@x.com", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var verr struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	}
	decode(t, rec, &verr)
	assert.Equal(t, "category", verr.Field)

	rec = s.do("POST", "/api/properties/", "a@x.com", propertyBody("a@x.com", "P1", 10))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestFeaturedReturnsSixNewest(t *testing.T) {
	s := newTestServer(t)
	for i := 1; i <= 8; i++ {
		s.createProperty("a@x.com", fmt.Sprintf("P%d", i), float64(i*100))
		s.clock.Add(time.Minute)
	}

	rec := s.do("GET", "/api/properties/featured", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.Property
	decode(t, rec, &got)
	require.Len(t, got, 6)
	for i, p := range got {
		assert.Equal(t, fmt.Sprintf("P%d", 8-i), p.Name)
	}
}

func TestListSearchAndSort(t *testing.T) {
	s := newTestServer(t)
	s.createProperty("a@x.com", "Lake House", 300)
	s.clock.Add(time.Minute)
	s.createProperty("a@x.com", "City Flat", 100)
	s.clock.Add(time.Minute)
	s.createProperty("a@x.com", "lakeside cabin", 200)

	rec := s.do("GET", "/api/properties?search=LAKE&sortBy=price&sortOrder=asc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.Property
	decode(t, rec, &got)
	require.Len(t, got, 2)
	assert.Equal(t, "lakeside cabin", got[0].Name)
	assert.Equal(t, "Lake House", got[1].Name)

	rec = s.do("GET", "/api/properties?search=.*", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &got)
	assert.Empty(t, got)

	rec = s.do("GET", "/api/properties?sortBy=price;drop", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListByUser(t *testing.T) {
	s := newTestServer(t)
	s.createProperty("a@x.com", "P1", 100)
	s.createProperty("b@x.com", "P2", 100)

	rec := s.do("GET", "/api/properties/user/a@x.com", "a@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.Property
	decode(t, rec, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "P1", got[0].Name)

	rec = s.do("GET", "/api/properties/user/a@x.com", "b@x.com", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteProperty(t *testing.T) {
	s := newTestServer(t)
	p := s.createProperty("a@x.com", "P1", 100)
	path := "/api/properties/" + p.ID.Hex()

	rec := s.do("DELETE", path, "b@x.com", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do("DELETE", path, "a@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Property deleted", messageOf(t, rec))

	rec = s.do("DELETE", path, "a@x.com", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Property not found", messageOf(t, rec))

	rec = s.do("GET", "/api/properties/not-an-id", "a@x.com", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewLifecycle(t *testing.T) {
	s := newTestServer(t)
	p := s.createProperty("a@x.com", "P1", 100)

	review := map[string]interface{}{
		"reviewerName":  "Bea",
		"reviewerEmail": "b@x.com",
		"rating":        4,
		"reviewText":    "Lovely",
	}
	rec := s.do("POST", "/api/properties/"+p.ID.Hex()+"/reviews", "c@x.com", review)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do("POST", "/api/properties/"+p.ID.Hex()+"/reviews", "b@x.com", review)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var withReview models.Property
	decode(t, rec, &withReview)
	require.Len(t, withReview.Reviews, 1)
	reviewID := withReview.Reviews[0].ID.Hex()

	rec = s.do("GET", "/api/properties/reviews/user/b@x.com", "b@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []models.UserReview
	decode(t, rec, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, reviewID, mine[0].ID)
	assert.Equal(t, "P1", mine[0].PropertyName)
	assert.Equal(t, "Lovely", mine[0].Review)

	reviewPath := "/api/properties/reviews/" + p.ID.Hex() + "/" + reviewID
	rec = s.do("PUT", reviewPath, "a@x.com", map[string]interface{}{"rating": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do("PUT", reviewPath, "b@x.com", map[string]interface{}{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do("PUT", reviewPath, "b@x.com", map[string]interface{}{"rating": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated struct {
		Message string            `json:"message"`
		Review  models.UserReview `json:"review"`
	}
	decode(t, rec, &updated)
	assert.Equal(t, "Review updated successfully", updated.Message)
	assert.Equal(t, 5, updated.Review.Rating)
	assert.Equal(t, "Lovely", updated.Review.Review)

	rec = s.do("DELETE", reviewPath, "b@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Review deleted successfully", messageOf(t, rec))

	rec = s.do("DELETE", reviewPath, "b@x.com", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Review not found", messageOf(t, rec))
}

func TestLegacyReviewID(t *testing.T) {
	s := newTestServer(t)
	date := time.Date(2023, 7, 9, 10, 11, 12, 345000000, time.UTC)
	p := &models.Property{
		Name:      "Old listing",
		UserEmail: "a@x.com",
		Reviews: []models.Review{{
			ReviewerName:  "Bea",
			ReviewerEmail: "b@x.com",
			Rating:        3,
			ReviewText:    "Fine",
			ReviewDate:    date,
		}},
	}
	require.NoError(t, s.store.Insert(context.Background(), p))

	rec := s.do("GET", "/api/properties/reviews/user/b@x.com", "b@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []models.UserReview
	decode(t, rec, &mine)
	require.Len(t, mine, 1)
	legacyID := models.LegacyReviewID(p.ID, "b@x.com", date)
	assert.Equal(t, legacyID, mine[0].ID)

	rec = s.do("PUT", "/api/properties/reviews/"+p.ID.Hex()+"/"+legacyID, "b@x.com", map[string]interface{}{"reviewText": "Better"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do("DELETE", "/api/properties/reviews/"+p.ID.Hex()+"/"+legacyID, "b@x.com", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/nope", "/api/properties/a/b/c"} {
		rec := s.do("GET", path, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		var body struct {
			Message string `json:"message"`
			Path    string `json:"path"`
		}
		decode(t, rec, &body)
		assert.Equal(t, "Route not found", body.Message)
		assert.Equal(t, path, body.Path)
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:5173", true},
		{"https://homenest-pr-12.vercel.app", true},
		{"http://homenest-pr-12.vercel.app", false},
		{"https://vercel.app", false},
		{"https://evil.example.com", false},
		{"https://deploy-7.netlify.app", true},
		{"https://evilnetlify.app", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest("OPTIONS", "/api/properties/123", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", "PUT")
			req.Header.Set("Access-Control-Request-Headers", "Authorization")
			rec := httptest.NewRecorder()
			s.handler.ServeHTTP(rec, req)

			if tt.allowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do("GET", "/api/properties/featured", "", nil)

	rec := s.do("GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `homenest_http_requests_total{method="GET",route="featured"} 1`)
}

func TestPlusAddressedEmail(t *testing.T) {
	s := newTestServer(t)
	p := s.createProperty("a+b@x.com", "P1", 100)

	rec := s.do("GET", "/api/properties/user/a+b@x.com", "a+b@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var listed []models.Property
	decode(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, p.ID, listed[0].ID)

	review := map[string]interface{}{
		"reviewerName":  "Ann",
		"reviewerEmail": "a+b@x.com",
		"rating":        5,
		"reviewText":    "Home",
	}
	rec = s.do("POST", "/api/properties/"+p.ID.Hex()+"/reviews", "a+b@x.com", review)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do("GET", "/api/properties/reviews/user/a+b@x.com", "a+b@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var mine []models.UserReview
	decode(t, rec, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, "a+b@x.com", mine[0].UserEmail)

	// An encoded plus decodes the same way.
	rec = s.do("GET", "/api/properties/user/a%2Bb@x.com", "a+b@x.com", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do("GET", "/api/properties/user/a+b@x.com", "a@x.com", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLegacyReviewIDWithTextDate(t *testing.T) {
	s := newTestServer(t)
	date := time.Date(2025, 10, 13, 10, 0, 0, 0, time.UTC)
	p := &models.Property{
		Name:      "Old listing",
		UserEmail: "a@x.com",
		Reviews: []models.Review{{
			ReviewerName:  "Bea",
			ReviewerEmail: "b+home@x.com",
			Rating:        3,
			ReviewText:    "Fine",
			ReviewDate:    date,
		}},
	}
	require.NoError(t, s.store.Insert(context.Background(), p))

	legacyID := p.ID.Hex() + "_b+home@x.com_Mon Oct 13 2025 10:00:00 GMT+0000 (Coordinated Universal Time)"
	path := "/api/properties/reviews/" + p.ID.Hex() + "/" + url.PathEscape(legacyID)

	rec := s.do("PUT", path, "b+home@x.com", map[string]interface{}{"reviewText": "Better"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated struct {
		Review models.UserReview `json:"review"`
	}
	decode(t, rec, &updated)
	assert.Equal(t, "Better", updated.Review.Review)
	assert.Equal(t, models.LegacyReviewID(p.ID, "b+home@x.com", date), updated.Review.ID)

	rec = s.do("DELETE", path, "b+home@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := s.store.FindByID(context.Background(), p.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, got.Reviews)
}

func TestPanicIsLoggedAndCounted(t *testing.T) {
	s := newTestServer(t)
	hook := logtest.NewGlobal()
	defer hook.Reset()

	h := s.app.standardMiddleware("boom").ThenFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	requestID := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, requestID)

	var panicLogged, requestLogged bool
	for _, e := range hook.AllEntries() {
		if e.Data["requestID"] != requestID {
			continue
		}
		switch {
		case e.Message == "request":
			requestLogged = true
			assert.Equal(t, http.StatusInternalServerError, e.Data["status"])
		case strings.HasPrefix(e.Message, "panic:"):
			panicLogged = true
		}
	}
	assert.True(t, panicLogged, "panic logged with request id")
	assert.True(t, requestLogged, "request line logged")

	rec = s.do("GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `homenest_http_errors_total{code="500",route="boom"} 1`)
}
