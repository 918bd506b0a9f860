package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	cacheadapter "github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/adapters/cache"
	eventadapter "github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/adapters/events"
	grpcadapter "github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/adapters/grpc"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/contracts"
)

func newTestRouter(ready func() bool) (http.Handler, *application.Service) {
	repos := memory.NewRepositories()
	svc := application.NewService(application.Dependencies{
		Relationships:   repos.Relationships,
		Clicks:          repos.Clicks,
		Conversions:     repos.Conversions,
		Credentials:     repos.Credentials,
		Outbox:          repos.Outbox,
		Velocity:        cacheadapter.NewMemoryVelocityStore(),
		Offers:          grpcadapter.NewOfferClient("stub"),
		Settings:        grpcadapter.NewSettingsClient("stub"),
		Companies:       grpcadapter.NewCompanyClient("stub"),
		Payments:        grpcadapter.NewPaymentClient("stub"),
		CreatorProfiles: grpcadapter.NewCreatorProfileClient("stub"),
		DomainEvents:    eventadapter.NewMemoryPublisher(),
		Analytics:       eventadapter.NewMemoryPublisher(),
		DLQ:             eventadapter.NewMemoryDLQPublisher(),
	})
	return NewRouter(svc, ready), svc
}

func approveViaAPI(t *testing.T, router http.Handler) contracts.ApproveRelationshipResponse {
	t.Helper()
	body, _ := json.Marshal(contracts.ApproveRelationshipRequest{
		CreatorID:      "crea_1",
		OfferID:        "off_1",
		CompanyID:      "comp_1",
		DestinationURL: "https://shop.example.com/landing",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/relationships/approve", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer comp_1")
	req.Header.Set("X-Actor-Role", "company")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("approve status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out contracts.ApproveRelationshipResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode approve response: %v", err)
	}
	return out
}

func TestApproveRelationshipEndpoint(t *testing.T) {
	router, _ := newTestRouter(nil)
	out := approveViaAPI(t, router)
	if out.TrackingCode == "" {
		t.Fatal("response missing tracking code")
	}
	if out.TrackingURL != "/go/"+out.TrackingCode {
		t.Fatalf("tracking url = %q", out.TrackingURL)
	}
	if out.Status != "approved" {
		t.Fatalf("status = %q, want approved", out.Status)
	}
}

func TestApproveRelationshipRequiresBearer(t *testing.T) {
	router, _ := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/relationships/approve", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRedirectIssuesFound(t *testing.T) {
	router, _ := newTestRouter(nil)
	rel := approveViaAPI(t, router)

	req := httptest.NewRequest(http.MethodGet, "/go/"+rel.TrackingCode+"?utm_source=instagram", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Referer", "https://instagram.com/post/1")
	req.RemoteAddr = "203.0.113.7:51423"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://shop.example.com/landing" {
		t.Fatalf("location = %q", loc)
	}
}

func TestRedirectUnknownCodeNotFound(t *testing.T) {
	router, _ := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/go/NOPE2345", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestPixelAlwaysServesGIF(t *testing.T) {
	router, _ := newTestRouter(nil)
	rel := approveViaAPI(t, router)

	for _, path := range []string{
		"/tracking/pixel/" + rel.TrackingCode + "?event=sale&amount=25.00&order_id=ord-1",
		"/tracking/pixel/NOPE2345", // unknown code must not change the response
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want 200", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/gif" {
			t.Fatalf("%s: content type = %q", path, ct)
		}
		if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
			t.Fatalf("%s: cache control = %q", path, cc)
		}
		if !bytes.Equal(rec.Body.Bytes(), transparentGIF) {
			t.Fatalf("%s: body is not the transparent pixel (%d bytes)", path, rec.Body.Len())
		}
	}
}

func TestBeaconAlwaysAccepted(t *testing.T) {
	router, _ := newTestRouter(nil)
	for _, body := range []string{`{"code":"NOPE2345","event":"sale"}`, `not-json`} {
		req := httptest.NewRequest(http.MethodPost, "/tracking/beacon", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("body %q: status = %d, want 202", body, rec.Code)
		}
		var out contracts.BeaconResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || !out.Success {
			t.Fatalf("body %q: response %s", body, rec.Body.String())
		}
	}
}

func TestPostbackEndpoint(t *testing.T) {
	router, svc := newTestRouter(nil)
	rel := approveViaAPI(t, router)

	// Missing key fails closed.
	amount := 100.0
	body, _ := json.Marshal(contracts.PostbackRequest{TrackingCode: rel.TrackingCode, EventType: "sale", SaleAmount: &amount})
	req := httptest.NewRequest(http.MethodPost, "/tracking/postback", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	key, _, err := svc.RotateAPIKey(req.Context(), application.Actor{SubjectID: "comp_1", Role: "company"}, "comp_1")
	if err != nil {
		t.Fatalf("RotateAPIKey err: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/tracking/postback", bytes.NewReader(body))
	req.Header.Set("X-API-Key", key)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out contracts.PostbackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode postback response: %v", err)
	}
	if !out.Success || !strings.HasPrefix(out.ConversionID, "conv_") {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestPostbackRejectsMalformedJSON(t *testing.T) {
	router, _ := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodPost, "/tracking/postback", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestReadyzReflectsReadiness(t *testing.T) {
	router, _ := newTestRouter(func() bool { return false })
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	router, _ = newTestRouter(func() bool { return true })
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestFeeCacheInvalidateRequiresAdmin(t *testing.T) {
	router, _ := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/fee-cache/invalidate", strings.NewReader(`{"company_id":"comp_1"}`))
	req.Header.Set("Authorization", "Bearer comp_1")
	req.Header.Set("X-Actor-Role", "company")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/fee-cache/invalidate", strings.NewReader(`{"company_id":"comp_1"}`))
	req.Header.Set("Authorization", "Bearer admin_1")
	req.Header.Set("X-Actor-Role", "admin")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	router, _ := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("request id = %q, want echoed", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("generated request id missing from response")
	}
}
