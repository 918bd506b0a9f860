package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/contracts"
)

type Handler struct{ service *application.Service }

func NewHandler(service *application.Service) *Handler { return &Handler{service: service} }

// transparentGIF is a 1x1 fully transparent GIF89a. The pixel endpoint always
// serves it, success or not, so tracking failures never render in a browser.
var transparentGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.service.HandleClick(r.Context(), application.HandleClickInput{
		TrackingCode: chi.URLParam(r, "trackingCode"),
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
		RemoteAddr:   r.RemoteAddr,
		UserAgent:    r.UserAgent(),
		Referrer:     r.Header.Get("Referer"),
		UTMSource:    q.Get("utm_source"),
		UTMMedium:    q.Get("utm_medium"),
		UTMCampaign:  q.Get("utm_campaign"),
		UTMTerm:      q.Get("utm_term"),
		UTMContent:   q.Get("utm_content"),
	})
	if err != nil {
		// No safe destination exists for an unknown code; nothing is redirected.
		writeDomainError(w, err)
		return
	}
	http.Redirect(w, r, out.RedirectURL, http.StatusFound)
}

func (h *Handler) postback(w http.ResponseWriter, r *http.Request) {
	var req contracts.PostbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body")
		return
	}
	ack, err := h.service.RecordPostbackConversion(r.Context(), application.PostbackInput{
		APIKey:          r.Header.Get("X-API-Key"),
		TrackingCode:    req.TrackingCode,
		EventType:       req.EventType,
		SaleAmount:      req.SaleAmount,
		Currency:        req.Currency,
		OrderID:         req.OrderID,
		TimestampMillis: req.Timestamp,
		Signature:       req.Signature,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contracts.PostbackResponse{
		Success:      true,
		ConversionID: ack.ConversionID,
		EventType:    ack.EventType,
		TrackingCode: ack.TrackingCode,
		OrderID:      ack.OrderID,
	})
}

func (h *Handler) pixel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	_, err := h.service.RecordPixelConversion(r.Context(), application.PixelInput{
		TrackingCode: chi.URLParam(r, "trackingCode"),
		EventType:    q.Get("event"),
		SaleAmount:   parseOptionalAmount(q.Get("amount")),
		OrderID:      q.Get("order_id"),
	})
	if err != nil {
		slog.Default().WarnContext(r.Context(), "pixel conversion not recorded",
			"module", "http.pixel",
			"operation", "record_conversion",
			"outcome", "failure",
			"error", err,
		)
	}
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(transparentGIF)
}

func (h *Handler) beacon(w http.ResponseWriter, r *http.Request) {
	var req contracts.BeaconRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	_, err := h.service.RecordSnippetConversion(r.Context(), application.PixelInput{
		TrackingCode: req.Code,
		EventType:    req.Event,
		SaleAmount:   req.Amount,
		OrderID:      req.OrderID,
	})
	if err != nil {
		slog.Default().WarnContext(r.Context(), "beacon conversion not recorded",
			"module", "http.beacon",
			"operation", "record_conversion",
			"outcome", "failure",
			"error", err,
		)
	}
	// Same contract as the pixel: the browser never sees a failure.
	writeJSON(w, http.StatusAccepted, contracts.BeaconResponse{Success: true})
}

func (h *Handler) approveRelationship(w http.ResponseWriter, r *http.Request) {
	var req contracts.ApproveRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body")
		return
	}
	row, err := h.service.ApproveRelationship(r.Context(), actorFromContext(r.Context()), application.ApproveRelationshipInput{
		CreatorID:      req.CreatorID,
		OfferID:        req.OfferID,
		CompanyID:      req.CompanyID,
		DestinationURL: req.DestinationURL,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contracts.ApproveRelationshipResponse{
		RelationshipID: row.RelationshipID,
		TrackingCode:   row.TrackingCode,
		TrackingURL:    "/go/" + row.TrackingCode,
		Status:         row.Status,
	})
}

func (h *Handler) rotateAPIKey(w http.ResponseWriter, r *http.Request) {
	companyID := companyIDFromRequest(r)
	key, cred, err := h.service.RotateAPIKey(r.Context(), actorFromContext(r.Context()), companyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contracts.RotateAPIKeyResponse{
		CompanyID: cred.CompanyID,
		APIKey:    key,
		RotatedAt: cred.RotatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) rotateSecret(w http.ResponseWriter, r *http.Request) {
	companyID := companyIDFromRequest(r)
	secret, cred, err := h.service.RotateSharedSecret(r.Context(), actorFromContext(r.Context()), companyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contracts.RotateSecretResponse{
		CompanyID:    cred.CompanyID,
		SharedSecret: secret,
		RotatedAt:    cred.RotatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) integrationSnippet(w http.ResponseWriter, r *http.Request) {
	companyID := strings.TrimSpace(r.URL.Query().Get("company_id"))
	pixelURL, snippet, err := h.service.IntegrationSnippet(actorFromContext(r.Context()), companyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contracts.IntegrationSnippetResponse{
		CompanyID: companyID,
		PixelURL:  pixelURL,
		Snippet:   snippet,
	})
}

func (h *Handler) testSignature(w http.ResponseWriter, r *http.Request) {
	var req contracts.TestSignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body")
		return
	}
	actor := actorFromContext(r.Context())
	companyID := companyIDFromRequest(r)
	out, err := h.service.GenerateTestSignature(r.Context(), actor, application.TestSignatureInput{
		CompanyID:       companyID,
		TrackingCode:    req.TrackingCode,
		EventType:       req.EventType,
		SaleAmount:      req.SaleAmount,
		TimestampMillis: req.Timestamp,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contracts.TestSignatureResponse{
		TrackingCode: strings.TrimSpace(req.TrackingCode),
		EventType:    strings.ToLower(strings.TrimSpace(req.EventType)),
		SaleAmount:   out.SaleAmount,
		Timestamp:    out.TimestampMillis,
		Payload:      out.Payload,
		Signature:    out.Signature,
	})
}

func (h *Handler) invalidateFeeCache(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	if strings.ToLower(actor.Role) != "admin" {
		writeError(w, http.StatusForbidden, "forbidden", "admin role required")
		return
	}
	var req struct {
		CompanyID string `json:"company_id,omitempty"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	h.service.InvalidateFeeCache(strings.TrimSpace(req.CompanyID))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// companyIDFromRequest prefers an explicit company_id query param and falls
// back to the acting subject, which is the company itself for company-role
// callers.
func companyIDFromRequest(r *http.Request) string {
	if v := strings.TrimSpace(r.URL.Query().Get("company_id")); v != "" {
		return v
	}
	actor := actorFromContext(r.Context())
	if strings.ToLower(actor.Role) == "company" {
		return actor.SubjectID
	}
	return ""
}

func parseOptionalAmount(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
