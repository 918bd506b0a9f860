package contracts

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

type PostbackRequest struct {
	TrackingCode string   `json:"trackingCode"`
	EventType    string   `json:"eventType"`
	SaleAmount   *float64 `json:"saleAmount,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	OrderID      string   `json:"orderId,omitempty"`
	Timestamp    int64    `json:"timestamp,omitempty"`
	Signature    string   `json:"signature,omitempty"`
}

type PostbackResponse struct {
	Success      bool   `json:"success"`
	ConversionID string `json:"conversionId"`
	EventType    string `json:"eventType"`
	TrackingCode string `json:"trackingCode"`
	OrderID      string `json:"orderId,omitempty"`
}

type BeaconRequest struct {
	Code    string   `json:"code"`
	Event   string   `json:"event,omitempty"`
	Amount  *float64 `json:"amount,omitempty"`
	OrderID string   `json:"order_id,omitempty"`
}

type BeaconResponse struct {
	Success bool `json:"success"`
}

type ApproveRelationshipRequest struct {
	CreatorID      string `json:"creator_id"`
	OfferID        string `json:"offer_id"`
	CompanyID      string `json:"company_id"`
	DestinationURL string `json:"destination_url"`
}

type ApproveRelationshipResponse struct {
	RelationshipID string `json:"relationship_id"`
	TrackingCode   string `json:"tracking_code"`
	TrackingURL    string `json:"tracking_url"`
	Status         string `json:"status"`
}

type RotateAPIKeyResponse struct {
	CompanyID string `json:"company_id"`
	// APIKey is returned exactly once; only its digest is stored.
	APIKey    string `json:"api_key"`
	RotatedAt string `json:"rotated_at"`
}

type RotateSecretResponse struct {
	CompanyID    string `json:"company_id"`
	SharedSecret string `json:"shared_secret"`
	RotatedAt    string `json:"rotated_at"`
}

type IntegrationSnippetResponse struct {
	CompanyID string `json:"company_id"`
	PixelURL  string `json:"pixel_url"`
	Snippet   string `json:"snippet"`
}

type TestSignatureRequest struct {
	TrackingCode string   `json:"trackingCode"`
	EventType    string   `json:"eventType"`
	SaleAmount   *float64 `json:"saleAmount,omitempty"`
	Timestamp    int64    `json:"timestamp,omitempty"`
}

type TestSignatureResponse struct {
	TrackingCode string `json:"trackingCode"`
	EventType    string `json:"eventType"`
	SaleAmount   string `json:"saleAmount"`
	Timestamp    int64  `json:"timestamp"`
	Payload      string `json:"payload"`
	Signature    string `json:"signature"`
}
