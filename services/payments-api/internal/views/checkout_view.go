package views

// CreateChargeRequest is the body of the create-charge endpoints. All
// providers share one shape.
type CreateChargeRequest struct {
	ServiceID     string `json:"serviceId" binding:"required"`
	CustomerName  string `json:"customerName" binding:"required"`
	CustomerEmail string `json:"customerEmail" binding:"required,email"`
	Notes         string `json:"notes"`
	SuccessURL    string `json:"successUrl" binding:"omitempty,url"`
	CancelURL     string `json:"cancelUrl" binding:"omitempty,url"`
}

// CreateChargeResponse is the canonical success body. Amounts are major units
// for display; the stored order keeps minor units.
type CreateChargeResponse struct {
	Success       bool    `json:"success"`
	OrderID       int64   `json:"orderId"`
	ChargeID      string  `json:"chargeId"`
	CheckoutURL   string  `json:"checkoutUrl"`
	DepositAmount float64 `json:"depositAmount"`
	TotalAmount   float64 `json:"totalAmount"`
	Currency      string  `json:"currency"`
}

// WebhookResponse acknowledges a processed delivery.
type WebhookResponse struct {
	Received bool `json:"received"`
}

// ProviderStatus is the per-provider block of the status endpoint.
type ProviderStatus struct {
	Configured        bool `json:"configured"`
	WebhookConfigured bool `json:"webhookConfigured"`
}

// StatusResponse reports configuration flags for observability. No secrets.
type StatusResponse struct {
	OK        bool                      `json:"ok"`
	Providers map[string]ProviderStatus `json:"providers"`
	Storage   struct {
		Configured bool `json:"configured"`
	} `json:"storage"`
}

// AdminLoginRequest authenticates the operator dashboard.
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLoginResponse carries the bearer token.
type AdminLoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}
