package request

// CreateAPIKey is the body of POST /api-keys.
type CreateAPIKey struct {
	Name     string `json:"name" validate:"required,max=255"`
	TenantID string `json:"tenant_id" validate:"required,max=255"`
	IsAdmin  bool   `json:"is_admin"`
}
