package handlers

import "context"

// HealthRequest is empty; health takes no parameters.
type HealthRequest struct{}

// HealthResponse reports service status.
type HealthResponse struct {
	Status string `json:"status"`
}

// Health is the liveness probe.
func (h *Handler) Health(ctx context.Context, _ HealthRequest) (*HealthResponse, error) {
	return &HealthResponse{Status: "ok"}, nil
}
