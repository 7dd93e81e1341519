package handler

import (
	"encoding/json"
	"net/http"

	"github.com/notifylight/server/internal/application/registry"
	"github.com/notifylight/server/internal/domain"
)

// DeviceHandler handles device registration.
type DeviceHandler struct {
	svc registry.Service
}

func NewDeviceHandler(svc registry.Service) *DeviceHandler { return &DeviceHandler{svc: svc} }

func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, DeviceEnvelope{
		Success: true,
		Device: DeviceBody{
			ID:       d.DeviceID,
			Platform: d.Platform,
			UserID:   d.UserID,
		},
	})
}
