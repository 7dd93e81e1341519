package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/notifylight/server/internal/application/notify"
	"github.com/notifylight/server/internal/domain"
)

// NotifyHandler handles notification dispatch.
type NotifyHandler struct {
	svc notify.Service
}

func NewNotifyHandler(svc notify.Service) *NotifyHandler { return &NotifyHandler{svc: svc} }

func (h *NotifyHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var req domain.NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := h.svc.Dispatch(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NotifyEnvelope{
		Success:        true,
		NotificationID: out.NotificationID,
		Type:           out.Type,
		Results: ResultsBody{
			Total:        out.Total,
			Successful:   out.Successful,
			Failed:       out.Failed,
			DeliveryRate: out.DeliveryRate,
			Errors:       out.Errors,
		},
	})
}

// Status reports the ledger-derived counts for a past push dispatch.
func (h *NotifyHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusEnvelope{
		Success:        true,
		NotificationID: st.NotificationID,
		Sent:           st.Sent,
		Failed:         st.Failed,
		DeliveryRate:   st.DeliveryRate,
	})
}
