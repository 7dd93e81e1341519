package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/notifylight/server/internal/application/inbox"
	"github.com/notifylight/server/internal/application/registry"
)

// channelStatus reports which delivery channels hold complete configuration.
type channelStatus interface {
	Enabled() (apns, fcm bool)
	LogOnly() bool
}

// ledgerCounter is the slice of the delivery ledger the stats endpoint needs.
type ledgerCounter interface {
	CountAll(ctx context.Context) (int, error)
}

// HealthHandler handles the health and stats endpoints.
type HealthHandler struct {
	engine   channelStatus
	inbox    inbox.Service
	registry registry.Service
	ledger   ledgerCounter
	started  time.Time
}

func NewHealthHandler(engine channelStatus, inboxSvc inbox.Service, registrySvc registry.Service, ledger ledgerCounter) *HealthHandler {
	return &HealthHandler{
		engine:   engine,
		inbox:    inboxSvc,
		registry: registrySvc,
		ledger:   ledger,
		started:  time.Now(),
	}
}

type healthEnvelope struct {
	Status    string        `json:"status"`
	UptimeSec int64         `json:"uptime_seconds"`
	Channels  channelsBody  `json:"channels"`
	Messages  messageCounts `json:"messages"`
}

type channelsBody struct {
	APNs    bool `json:"apns"`
	FCM     bool `json:"fcm"`
	LogOnly bool `json:"log_only"`
}

type messageCounts struct {
	Active int `json:"active"`
	Read   int `json:"read"`
}

// Health is public: it reports channel configuration and message counts so a
// fresh deployment can be verified without an API key.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	active, read, err := h.inbox.Stats(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	apns, fcm := h.engine.Enabled()
	writeJSON(w, http.StatusOK, healthEnvelope{
		Status:    "ok",
		UptimeSec: int64(time.Since(h.started).Seconds()),
		Channels:  channelsBody{APNs: apns, FCM: fcm, LogOnly: h.engine.LogOnly()},
		Messages:  messageCounts{Active: active, Read: read},
	})
}

type statsEnvelope struct {
	Success      bool          `json:"success"`
	Devices      deviceCounts  `json:"devices"`
	Messages     messageCounts `json:"messages"`
	DeliveryLogs int           `json:"delivery_logs"`
}

type deviceCounts struct {
	Total      int            `json:"total"`
	ByPlatform map[string]int `json:"by_platform"`
}

// Stats is keyed: it exposes registry sizes alongside message and ledger counts.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	total, byPlatform, err := h.registry.Counts(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	active, read, err := h.inbox.Stats(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	logs, err := h.ledger.CountAll(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsEnvelope{
		Success:      true,
		Devices:      deviceCounts{Total: total, ByPlatform: byPlatform},
		Messages:     messageCounts{Active: active, Read: read},
		DeliveryLogs: logs,
	})
}
