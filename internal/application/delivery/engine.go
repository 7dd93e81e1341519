package delivery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/notifylight/server/internal/domain"
)

// Payload is the channel-agnostic content of one push message.
type Payload struct {
	Title   string
	Message string
	Data    map[string]string
}

// Channel delivers one payload to one device token and returns the
// downstream message id. Implementations classify permanently failing
// tokens by wrapping the error with Permanent.
type Channel interface {
	Send(ctx context.Context, token string, p Payload) (string, error)
}

// Result is the outcome of delivering one payload to one device.
type Result struct {
	Platform  string
	Token     string
	Success   bool
	Attempts  int
	MessageID string
	LogOnly   bool
	Err       error
}

// ErrorMessage returns the failure text, or "" on success.
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// BatchResult aggregates the per-device results of one dispatch.
type BatchResult struct {
	Total      int
	Successful int
	Failed     int
	Results    []Result
}

const (
	defaultConcurrency = 10
	defaultMaxAttempts = 3
	defaultCallTimeout = 10 * time.Second
)

// Engine dispatches push payloads to APNs and FCM under one retry contract.
// Channels are optional: a device whose platform has no configured channel is
// recorded as a log-only success, so the server stays usable for local
// development without any push credentials.
type Engine struct {
	apns Channel
	fcm  Channel

	concurrency int
	maxAttempts int
	callTimeout time.Duration
	backoff     ExponentialBackoff
	sleep       func(time.Duration)
}

// Option adjusts an Engine at construction time.
type Option func(*Engine)

// WithConcurrency caps how many deliveries SendBatch runs in parallel.
// Values below 1 are clamped to 1.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.concurrency = n
	}
}

// NewEngine builds an Engine over the configured channels. Either or both
// may be nil; with both nil the engine runs in log-only mode.
func NewEngine(apnsCh, fcmCh Channel, opts ...Option) *Engine {
	e := &Engine{
		apns:        apnsCh,
		fcm:         fcmCh,
		concurrency: defaultConcurrency,
		maxAttempts: defaultMaxAttempts,
		callTimeout: defaultCallTimeout,
		backoff:     defaultBackoff,
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enabled reports which channels have complete configuration.
func (e *Engine) Enabled() (apns, fcm bool) {
	return e.apns != nil, e.fcm != nil
}

// LogOnly reports whether no channel is configured at all.
func (e *Engine) LogOnly() bool {
	return e.apns == nil && e.fcm == nil
}

func (e *Engine) channelFor(platform string) Channel {
	switch platform {
	case domain.PlatformIOS:
		return e.apns
	case domain.PlatformAndroid:
		return e.fcm
	default:
		return nil
	}
}

// SendOne delivers the payload to a single device. The device's channel is
// selected by platform; an unconfigured channel yields an immediate log-only
// success with no retry. Otherwise up to maxAttempts attempts are made with
// exponential backoff between them, and a permanent classification
// short-circuits the remaining attempts.
func (e *Engine) SendOne(ctx context.Context, device domain.Device, p Payload, notificationID string) Result {
	res := Result{Platform: device.Platform, Token: device.Token}

	ch := e.channelFor(device.Platform)
	if ch == nil {
		res.Success = true
		res.LogOnly = true
		res.Attempts = 1
		slog.Info("log-only delivery",
			"notification", notificationID, "platform", device.Platform, "token", device.Token)
		return res
	}

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		res.Attempts = attempt

		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		msgID, err := ch.Send(callCtx, device.Token, p)
		cancel()

		if err == nil {
			res.Success = true
			res.MessageID = msgID
			return res
		}
		res.Err = err

		if IsPermanent(err) {
			slog.Warn("permanent delivery failure",
				"notification", notificationID, "platform", device.Platform, "err", err)
			return res
		}
		if attempt < e.maxAttempts {
			e.sleep(e.backoff.NextInterval(attempt))
		}
	}

	slog.Warn("delivery failed after retries",
		"notification", notificationID, "platform", device.Platform,
		"attempts", res.Attempts, "err", res.Err)
	return res
}

// SendBatch delivers the payload to every device with bounded parallelism:
// devices are partitioned into chunks of the concurrency limit and each chunk
// is awaited before the next starts, so at most that many outbound calls are
// ever in flight. One device exhausting its retries never fails the batch or
// blocks its siblings; every device gets a Result.
func (e *Engine) SendBatch(ctx context.Context, devices []domain.Device, p Payload, notificationID string) BatchResult {
	batch := BatchResult{
		Total:   len(devices),
		Results: make([]Result, len(devices)),
	}

	limit := e.concurrency
	if limit < 1 {
		limit = 1
	}

	for start := 0; start < len(devices); start += limit {
		end := start + limit
		if end > len(devices) {
			end = len(devices)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				batch.Results[i] = e.SendOne(ctx, devices[i], p, notificationID)
			}(i)
		}
		wg.Wait()
	}

	for _, r := range batch.Results {
		if r.Success {
			batch.Successful++
		} else {
			batch.Failed++
		}
	}
	return batch
}

// Shutdown releases channel resources for channels that hold any.
func (e *Engine) Shutdown() {
	for _, ch := range []Channel{e.apns, e.fcm} {
		if c, ok := ch.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
