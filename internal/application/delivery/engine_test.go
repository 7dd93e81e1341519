package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/notifylight/server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChannel scripts per-token outcomes and records every call.
type fakeChannel struct {
	mu    sync.Mutex
	calls map[string]int
	// fail maps a token to the error every Send returns for it.
	// Tokens not present succeed.
	fail map[string]error
	// inFlight tracks concurrent Sends for the bounded-parallelism check.
	inFlight    int32
	maxInFlight int32
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{calls: make(map[string]int), fail: make(map[string]error)}
}

func (f *fakeChannel) Send(_ context.Context, token string, _ Payload) (string, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, cur) {
			break
		}
	}

	f.mu.Lock()
	f.calls[token]++
	err := f.fail[token]
	f.mu.Unlock()

	if err != nil {
		return "", err
	}
	return "msg-" + token, nil
}

func (f *fakeChannel) callCount(token string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[token]
}

// testEngine builds an engine with an instant sleep that records waits.
func testEngine(apnsCh, fcmCh Channel, opts ...Option) (*Engine, *[]time.Duration) {
	e := NewEngine(apnsCh, fcmCh, opts...)
	var mu sync.Mutex
	waits := &[]time.Duration{}
	e.sleep = func(d time.Duration) {
		mu.Lock()
		*waits = append(*waits, d)
		mu.Unlock()
	}
	return e, waits
}

func iosDevice(token string) domain.Device {
	return domain.Device{DeviceID: "dev-" + token, Token: token, Platform: domain.PlatformIOS, UserID: "u1"}
}

func TestSendOne_Success_FirstAttempt(t *testing.T) {
	ch := newFakeChannel()
	e, waits := testEngine(ch, nil)

	res := e.SendOne(context.Background(), iosDevice("tok-1"), Payload{Title: "Hi"}, "n1")

	assert.True(t, res.Success)
	assert.False(t, res.LogOnly)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, "msg-tok-1", res.MessageID)
	assert.Empty(t, *waits)
}

func TestSendOne_RetryCeiling_ThreeAttemptsWithIncreasingBackoff(t *testing.T) {
	ch := newFakeChannel()
	ch.fail["tok-1"] = errors.New("connection reset")
	e, waits := testEngine(ch, nil)

	res := e.SendOne(context.Background(), iosDevice("tok-1"), Payload{}, "n1")

	assert.False(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, ch.callCount("tok-1"))

	// Exactly two waits, strictly increasing: 2s then 4s.
	require.Len(t, *waits, 2)
	assert.Equal(t, 2*time.Second, (*waits)[0])
	assert.Equal(t, 4*time.Second, (*waits)[1])
}

func TestSendOne_PermanentFailure_NoRetry(t *testing.T) {
	ch := newFakeChannel()
	ch.fail["tok-bad"] = Permanent(errors.New("apns rejected: BadDeviceToken (status 400)"))
	e, waits := testEngine(ch, nil)

	res := e.SendOne(context.Background(), iosDevice("tok-bad"), Payload{}, "n1")

	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, ch.callCount("tok-bad"))
	assert.Empty(t, *waits)
	assert.Contains(t, res.ErrorMessage(), "BadDeviceToken")
}

func TestSendOne_SucceedsAfterTransientFailure(t *testing.T) {
	ch := newFakeChannel()
	transient := errors.New("503 unavailable")
	ch.fail["tok-1"] = transient
	e, _ := testEngine(ch, nil)
	// Clear the failure after the first attempt by swapping the script
	// inside the sleep hook, which runs between attempts.
	e.sleep = func(time.Duration) {
		ch.mu.Lock()
		delete(ch.fail, "tok-1")
		ch.mu.Unlock()
	}

	res := e.SendOne(context.Background(), iosDevice("tok-1"), Payload{}, "n1")

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Attempts)
}

func TestSendOne_UnconfiguredChannel_LogOnlySuccess(t *testing.T) {
	// FCM configured, APNs not: an iOS device becomes a log-only success
	// with no retries.
	fcmCh := newFakeChannel()
	e, waits := testEngine(nil, fcmCh)

	res := e.SendOne(context.Background(), iosDevice("tok-1"), Payload{}, "n1")

	assert.True(t, res.Success)
	assert.True(t, res.LogOnly)
	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, *waits)
}

func TestEngine_LogOnlyMode(t *testing.T) {
	e := NewEngine(nil, nil)
	assert.True(t, e.LogOnly())
	apns, fcm := e.Enabled()
	assert.False(t, apns)
	assert.False(t, fcm)

	res := e.SendOne(context.Background(), iosDevice("tok-1"), Payload{}, "n1")
	assert.True(t, res.Success)
	assert.True(t, res.LogOnly)
}

func TestSendBatch_IsolatesPermanentFailure(t *testing.T) {
	for _, limit := range []int{1, 2, 10} {
		t.Run(fmt.Sprintf("concurrency=%d", limit), func(t *testing.T) {
			ch := newFakeChannel()
			ch.fail["tok-3"] = Permanent(errors.New("unregistered"))
			e, _ := testEngine(ch, nil, WithConcurrency(limit))

			devices := make([]domain.Device, 7)
			for i := range devices {
				devices[i] = iosDevice(fmt.Sprintf("tok-%d", i))
			}
			batch := e.SendBatch(context.Background(), devices, Payload{}, "n1")

			assert.Equal(t, 7, batch.Total)
			assert.Equal(t, 6, batch.Successful)
			assert.Equal(t, 1, batch.Failed)
			require.Len(t, batch.Results, 7)

			// Results stay aligned with the input order.
			for i, r := range batch.Results {
				assert.Equal(t, devices[i].Token, r.Token)
			}
			assert.False(t, batch.Results[3].Success)
		})
	}
}

func TestSendBatch_BoundedConcurrency(t *testing.T) {
	ch := newFakeChannel()
	e, _ := testEngine(ch, nil, WithConcurrency(3))

	devices := make([]domain.Device, 12)
	for i := range devices {
		devices[i] = iosDevice(fmt.Sprintf("tok-%d", i))
	}
	batch := e.SendBatch(context.Background(), devices, Payload{}, "n1")

	assert.Equal(t, 12, batch.Successful)
	assert.LessOrEqual(t, ch.maxInFlight, int32(3))
}

func TestWithConcurrency_ClampsToOne(t *testing.T) {
	e := NewEngine(nil, nil, WithConcurrency(0))
	assert.Equal(t, 1, e.concurrency)

	e = NewEngine(nil, nil, WithConcurrency(4))
	assert.Equal(t, 4, e.concurrency)
}

func TestSendBatch_Empty(t *testing.T) {
	e, _ := testEngine(newFakeChannel(), nil)
	batch := e.SendBatch(context.Background(), nil, Payload{}, "n1")
	assert.Equal(t, 0, batch.Total)
	assert.Empty(t, batch.Results)
}

func TestPermanent_NilAndClassification(t *testing.T) {
	assert.Nil(t, Permanent(nil))
	assert.False(t, IsPermanent(errors.New("plain")))
	assert.True(t, IsPermanent(Permanent(errors.New("bad token"))))
	// Survives further wrapping.
	wrapped := fmt.Errorf("send: %w", Permanent(errors.New("bad token")))
	assert.True(t, IsPermanent(wrapped))
}
