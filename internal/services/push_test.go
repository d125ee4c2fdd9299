package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"rxtrack-backend/internal/models"
	"rxtrack-backend/internal/repository"

	"github.com/sideshow/apns2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPNsPusherNotify(t *testing.T) {
	ctx := context.Background()
	devices := repository.NewDeviceRepository()
	require.NoError(t, devices.UpdatePushToken(ctx, "u1", "good"))
	require.NoError(t, devices.UpdatePushToken(ctx, "u1", "dead"))
	require.NoError(t, devices.UpdatePushToken(ctx, "u1", "flaky"))

	var pushed []*apns2.Notification
	pusher := &APNsPusher{
		topic:   "com.example.rxtrack",
		devices: devices,
		push: func(ctx context.Context, n *apns2.Notification) (*apns2.Response, error) {
			pushed = append(pushed, n)
			switch n.DeviceToken {
			case "dead":
				return &apns2.Response{StatusCode: http.StatusGone, Reason: apns2.ReasonUnregistered}, nil
			case "flaky":
				return nil, errors.New("stream reset")
			}
			return &apns2.Response{StatusCode: http.StatusOK}, nil
		},
	}

	link := "/prescriptions/rx-1"
	err := pusher.Notify(ctx, models.Notification{
		ID:      "n1",
		UserID:  "u1",
		Message: "Your prescription has been uploaded successfully.",
		Kind:    models.KindSuccess,
		Link:    &link,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream reset")

	require.Len(t, pushed, 3)
	assert.Equal(t, "com.example.rxtrack", pushed[0].Topic)
	assert.Equal(t, []string{"good", "flaky"}, devices.GetPushTokens(ctx, "u1"))

	body := pushedPayload(t, pushed[0])
	aps := body["aps"].(map[string]interface{})
	alert := aps["alert"].(map[string]interface{})
	assert.Equal(t, "Your prescription has been uploaded successfully.", alert["body"])
	assert.Equal(t, "default", aps["sound"])
	assert.Equal(t, "/prescriptions/rx-1", body["link"])
	assert.Equal(t, "n1", body["notification_id"])
	assert.Equal(t, "success", body["type"])
}

func TestAPNsPusherOmitsMissingLink(t *testing.T) {
	ctx := context.Background()
	devices := repository.NewDeviceRepository()
	require.NoError(t, devices.UpdatePushToken(ctx, "u1", "good"))

	var pushed []*apns2.Notification
	pusher := &APNsPusher{
		devices: devices,
		push: func(ctx context.Context, n *apns2.Notification) (*apns2.Response, error) {
			pushed = append(pushed, n)
			return &apns2.Response{StatusCode: http.StatusOK}, nil
		},
	}

	require.NoError(t, pusher.Notify(ctx, models.Notification{
		ID:      "n2",
		UserID:  "u1",
		Message: "Welcome",
		Kind:    models.KindInfo,
	}))
	require.Len(t, pushed, 1)

	body := pushedPayload(t, pushed[0])
	assert.NotContains(t, body, "link")
	assert.Equal(t, "n2", body["notification_id"])
}

func pushedPayload(t *testing.T, n *apns2.Notification) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(n.Payload)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestAPNsPusherNoDevices(t *testing.T) {
	pusher := &APNsPusher{
		devices: repository.NewDeviceRepository(),
		push: func(ctx context.Context, n *apns2.Notification) (*apns2.Response, error) {
			t.Fatal("push must not be called")
			return nil, nil
		},
	}
	assert.NoError(t, pusher.Notify(context.Background(), models.Notification{UserID: "u1"}))
}

func TestMultiSinkCallsEverySink(t *testing.T) {
	failing := &recordingSink{err: errors.New("down")}
	ok := &recordingSink{}

	err := MultiSink{failing, nil, ok}.Notify(context.Background(), models.Notification{ID: "n1"})
	require.Error(t, err)
	assert.Len(t, failing.sent, 1)
	assert.Len(t, ok.sent, 1)

	assert.NoError(t, MultiSink{}.Notify(context.Background(), models.Notification{}))
}

type blockingSink struct {
	release chan struct{}
	recordingSink
}

func (b *blockingSink) Notify(ctx context.Context, n models.Notification) error {
	<-b.release
	return b.recordingSink.Notify(ctx, n)
}

func TestAsyncSinkDoesNotBlockCaller(t *testing.T) {
	slow := &blockingSink{release: make(chan struct{}), recordingSink: recordingSink{err: errors.New("apns down")}}
	async := NewAsyncSink(slow)

	done := make(chan error, 1)
	go func() {
		done <- async.Notify(context.Background(), models.Notification{ID: "n1", UserID: "u1"})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Notify waited for the wrapped sink")
	}

	close(slow.release)
	async.Wait()

	slow.mu.Lock()
	defer slow.mu.Unlock()
	require.Len(t, slow.sent, 1)
	assert.Equal(t, "n1", slow.sent[0].ID)
}

func TestAsyncSinkOutlivesCanceledContext(t *testing.T) {
	sink := &recordingSink{}
	async := NewAsyncSink(ctxCheckingSink{t: t, next: sink})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, async.Notify(ctx, models.Notification{ID: "n1"}))
	async.Wait()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Len(t, sink.sent, 1)
}

type ctxCheckingSink struct {
	t    *testing.T
	next NotificationSink
}

func (c ctxCheckingSink) Notify(ctx context.Context, n models.Notification) error {
	assert.NoError(c.t, ctx.Err())
	return c.next.Notify(ctx, n)
}
