package notification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/email"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestDispatcher_RunsSubmittedJobs(t *testing.T) {
	d := NewDispatcher(8, testLogger())

	var ran int32
	d.Submit(Job{Name: "first", Run: func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}})
	d.Submit(Job{Name: "second", Run: func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}})

	d.Close()
	assert.Equal(t, int32(2), atomic.LoadInt32(&ran))
}

func TestDispatcher_SubmitNeverBlocks(t *testing.T) {
	d := NewDispatcher(1, testLogger())
	release := make(chan struct{})

	// Occupy the worker so the queue backs up.
	d.Submit(Job{Name: "blocker", Run: func(ctx context.Context) error {
		<-release
		return nil
	}})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			d.Submit(Job{Name: "flood", Run: func(ctx context.Context) error { return nil }})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full queue")
	}

	close(release)
	d.Close()
}

func TestDispatcher_JobFailureDoesNotStopWorker(t *testing.T) {
	d := NewDispatcher(8, testLogger())

	var ran int32
	d.Submit(Job{Name: "failing", Run: func(ctx context.Context) error {
		return errors.New("smtp down")
	}})
	d.Submit(Job{Name: "after-failure", Run: func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}})

	d.Close()
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestDispatcher_CloseIsIdempotent(t *testing.T) {
	d := NewDispatcher(1, testLogger())
	d.Close()
	assert.NotPanics(t, func() { d.Close() })
}

func TestDispatcher_SubmitAfterCloseDropsJob(t *testing.T) {
	d := NewDispatcher(8, testLogger())
	d.Close()

	assert.NotPanics(t, func() {
		d.Submit(Job{Name: "late", Run: func(ctx context.Context) error { return nil }})
	})
}

func TestDispatcher_SubmitRacingCloseDoesNotPanic(t *testing.T) {
	d := NewDispatcher(4, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				d.Submit(Job{Name: "racer", Run: func(ctx context.Context) error { return nil }})
			}
		}()
	}

	d.Close()
	assert.NotPanics(t, wg.Wait)
}

// recordingMailer captures sent emails for assertions.
type recordingMailer struct {
	mu            sync.Mutex
	cancellations []string
	adminAlerts   []string
	confirmations []string
	statusUpdates []string
}

func (m *recordingMailer) SendOrderConfirmation(to string, data email.OrderConfirmationData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, to)
	return nil
}

func (m *recordingMailer) SendOrderCancellation(to string, data email.OrderCancellationData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancellations = append(m.cancellations, to)
	return nil
}

func (m *recordingMailer) SendAdminCancellationAlert(to string, data email.OrderCancellationData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adminAlerts = append(m.adminAlerts, to)
	return nil
}

func (m *recordingMailer) SendOrderStatusUpdate(to string, data email.OrderStatusUpdateData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusUpdates = append(m.statusUpdates, to)
	return nil
}

func notifierFixture(t *testing.T) (*EmailNotifier, *recordingMailer, *Dispatcher) {
	t.Helper()
	d := NewDispatcher(8, testLogger())
	mailer := &recordingMailer{}
	cfg := &config.Config{}
	cfg.App.AdminEmail = "ops@example.com"
	return NewEmailNotifier(d, mailer, cfg), mailer, d
}

func cancelledOrder() *order.Order {
	return &order.Order{
		ID:          42,
		OrderNumber: "ORD-20260830-00042",
		Status:      order.OrderStatusCancelled,
		ShippingAddress: order.ShippingAddress{
			FullName: "Priya Sharma",
			Email:    "priya@example.com",
		},
	}
}

func TestEmailNotifier_CancellationGoesToCustomerAndAdmin(t *testing.T) {
	notifier, mailer, d := notifierFixture(t)

	notice := &order.CancellationNotice{
		Order:  cancelledOrder(),
		Reason: "changed my mind",
		Refund: &order.RefundRecord{Amount: 15000, Status: "succeeded"},
	}

	require.NoError(t, notifier.NotifyCustomerCancelled(context.Background(), notice))
	require.NoError(t, notifier.NotifyAdminCancelled(context.Background(), notice))
	d.Close()

	assert.Equal(t, []string{"priya@example.com"}, mailer.cancellations)
	assert.Equal(t, []string{"ops@example.com"}, mailer.adminAlerts)
}

func TestEmailNotifier_ReturnsBeforeDelivery(t *testing.T) {
	d := NewDispatcher(8, testLogger())
	defer d.Close()

	slow := &slowMailer{block: make(chan struct{})}
	cfg := &config.Config{}
	cfg.App.AdminEmail = "ops@example.com"
	notifier := NewEmailNotifier(d, slow, cfg)

	done := make(chan struct{})
	go func() {
		notifier.NotifyCustomerCancelled(context.Background(), &order.CancellationNotice{Order: cancelledOrder()})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("notifier blocked on delivery")
	}
	close(slow.block)
}

type slowMailer struct {
	block chan struct{}
}

func (m *slowMailer) SendOrderConfirmation(string, email.OrderConfirmationData) error { return nil }
func (m *slowMailer) SendOrderCancellation(string, email.OrderCancellationData) error {
	<-m.block
	return nil
}
func (m *slowMailer) SendAdminCancellationAlert(string, email.OrderCancellationData) error {
	return nil
}
func (m *slowMailer) SendOrderStatusUpdate(string, email.OrderStatusUpdateData) error { return nil }
