package order

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetOrder(ctx context.Context, orderID uint) (*Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockStore) SaveRefund(ctx context.Context, record *RefundRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockStore) SetCancelled(ctx context.Context, orderID uint, paymentStatus PaymentStatus, comment string, cancelledBy uint) error {
	args := m.Called(ctx, orderID, paymentStatus, comment, cancelledBy)
	return args.Error(0)
}

type MockRefunder struct {
	mock.Mock
}

func (m *MockRefunder) Refund(ctx context.Context, ord *Order, amount int64) (*RefundOutcome, error) {
	args := m.Called(ctx, ord, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RefundOutcome), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyCustomerCancelled(ctx context.Context, notice *CancellationNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func (m *MockNotifier) NotifyAdminCancelled(ctx context.Context, notice *CancellationNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func ownedOrder(status OrderStatus, paymentStatus PaymentStatus) *Order {
	userID := uint(7)
	return &Order{
		ID:            42,
		OrderNumber:   "ORD-20260830-00042",
		UserID:        &userID,
		Status:        status,
		PaymentStatus: paymentStatus,
		TotalAmount:   15000,
	}
}

func TestReconcilerCancel_UnpaidOrderSkipsRefund(t *testing.T) {
	store := new(MockStore)
	refunder := new(MockRefunder)
	notifier := new(MockNotifier)

	ord := ownedOrder(OrderStatusPending, PaymentStatusUnpaid)
	store.On("GetOrder", mock.Anything, uint(42)).Return(ord, nil)
	store.On("SetCancelled", mock.Anything, uint(42), PaymentStatusUnpaid, "changed my mind", uint(7)).Return(nil)
	notifier.On("NotifyCustomerCancelled", mock.Anything, mock.Anything).Return(nil)
	notifier.On("NotifyAdminCancelled", mock.Anything, mock.Anything).Return(nil)

	r := NewReconciler(store, refunder, notifier, DefaultCancellationPolicy(), quietLogger())
	receipt, err := r.Cancel(context.Background(), 42, "changed my mind", Requester{UserID: 7})

	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, receipt.Status)
	assert.Equal(t, PaymentStatusUnpaid, receipt.PaymentStatus)
	assert.Nil(t, receipt.Refund)

	refunder.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "SaveRefund", mock.Anything, mock.Anything)
	notifier.AssertNumberOfCalls(t, "NotifyCustomerCancelled", 1)
	notifier.AssertNumberOfCalls(t, "NotifyAdminCancelled", 1)
}

func TestReconcilerCancel_PaidOrderGetsFullRefund(t *testing.T) {
	store := new(MockStore)
	refunder := new(MockRefunder)
	notifier := new(MockNotifier)

	ord := ownedOrder(OrderStatusProcessing, PaymentStatusPaid)
	store.On("GetOrder", mock.Anything, uint(42)).Return(ord, nil)
	refunder.On("Refund", mock.Anything, ord, int64(15000)).
		Return(&RefundOutcome{RefundID: "rf_123", Status: "succeeded", Succeeded: true}, nil)
	store.On("SaveRefund", mock.Anything, mock.MatchedBy(func(rec *RefundRecord) bool {
		return rec.OrderID == 42 && rec.Amount == 15000 && rec.RefundID == "rf_123"
	})).Return(nil)
	store.On("SetCancelled", mock.Anything, uint(42), PaymentStatusRefunded, "defective", uint(7)).Return(nil)
	notifier.On("NotifyCustomerCancelled", mock.Anything, mock.Anything).Return(nil)
	notifier.On("NotifyAdminCancelled", mock.Anything, mock.Anything).Return(nil)

	r := NewReconciler(store, refunder, notifier, DefaultCancellationPolicy(), quietLogger())
	receipt, err := r.Cancel(context.Background(), 42, "defective", Requester{UserID: 7})

	require.NoError(t, err)
	assert.Equal(t, PaymentStatusRefunded, receipt.PaymentStatus)
	require.NotNil(t, receipt.Refund)
	assert.Equal(t, "rf_123", receipt.Refund.RefundID)
	assert.Equal(t, int64(15000), receipt.Refund.Amount)

	store.AssertExpectations(t)
	refunder.AssertExpectations(t)
}

func TestReconcilerCancel_RefundErrorStillCancels(t *testing.T) {
	store := new(MockStore)
	refunder := new(MockRefunder)
	notifier := new(MockNotifier)

	ord := ownedOrder(OrderStatusProcessing, PaymentStatusPaid)
	store.On("GetOrder", mock.Anything, uint(42)).Return(ord, nil)
	refunder.On("Refund", mock.Anything, ord, int64(15000)).
		Return(nil, errors.New("gateway unreachable"))
	store.On("SaveRefund", mock.Anything, mock.MatchedBy(func(rec *RefundRecord) bool {
		return rec.Status == "pending" && rec.RefundID == ""
	})).Return(nil)
	store.On("SetCancelled", mock.Anything, uint(42), PaymentStatusRefundPending, "late delivery", uint(7)).Return(nil)
	notifier.On("NotifyCustomerCancelled", mock.Anything, mock.Anything).Return(nil)
	notifier.On("NotifyAdminCancelled", mock.Anything, mock.Anything).Return(nil)

	r := NewReconciler(store, refunder, notifier, DefaultCancellationPolicy(), quietLogger())
	receipt, err := r.Cancel(context.Background(), 42, "late delivery", Requester{UserID: 7})

	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, receipt.Status)
	assert.Equal(t, PaymentStatusRefundPending, receipt.PaymentStatus)

	store.AssertExpectations(t)
}

func TestReconcilerCancel_RejectedRefundIsRecorded(t *testing.T) {
	store := new(MockStore)
	refunder := new(MockRefunder)
	notifier := new(MockNotifier)

	ord := ownedOrder(OrderStatusProcessing, PaymentStatusPaid)
	store.On("GetOrder", mock.Anything, uint(42)).Return(ord, nil)
	refunder.On("Refund", mock.Anything, ord, int64(15000)).
		Return(&RefundOutcome{RefundID: "rf_456", Status: "rejected", Succeeded: false}, nil)
	store.On("SaveRefund", mock.Anything, mock.MatchedBy(func(rec *RefundRecord) bool {
		return rec.Status == "rejected" && rec.RefundID == "rf_456"
	})).Return(nil)
	store.On("SetCancelled", mock.Anything, uint(42), PaymentStatusRefundPending, "no reason", uint(7)).Return(nil)
	notifier.On("NotifyCustomerCancelled", mock.Anything, mock.Anything).Return(nil)
	notifier.On("NotifyAdminCancelled", mock.Anything, mock.Anything).Return(nil)

	r := NewReconciler(store, refunder, notifier, DefaultCancellationPolicy(), quietLogger())
	receipt, err := r.Cancel(context.Background(), 42, "no reason", Requester{UserID: 7})

	require.NoError(t, err)
	assert.Equal(t, PaymentStatusRefundPending, receipt.PaymentStatus)
	store.AssertExpectations(t)
}

func TestReconcilerCancel_ForbiddenForStrangers(t *testing.T) {
	store := new(MockStore)
	refunder := new(MockRefunder)
	notifier := new(MockNotifier)

	ord := ownedOrder(OrderStatusPending, PaymentStatusUnpaid)
	store.On("GetOrder", mock.Anything, uint(42)).Return(ord, nil)

	r := NewReconciler(store, refunder, notifier, DefaultCancellationPolicy(), quietLogger())
	_, err := r.Cancel(context.Background(), 42, "not mine", Requester{UserID: 99})

	assert.ErrorIs(t, err, ErrForbidden)
	store.AssertNotCalled(t, "SetCancelled", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "NotifyCustomerCancelled", mock.Anything, mock.Anything)
}

func TestReconcilerCancel_AdminMayCancelAnyOrder(t *testing.T) {
	store := new(MockStore)
	refunder := new(MockRefunder)
	notifier := new(MockNotifier)

	ord := ownedOrder(OrderStatusPending, PaymentStatusUnpaid)
	store.On("GetOrder", mock.Anything, uint(42)).Return(ord, nil)
	store.On("SetCancelled", mock.Anything, uint(42), PaymentStatusUnpaid, "fraud check", uint(1)).Return(nil)
	notifier.On("NotifyCustomerCancelled", mock.Anything, mock.Anything).Return(nil)
	notifier.On("NotifyAdminCancelled", mock.Anything, mock.Anything).Return(nil)

	r := NewReconciler(store, refunder, notifier, DefaultCancellationPolicy(), quietLogger())
	receipt, err := r.Cancel(context.Background(), 42, "fraud check", Requester{UserID: 1, IsAdmin: true})

	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, receipt.Status)
}

func TestReconcilerCancel_PolicyRejectsShippedOrders(t *testing.T) {
	store := new(MockStore)
	refunder := new(MockRefunder)
	notifier := new(MockNotifier)

	ord := ownedOrder(OrderStatusShipped, PaymentStatusPaid)
	store.On("GetOrder", mock.Anything, uint(42)).Return(ord, nil)

	r := NewReconciler(store, refunder, notifier, DefaultCancellationPolicy(), quietLogger())
	_, err := r.Cancel(context.Background(), 42, "too late", Requester{UserID: 7})

	var invalid *InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, OrderStatusShipped, invalid.From)

	refunder.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "SetCancelled", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcilerCancel_NotifierFailuresDoNotFailCancellation(t *testing.T) {
	store := new(MockStore)
	refunder := new(MockRefunder)
	notifier := new(MockNotifier)

	ord := ownedOrder(OrderStatusPending, PaymentStatusUnpaid)
	store.On("GetOrder", mock.Anything, uint(42)).Return(ord, nil)
	store.On("SetCancelled", mock.Anything, uint(42), PaymentStatusUnpaid, "oops", uint(7)).Return(nil)
	notifier.On("NotifyCustomerCancelled", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	notifier.On("NotifyAdminCancelled", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	r := NewReconciler(store, refunder, notifier, DefaultCancellationPolicy(), quietLogger())
	receipt, err := r.Cancel(context.Background(), 42, "oops", Requester{UserID: 7})

	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, receipt.Status)
	notifier.AssertNumberOfCalls(t, "NotifyCustomerCancelled", 1)
	notifier.AssertNumberOfCalls(t, "NotifyAdminCancelled", 1)
}

func TestReconcilerCancel_OrderNotFound(t *testing.T) {
	store := new(MockStore)
	store.On("GetOrder", mock.Anything, uint(404)).Return(nil, ErrOrderNotFound)

	r := NewReconciler(store, new(MockRefunder), new(MockNotifier), DefaultCancellationPolicy(), quietLogger())
	_, err := r.Cancel(context.Background(), 404, "", Requester{UserID: 7})

	assert.ErrorIs(t, err, ErrOrderNotFound)
}
