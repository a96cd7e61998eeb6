package momowebhook

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhvu-dev/courseloop-backend/internal/enrollments"
	"github.com/minhvu-dev/courseloop-backend/pkg/db/models"
	pkgerrors "github.com/minhvu-dev/courseloop-backend/pkg/errors"
	"github.com/minhvu-dev/courseloop-backend/pkg/logger"
)

type stubVerifier struct {
	valid bool
}

func (s *stubVerifier) VerifyIPN(_ map[string]string) bool { return s.valid }

type appliedOutcome struct {
	orderID string
	success bool
}

type stubApplier struct {
	mu      sync.Mutex
	applied []appliedOutcome
	result  *enrollments.OutcomeResult
	err     error
}

func (s *stubApplier) ApplyPaymentOutcome(_ context.Context, orderID string, success bool) (*enrollments.OutcomeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, appliedOutcome{orderID: orderID, success: success})
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubNotifier struct {
	notified chan string
}

func (s *stubNotifier) PaymentConfirmed(_ context.Context, _ *models.Enrollment, orderID string) error {
	s.notified <- orderID
	return nil
}

func newTestService(t *testing.T, verifier *stubVerifier, applier *stubApplier, notif *stubNotifier) *Service {
	t.Helper()
	params := ServiceParams{
		Verifier:   verifier,
		Enrollment: applier,
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}
	if notif != nil {
		params.Notifier = notif
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return svc
}

func ipnParams(orderID, resultCode string) map[string]string {
	return map[string]string{
		"partnerCode": "MOMO_TEST",
		"orderId":     orderID,
		"requestId":   "req-1",
		"amount":      "500000",
		"resultCode":  resultCode,
		"message":     "Successful.",
		"signature":   "deadbeef",
	}
}

func TestHandleIPNConfirmsSuccessfulPayment(t *testing.T) {
	applier := &stubApplier{result: &enrollments.OutcomeResult{
		Enrollment:   &models.Enrollment{ID: uuid.New()},
		FirstSuccess: true,
	}}
	notif := &stubNotifier{notified: make(chan string, 1)}
	svc := newTestService(t, &stubVerifier{valid: true}, applier, notif)

	ack := svc.HandleIPN(context.Background(), ipnParams("AB12CD34", "0"))

	assert.Equal(t, Ack{ResultCode: ResultConfirmed, Message: "Confirm Success"}, ack)
	require.Len(t, applier.applied, 1)
	assert.Equal(t, appliedOutcome{orderID: "AB12CD34", success: true}, applier.applied[0])

	select {
	case orderID := <-notif.notified:
		assert.Equal(t, "AB12CD34", orderID)
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation email was not dispatched")
	}
}

func TestHandleIPNConfirmsFailedPayment(t *testing.T) {
	applier := &stubApplier{result: &enrollments.OutcomeResult{
		Enrollment: &models.Enrollment{ID: uuid.New()},
	}}
	svc := newTestService(t, &stubVerifier{valid: true}, applier, nil)

	ack := svc.HandleIPN(context.Background(), ipnParams("AB12CD34", "1006"))

	assert.Equal(t, ResultConfirmed, ack.ResultCode)
	require.Len(t, applier.applied, 1)
	assert.False(t, applier.applied[0].success)
}

func TestHandleIPNRejectsTamperedSignature(t *testing.T) {
	applier := &stubApplier{}
	svc := newTestService(t, &stubVerifier{valid: false}, applier, nil)

	ack := svc.HandleIPN(context.Background(), ipnParams("AB12CD34", "0"))

	assert.Equal(t, ResultInvalidSig, ack.ResultCode)
	assert.Empty(t, applier.applied)
}

func TestHandleIPNRejectsMissingOrderReference(t *testing.T) {
	applier := &stubApplier{}
	svc := newTestService(t, &stubVerifier{valid: true}, applier, nil)

	ack := svc.HandleIPN(context.Background(), ipnParams("", "0"))

	assert.Equal(t, ResultOrderNotFound, ack.ResultCode)
	assert.Empty(t, applier.applied)
}

func TestHandleIPNUnknownOrder(t *testing.T) {
	applier := &stubApplier{err: pkgerrors.New(pkgerrors.CodeOrderNotFound, "no enrollment for order")}
	svc := newTestService(t, &stubVerifier{valid: true}, applier, nil)

	ack := svc.HandleIPN(context.Background(), ipnParams("MISSING1", "0"))

	assert.Equal(t, ResultOrderNotFound, ack.ResultCode)
}

func TestHandleIPNInternalError(t *testing.T) {
	applier := &stubApplier{err: pkgerrors.New(pkgerrors.CodeInternal, "db down")}
	svc := newTestService(t, &stubVerifier{valid: true}, applier, nil)

	ack := svc.HandleIPN(context.Background(), ipnParams("AB12CD34", "0"))

	assert.Equal(t, ResultInternalError, ack.ResultCode)
}
