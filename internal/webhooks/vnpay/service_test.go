package vnpaywebhook

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

func (s *stubVerifier) VerifyCallback(_ map[string]string) bool { return s.valid }

type appliedOutcome struct {
	orderID string
	success bool
}

type stubApplier struct {
	mu      sync.Mutex
	applied []appliedOutcome
	result  *enrollments.OutcomeResult
	err     error
	panics  bool
}

func (s *stubApplier) ApplyPaymentOutcome(_ context.Context, orderID string, success bool) (*enrollments.OutcomeResult, error) {
	if s.panics {
		panic("storage exploded")
	}
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

func successParams(orderID string) map[string]string {
	return map[string]string{
		"vnp_TxnRef":            orderID,
		"vnp_ResponseCode":      "00",
		"vnp_TransactionStatus": "00",
		"vnp_Amount":            "50000000",
		"vnp_SecureHash":        "deadbeef",
	}
}

func TestHandleIPNConfirmsSuccessfulPayment(t *testing.T) {
	applier := &stubApplier{result: &enrollments.OutcomeResult{
		Enrollment:   &models.Enrollment{ID: uuid.New()},
		FirstSuccess: true,
	}}
	notif := &stubNotifier{notified: make(chan string, 1)}
	svc := newTestService(t, &stubVerifier{valid: true}, applier, notif)

	ack := svc.HandleIPN(context.Background(), successParams("AB12CD34"))

	assert.Equal(t, Ack{RspCode: RspConfirmed, Message: msgConfirmed}, ack)
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
	notif := &stubNotifier{notified: make(chan string, 1)}
	svc := newTestService(t, &stubVerifier{valid: true}, applier, notif)

	params := successParams("AB12CD34")
	params["vnp_ResponseCode"] = "24"
	params["vnp_TransactionStatus"] = "02"

	ack := svc.HandleIPN(context.Background(), params)

	// A declined payment is still a terminal confirmation for the gateway.
	assert.Equal(t, RspConfirmed, ack.RspCode)
	require.Len(t, applier.applied, 1)
	assert.False(t, applier.applied[0].success)

	select {
	case <-notif.notified:
		t.Fatal("no email expected for a failed payment")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandleIPNRejectsInvalidSignature(t *testing.T) {
	applier := &stubApplier{}
	svc := newTestService(t, &stubVerifier{valid: false}, applier, nil)

	ack := svc.HandleIPN(context.Background(), successParams("AB12CD34"))

	assert.Equal(t, RspInvalidSig, ack.RspCode)
	assert.Empty(t, applier.applied)
}

func TestHandleIPNRejectsMissingOrderReference(t *testing.T) {
	applier := &stubApplier{}
	svc := newTestService(t, &stubVerifier{valid: true}, applier, nil)

	params := successParams("")
	ack := svc.HandleIPN(context.Background(), params)

	assert.Equal(t, RspOrderNotFound, ack.RspCode)
	assert.Empty(t, applier.applied)
}

func TestHandleIPNUnknownOrder(t *testing.T) {
	applier := &stubApplier{err: pkgerrors.New(pkgerrors.CodeOrderNotFound, "no enrollment for order")}
	svc := newTestService(t, &stubVerifier{valid: true}, applier, nil)

	ack := svc.HandleIPN(context.Background(), successParams("MISSING1"))

	assert.Equal(t, RspOrderNotFound, ack.RspCode)
}

func TestHandleIPNInternalError(t *testing.T) {
	applier := &stubApplier{err: pkgerrors.New(pkgerrors.CodeInternal, "db down")}
	svc := newTestService(t, &stubVerifier{valid: true}, applier, nil)

	ack := svc.HandleIPN(context.Background(), successParams("AB12CD34"))

	assert.Equal(t, RspInternalError, ack.RspCode)
}

func TestHandleIPNRecoversFromPanic(t *testing.T) {
	applier := &stubApplier{panics: true}
	svc := newTestService(t, &stubVerifier{valid: true}, applier, nil)

	ack := svc.HandleIPN(context.Background(), successParams("AB12CD34"))

	assert.Equal(t, RspInternalError, ack.RspCode)
}

func TestHandleIPNReplayStillConfirms(t *testing.T) {
	applier := &stubApplier{result: &enrollments.OutcomeResult{
		Enrollment:  &models.Enrollment{ID: uuid.New()},
		AlreadyPaid: true,
	}}
	notif := &stubNotifier{notified: make(chan string, 1)}
	svc := newTestService(t, &stubVerifier{valid: true}, applier, notif)

	ack := svc.HandleIPN(context.Background(), successParams("AB12CD34"))

	assert.Equal(t, RspConfirmed, ack.RspCode)

	select {
	case <-notif.notified:
		t.Fatal("replayed ipn must not re-send the email")
	case <-time.After(50 * time.Millisecond):
	}
}
