// Package vnpaywebhook reconciles VNPay IPN callbacks against enrollments.
package vnpaywebhook

import (
	"context"
	"fmt"
	"time"

	"github.com/minhvu-dev/courseloop-backend/internal/enrollments"
	"github.com/minhvu-dev/courseloop-backend/pkg/db/models"
	pkgerrors "github.com/minhvu-dev/courseloop-backend/pkg/errors"
	"github.com/minhvu-dev/courseloop-backend/pkg/logger"
	"github.com/minhvu-dev/courseloop-backend/pkg/metrics"
)

const providerLabel = "vnpay"

// VNPay IPN acknowledgement codes. The gateway retries only on bad
// signature or unknown order; every other outcome is terminal.
const (
	RspConfirmed     = "00"
	RspOrderNotFound = "02"
	RspInvalidSig    = "97"
	RspInternalError = "99"
	msgConfirmed     = "Confirm Success"
	msgOrderNotFound = "Order not found"
	msgInvalidSig    = "Invalid signature"
	msgInternalError = "Unknown error"
)

// Ack is the raw response body VNPay expects from the IPN endpoint.
type Ack struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

type signatureVerifier interface {
	VerifyCallback(params map[string]string) bool
}

type outcomeApplier interface {
	ApplyPaymentOutcome(ctx context.Context, orderID string, success bool) (*enrollments.OutcomeResult, error)
}

type notifier interface {
	PaymentConfirmed(ctx context.Context, enrollment *models.Enrollment, orderID string) error
}

type ServiceParams struct {
	Verifier   signatureVerifier
	Enrollment outcomeApplier
	Notifier   notifier
	Metrics    *metrics.PaymentMetrics
	Logger     *logger.Logger
}

// Service verifies and applies VNPay instant payment notifications.
type Service struct {
	verifier   signatureVerifier
	enrollment outcomeApplier
	notifier   notifier
	metrics    *metrics.PaymentMetrics
	logg       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Verifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "signature verifier required")
	}
	if params.Enrollment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "enrollment service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		verifier:   params.Verifier,
		enrollment: params.Enrollment,
		notifier:   params.Notifier,
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

// HandleIPN reconciles one VNPay callback. It never returns an error:
// whatever happens internally, VNPay gets a well formed ack so it stops
// retrying on anything but a signature or order-reference problem.
func (s *Service) HandleIPN(ctx context.Context, params map[string]string) Ack {
	started := time.Now()
	s.metrics.IncReceived(providerLabel)
	ctx = s.logg.WithProvider(ctx, providerLabel)

	ack := s.reconcile(ctx, params)

	s.metrics.IncOutcome(providerLabel, ack.RspCode)
	s.metrics.ObserveDuration(providerLabel, time.Since(started))
	return ack
}

func (s *Service) reconcile(ctx context.Context, params map[string]string) (ack Ack) {
	defer func() {
		if r := recover(); r != nil {
			s.logg.Error(ctx, "panic while reconciling vnpay ipn", pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("panic: %v", r)))
			ack = Ack{RspCode: RspInternalError, Message: msgInternalError}
		}
	}()

	if !s.verifier.VerifyCallback(params) {
		s.logg.Warn(ctx, "vnpay ipn rejected: invalid signature")
		return Ack{RspCode: RspInvalidSig, Message: msgInvalidSig}
	}

	orderID := params["vnp_TxnRef"]
	if orderID == "" {
		s.logg.Warn(ctx, "vnpay ipn rejected: missing order reference")
		return Ack{RspCode: RspOrderNotFound, Message: msgOrderNotFound}
	}
	ctx = s.logg.WithOrderID(ctx, orderID)

	success := params["vnp_ResponseCode"] == "00" && params["vnp_TransactionStatus"] == "00"

	result, err := s.enrollment.ApplyPaymentOutcome(ctx, orderID, success)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeOrderNotFound) {
			s.logg.Warn(ctx, "vnpay ipn for unknown order")
			return Ack{RspCode: RspOrderNotFound, Message: msgOrderNotFound}
		}
		s.logg.Error(ctx, "apply vnpay payment outcome", err)
		return Ack{RspCode: RspInternalError, Message: msgInternalError}
	}

	if result.FirstSuccess && s.notifier != nil {
		s.dispatchNotification(ctx, result.Enrollment, orderID)
	}

	return Ack{RspCode: RspConfirmed, Message: msgConfirmed}
}

// dispatchNotification fires the confirmation email without blocking the
// ack. Failures are logged, never surfaced to the gateway.
func (s *Service) dispatchNotification(ctx context.Context, enrollment *models.Enrollment, orderID string) {
	go func() {
		mailCtx := context.WithoutCancel(ctx)
		if err := s.notifier.PaymentConfirmed(mailCtx, enrollment, orderID); err != nil {
			s.logg.Error(mailCtx, "payment confirmation email", err)
		}
	}()
}
