// Package momowebhook reconciles MoMo IPN callbacks against enrollments.
package momowebhook

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

const providerLabel = "momo"

// MoMo IPN acknowledgement codes, mirroring the gateway's own result
// code convention.
const (
	ResultConfirmed     = 0
	ResultOrderNotFound = 2
	ResultInvalidSig    = 97
	ResultInternalError = 99
)

// Ack is the raw JSON body MoMo expects from the IPN endpoint.
type Ack struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

type signatureVerifier interface {
	VerifyIPN(params map[string]string) bool
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

// Service verifies and applies MoMo instant payment notifications.
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

// HandleIPN reconciles one MoMo callback. The gateway always gets a well
// formed ack; only a signature or order-reference problem should make it
// retry.
func (s *Service) HandleIPN(ctx context.Context, params map[string]string) Ack {
	started := time.Now()
	s.metrics.IncReceived(providerLabel)
	ctx = s.logg.WithProvider(ctx, providerLabel)

	ack := s.reconcile(ctx, params)

	s.metrics.IncOutcome(providerLabel, fmt.Sprintf("%d", ack.ResultCode))
	s.metrics.ObserveDuration(providerLabel, time.Since(started))
	return ack
}

func (s *Service) reconcile(ctx context.Context, params map[string]string) (ack Ack) {
	defer func() {
		if r := recover(); r != nil {
			s.logg.Error(ctx, "panic while reconciling momo ipn", pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("panic: %v", r)))
			ack = Ack{ResultCode: ResultInternalError, Message: "Unknown error"}
		}
	}()

	if !s.verifier.VerifyIPN(params) {
		s.logg.Warn(ctx, "momo ipn rejected: invalid signature")
		return Ack{ResultCode: ResultInvalidSig, Message: "Invalid signature"}
	}

	orderID := params["orderId"]
	if orderID == "" {
		s.logg.Warn(ctx, "momo ipn rejected: missing order reference")
		return Ack{ResultCode: ResultOrderNotFound, Message: "Order not found"}
	}
	ctx = s.logg.WithOrderID(ctx, orderID)

	success := params["resultCode"] == "0"

	result, err := s.enrollment.ApplyPaymentOutcome(ctx, orderID, success)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeOrderNotFound) {
			s.logg.Warn(ctx, "momo ipn for unknown order")
			return Ack{ResultCode: ResultOrderNotFound, Message: "Order not found"}
		}
		s.logg.Error(ctx, "apply momo payment outcome", err)
		return Ack{ResultCode: ResultInternalError, Message: "Unknown error"}
	}

	if result.FirstSuccess && s.notifier != nil {
		s.dispatchNotification(ctx, result.Enrollment, orderID)
	}

	return Ack{ResultCode: ResultConfirmed, Message: "Confirm Success"}
}

func (s *Service) dispatchNotification(ctx context.Context, enrollment *models.Enrollment, orderID string) {
	go func() {
		mailCtx := context.WithoutCancel(ctx)
		if err := s.notifier.PaymentConfirmed(mailCtx, enrollment, orderID); err != nil {
			s.logg.Error(mailCtx, "payment confirmation email", err)
		}
	}()
}
