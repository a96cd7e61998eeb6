// Package payments wires the provider gateways behind the single link-builder
// surface the enrollment flow consumes.
package payments

import (
	"context"
	"time"

	"github.com/minhvu-dev/courseloop-backend/internal/enrollments"
	"github.com/minhvu-dev/courseloop-backend/internal/payments/momo"
	"github.com/minhvu-dev/courseloop-backend/internal/payments/vnpay"
	"github.com/minhvu-dev/courseloop-backend/pkg/enums"
	pkgerrors "github.com/minhvu-dev/courseloop-backend/pkg/errors"
	"github.com/minhvu-dev/courseloop-backend/pkg/metrics"
)

// Builder routes link requests to the configured provider gateway. A nil
// gateway means the provider was not configured at startup and requests for
// it fail with a dependency error.
type Builder struct {
	vnpay   *vnpay.Gateway
	momo    *momo.Gateway
	metrics *metrics.PaymentMetrics
	now     func() time.Time
}

// NewBuilder accepts whichever gateways are configured; either may be nil.
func NewBuilder(vnpayGW *vnpay.Gateway, momoGW *momo.Gateway, pm *metrics.PaymentMetrics) *Builder {
	return &Builder{
		vnpay:   vnpayGW,
		momo:    momoGW,
		metrics: pm,
		now:     time.Now,
	}
}

// BuildPaymentLink satisfies enrollments.PaymentLinkBuilder.
func (b *Builder) BuildPaymentLink(ctx context.Context, req enrollments.LinkRequest) (string, error) {
	switch req.Provider {
	case enums.PaymentProviderVNPay:
		if b.vnpay == nil {
			return "", pkgerrors.New(pkgerrors.CodeDependency, "vnpay is not configured")
		}
		link, err := b.vnpay.BuildPaymentURL(vnpay.PaymentRequest{
			OrderID:  req.OrderID,
			UserID:   req.UserID,
			CourseID: req.CourseID,
			Amount:   req.Amount,
			ClientIP: req.ClientIP,
			BankCode: req.BankCode,
		}, b.now())
		if err != nil {
			return "", err
		}
		b.metrics.IncLinkCreated(req.Provider.String())
		return link, nil

	case enums.PaymentProviderMoMo:
		if b.momo == nil {
			return "", pkgerrors.New(pkgerrors.CodeDependency, "momo is not configured")
		}
		resp, err := b.momo.CreateOrder(ctx, momo.PaymentRequest{
			OrderID:  req.OrderID,
			UserID:   req.UserID,
			CourseID: req.CourseID,
			Amount:   req.Amount,
		})
		if err != nil {
			return "", err
		}
		b.metrics.IncLinkCreated(req.Provider.String())
		return resp.PayURL, nil

	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider")
	}
}
