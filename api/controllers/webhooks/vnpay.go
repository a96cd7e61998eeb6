// Package webhooks exposes the raw provider-facing IPN endpoints. These
// handlers never use the API envelope: each gateway parses the exact body
// shape it documented, and always receives HTTP 200.
package webhooks

import (
	"net/http"

	"github.com/minhvu-dev/courseloop-backend/api/responses"
	vnpaywebhook "github.com/minhvu-dev/courseloop-backend/internal/webhooks/vnpay"
	"github.com/minhvu-dev/courseloop-backend/pkg/logger"
)

// VNPayIPN accepts the VNPay server-to-server callback. VNPay delivers
// parameters as key-value pairs on either GET or POST.
func VNPayIPN(svc *vnpaywebhook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteRaw(w, http.StatusOK, vnpaywebhook.Ack{RspCode: vnpaywebhook.RspInternalError, Message: "Unknown error"})
			return
		}

		if err := r.ParseForm(); err != nil {
			if logg != nil {
				logg.Error(ctx, "parse vnpay ipn params", err)
			}
			responses.WriteRaw(w, http.StatusOK, vnpaywebhook.Ack{RspCode: vnpaywebhook.RspInternalError, Message: "Unknown error"})
			return
		}

		params := make(map[string]string, len(r.Form))
		for key, values := range r.Form {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}

		responses.WriteRaw(w, http.StatusOK, svc.HandleIPN(ctx, params))
	}
}
