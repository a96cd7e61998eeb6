package webhooks

import (
	"encoding/json"
	"net/http"

	"github.com/minhvu-dev/courseloop-backend/api/responses"
	momowebhook "github.com/minhvu-dev/courseloop-backend/internal/webhooks/momo"
	"github.com/minhvu-dev/courseloop-backend/pkg/logger"
)

// momoIPNPayload mirrors the JSON body MoMo posts. Numeric fields are kept
// as json.Number so the signature raw string reproduces the exact literals
// MoMo signed.
type momoIPNPayload struct {
	PartnerCode  string      `json:"partnerCode"`
	OrderID      string      `json:"orderId"`
	RequestID    string      `json:"requestId"`
	Amount       json.Number `json:"amount"`
	OrderInfo    string      `json:"orderInfo"`
	OrderType    string      `json:"orderType"`
	TransID      json.Number `json:"transId"`
	ResultCode   json.Number `json:"resultCode"`
	Message      string      `json:"message"`
	PayType      string      `json:"payType"`
	ResponseTime json.Number `json:"responseTime"`
	ExtraData    string      `json:"extraData"`
	Signature    string      `json:"signature"`
}

func (p momoIPNPayload) toParams() map[string]string {
	return map[string]string{
		"partnerCode":  p.PartnerCode,
		"orderId":      p.OrderID,
		"requestId":    p.RequestID,
		"amount":       p.Amount.String(),
		"orderInfo":    p.OrderInfo,
		"orderType":    p.OrderType,
		"transId":      p.TransID.String(),
		"resultCode":   p.ResultCode.String(),
		"message":      p.Message,
		"payType":      p.PayType,
		"responseTime": p.ResponseTime.String(),
		"extraData":    p.ExtraData,
		"signature":    p.Signature,
	}
}

// MoMoIPN accepts the MoMo server-to-server callback (JSON POST).
func MoMoIPN(svc *momowebhook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteRaw(w, http.StatusOK, momowebhook.Ack{ResultCode: momowebhook.ResultInternalError, Message: "Unknown error"})
			return
		}

		var payload momoIPNPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			if logg != nil {
				logg.Error(ctx, "decode momo ipn body", err)
			}
			responses.WriteRaw(w, http.StatusOK, momowebhook.Ack{ResultCode: momowebhook.ResultInternalError, Message: "Unknown error"})
			return
		}

		responses.WriteRaw(w, http.StatusOK, svc.HandleIPN(ctx, payload.toParams()))
	}
}
