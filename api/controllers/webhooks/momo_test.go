package webhooks

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhvu-dev/courseloop-backend/internal/payments/momo"
	momowebhook "github.com/minhvu-dev/courseloop-backend/internal/webhooks/momo"
	"github.com/minhvu-dev/courseloop-backend/pkg/config"
	"github.com/minhvu-dev/courseloop-backend/pkg/logger"
)

const (
	momoTestAccessKey = "momo-access-key"
	momoTestSecretKey = "momo-secret-key"
)

func momoHandler(t *testing.T, applier *recordingApplier) http.HandlerFunc {
	t.Helper()
	gateway, err := momo.New(config.MoMoConfig{
		PartnerCode: "MOMO_TEST",
		AccessKey:   momoTestAccessKey,
		SecretKey:   momoTestSecretKey,
		Endpoint:    "https://test-payment.momo.vn/v2/gateway/api/create",
		Timeout:     5 * time.Second,
	}, "https://courseloop.test/payment/return", "https://courseloop.test/payment/momo/ipn")
	require.NoError(t, err)

	svc, err := momowebhook.NewService(momowebhook.ServiceParams{
		Verifier:   gateway,
		Enrollment: applier,
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return MoMoIPN(svc, nil)
}

func momoIPNBody(t *testing.T, orderID, resultCode string, tamper bool) []byte {
	t.Helper()
	fields := map[string]string{
		"partnerCode":  "MOMO_TEST",
		"orderId":      orderID,
		"requestId":    "req-001",
		"amount":       "500000",
		"orderInfo":    "Thanh toan khoa hoc",
		"orderType":    "momo_wallet",
		"transId":      "2147483647",
		"resultCode":   resultCode,
		"message":      "Successful.",
		"payType":      "qr",
		"responseTime": "1724830000000",
		"extraData":    "",
	}

	raw := "accessKey=" + momoTestAccessKey +
		"&amount=" + fields["amount"] +
		"&extraData=" + fields["extraData"] +
		"&message=" + fields["message"] +
		"&orderId=" + fields["orderId"] +
		"&orderInfo=" + fields["orderInfo"] +
		"&orderType=" + fields["orderType"] +
		"&partnerCode=" + fields["partnerCode"] +
		"&payType=" + fields["payType"] +
		"&requestId=" + fields["requestId"] +
		"&responseTime=" + fields["responseTime"] +
		"&resultCode=" + fields["resultCode"] +
		"&transId=" + fields["transId"]
	mac := hmac.New(sha256.New, []byte(momoTestSecretKey))
	mac.Write([]byte(raw))
	signature := hex.EncodeToString(mac.Sum(nil))
	if tamper {
		flipped := byte('0')
		if signature[0] == '0' {
			flipped = 'f'
		}
		signature = string(flipped) + signature[1:]
	}

	body := map[string]any{
		"partnerCode":  fields["partnerCode"],
		"orderId":      fields["orderId"],
		"requestId":    fields["requestId"],
		"amount":       json.Number(fields["amount"]),
		"orderInfo":    fields["orderInfo"],
		"orderType":    fields["orderType"],
		"transId":      json.Number(fields["transId"]),
		"resultCode":   json.Number(fields["resultCode"]),
		"message":      fields["message"],
		"payType":      fields["payType"],
		"responseTime": json.Number(fields["responseTime"]),
		"extraData":    fields["extraData"],
		"signature":    signature,
	}
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	return payload
}

func doMoMoIPN(handler http.HandlerFunc, body []byte) (*httptest.ResponseRecorder, momowebhook.Ack) {
	req := httptest.NewRequest(http.MethodPost, "/payment/momo/ipn", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	var ack momowebhook.Ack
	_ = json.Unmarshal(rec.Body.Bytes(), &ack)
	return rec, ack
}

func TestMoMoIPNConfirmsAndFlipsPayment(t *testing.T) {
	applier := newRecordingApplier("AB12CD34")
	handler := momoHandler(t, applier)

	rec, ack := doMoMoIPN(handler, momoIPNBody(t, "AB12CD34", "0", false))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, ack.ResultCode)
	assert.Equal(t, "Confirm Success", ack.Message)
	assert.True(t, applier.byOrder["AB12CD34"].PaymentStatus)
}

func TestMoMoIPNTamperedSignature(t *testing.T) {
	applier := newRecordingApplier("AB12CD34")
	handler := momoHandler(t, applier)

	rec, ack := doMoMoIPN(handler, momoIPNBody(t, "AB12CD34", "0", true))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 97, ack.ResultCode)
	assert.False(t, applier.byOrder["AB12CD34"].PaymentStatus)
}

func TestMoMoIPNFailedPaymentDoesNotFlip(t *testing.T) {
	applier := newRecordingApplier("AB12CD34")
	handler := momoHandler(t, applier)

	rec, ack := doMoMoIPN(handler, momoIPNBody(t, "AB12CD34", "1006", false))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, ack.ResultCode)
	assert.False(t, applier.byOrder["AB12CD34"].PaymentStatus)
}

func TestMoMoIPNUnknownOrder(t *testing.T) {
	applier := newRecordingApplier("AB12CD34")
	handler := momoHandler(t, applier)

	rec, ack := doMoMoIPN(handler, momoIPNBody(t, "FFFFFFFF", "0", false))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, ack.ResultCode)
}

func TestMoMoIPNMalformedBody(t *testing.T) {
	applier := newRecordingApplier("AB12CD34")
	handler := momoHandler(t, applier)

	rec, ack := doMoMoIPN(handler, []byte("{not json"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 99, ack.ResultCode)
}
