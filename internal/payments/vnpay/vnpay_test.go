package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhvu-dev/courseloop-backend/pkg/config"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	gw, err := New(config.VNPayConfig{
		TmnCode:    "TESTCODE",
		HashSecret: "testsecret",
		PaymentURL: "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
	}, "https://shop.example.com/payment/return")
	require.NoError(t, err)
	return gw
}

func signWith(secret, canonical string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCanonicalizeSortsAndDropsEmpty(t *testing.T) {
	params := map[string]string{
		"vnp_TxnRef":   "AB12CD34",
		"vnp_Amount":   "1000000",
		"vnp_BankCode": "",
		"vnp_Info":     "hello world",
	}
	got := Canonicalize(params)
	assert.Equal(t, "vnp_Amount=1000000&vnp_Info=hello+world&vnp_TxnRef=AB12CD34", got)
}

func TestBuildPaymentURL(t *testing.T) {
	gw := newTestGateway(t)
	now := time.Date(2025, 8, 12, 9, 30, 0, 0, time.UTC)

	link, err := gw.BuildPaymentURL(PaymentRequest{
		OrderID:  "AB12CD34",
		UserID:   uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		CourseID: uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		Amount:   500000,
		ClientIP: "203.0.113.9",
		BankCode: "NCB",
	}, now)
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	q := parsed.Query()

	assert.Equal(t, "2.1.0", q.Get("vnp_Version"))
	assert.Equal(t, "pay", q.Get("vnp_Command"))
	assert.Equal(t, "TESTCODE", q.Get("vnp_TmnCode"))
	assert.Equal(t, "50000000", q.Get("vnp_Amount"))
	assert.Equal(t, "VND", q.Get("vnp_CurrCode"))
	assert.Equal(t, "AB12CD34", q.Get("vnp_TxnRef"))
	assert.Equal(t, "20250812163000", q.Get("vnp_CreateDate"), "create date is stamped in GMT+7")
	assert.Equal(t, "NCB", q.Get("vnp_BankCode"))
	assert.Equal(t, "https://shop.example.com/payment/return", q.Get("vnp_ReturnUrl"))
	require.NotEmpty(t, q.Get("vnp_SecureHash"))

	// The signature must cover exactly the query without the hash field.
	idx := strings.Index(link, "&vnp_SecureHash=")
	require.Positive(t, idx)
	canonical := link[len(gw.paymentURL)+1 : idx]
	assert.Equal(t, signWith("testsecret", canonical), q.Get("vnp_SecureHash"))
}

func TestCreateDateCrossesMidnightInVietnam(t *testing.T) {
	gw := newTestGateway(t)
	now := time.Date(2025, 12, 31, 18, 0, 0, 0, time.UTC)

	link, err := gw.BuildPaymentURL(PaymentRequest{
		OrderID:  "EF56AB78",
		UserID:   uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		CourseID: uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		Amount:   100000,
		ClientIP: "203.0.113.9",
	}, now)
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "20260101010000", parsed.Query().Get("vnp_CreateDate"))
}

func TestBuildPaymentURLRejectsBadInput(t *testing.T) {
	gw := newTestGateway(t)

	_, err := gw.BuildPaymentURL(PaymentRequest{Amount: 1000}, time.Now())
	assert.Error(t, err)

	_, err = gw.BuildPaymentURL(PaymentRequest{OrderID: "AB12CD34"}, time.Now())
	assert.Error(t, err)
}

func TestVerifyCallbackRoundTrip(t *testing.T) {
	gw := newTestGateway(t)

	params := map[string]string{
		"vnp_Amount":            "50000000",
		"vnp_ResponseCode":      "00",
		"vnp_TransactionStatus": "00",
		"vnp_TxnRef":            "AB12CD34",
		"vnp_TmnCode":           "TESTCODE",
	}
	params[FieldSecureHash] = signWith("testsecret", Canonicalize(params))

	assert.True(t, gw.VerifyCallback(params))
}

func TestVerifyCallbackStripsHashTypeField(t *testing.T) {
	gw := newTestGateway(t)

	params := map[string]string{
		"vnp_TxnRef": "AB12CD34",
		"vnp_Amount": "1000",
	}
	sig := signWith("testsecret", Canonicalize(params))
	params[FieldSecureHash] = sig
	params[FieldSecureHashType] = "HMACSHA512"

	assert.True(t, gw.VerifyCallback(params))
}

func TestVerifyCallbackIsCaseInsensitive(t *testing.T) {
	gw := newTestGateway(t)

	params := map[string]string{"vnp_TxnRef": "AB12CD34"}
	params[FieldSecureHash] = strings.ToUpper(signWith("testsecret", Canonicalize(params)))

	assert.True(t, gw.VerifyCallback(params))
}

func TestVerifyCallbackRejectsTamperedSignature(t *testing.T) {
	gw := newTestGateway(t)

	params := map[string]string{
		"vnp_TxnRef": "AB12CD34",
		"vnp_Amount": "1000",
	}
	sig := signWith("testsecret", Canonicalize(params))

	// Flip one character anywhere in the digest.
	flipped := []byte(sig)
	if flipped[10] == 'a' {
		flipped[10] = 'b'
	} else {
		flipped[10] = 'a'
	}
	params[FieldSecureHash] = string(flipped)

	assert.False(t, gw.VerifyCallback(params))
}

func TestVerifyCallbackRejectsMissingSignature(t *testing.T) {
	gw := newTestGateway(t)
	assert.False(t, gw.VerifyCallback(map[string]string{"vnp_TxnRef": "AB12CD34"}))
}

func TestCanonicalizeIsOrderIndependent(t *testing.T) {
	gw := newTestGateway(t)

	build := func(order []string) map[string]string {
		src := map[string]string{
			"vnp_Amount":       "1000",
			"vnp_TxnRef":       "AB12CD34",
			"vnp_ResponseCode": "00",
			"vnp_OrderInfo":    "Payment for course",
		}
		out := make(map[string]string, len(src))
		for _, k := range order {
			out[k] = src[k]
		}
		return out
	}

	a := build([]string{"vnp_Amount", "vnp_TxnRef", "vnp_ResponseCode", "vnp_OrderInfo"})
	b := build([]string{"vnp_OrderInfo", "vnp_ResponseCode", "vnp_TxnRef", "vnp_Amount"})

	require.Equal(t, Canonicalize(a), Canonicalize(b))

	sig := signWith("testsecret", Canonicalize(a))
	a[FieldSecureHash] = sig
	b[FieldSecureHash] = sig
	assert.True(t, gw.VerifyCallback(a))
	assert.True(t, gw.VerifyCallback(b))
}
