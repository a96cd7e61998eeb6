// Package vnpay implements the VNPay redirect-checkout integration:
// request signing, callback signature verification and payment URL assembly.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/minhvu-dev/courseloop-backend/pkg/config"
	pkgerrors "github.com/minhvu-dev/courseloop-backend/pkg/errors"
)

const (
	version   = "2.1.0"
	command   = "pay"
	currency  = "VND"
	orderType = "other"
	locale    = "vn"

	// Callback fields stripped before the signature is recomputed.
	FieldSecureHash     = "vnp_SecureHash"
	FieldSecureHashType = "vnp_SecureHashType"
)

// VNPay reads vnp_CreateDate as Vietnam local time.
var vnpayZone = time.FixedZone("GMT+7", 7*60*60)

// PaymentRequest carries everything needed to build a redirect URL.
// Amount is in VND; VNPay's wire format multiplies it by 100.
type PaymentRequest struct {
	OrderID  string
	UserID   uuid.UUID
	CourseID uuid.UUID
	Amount   int64
	ClientIP string
	BankCode string
}

// Gateway signs requests and verifies callbacks for one merchant account.
type Gateway struct {
	tmnCode    string
	hashSecret string
	paymentURL string
	returnURL  string
}

// New builds a gateway from merchant configuration.
func New(cfg config.VNPayConfig, returnURL string) (*Gateway, error) {
	if cfg.TmnCode == "" || cfg.HashSecret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vnpay credentials are not configured")
	}
	if cfg.PaymentURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vnpay payment url is not configured")
	}
	return &Gateway{
		tmnCode:    cfg.TmnCode,
		hashSecret: cfg.HashSecret,
		paymentURL: cfg.PaymentURL,
		returnURL:  returnURL,
	}, nil
}

// BuildPaymentURL assembles the signed redirect URL for a payment attempt.
func (g *Gateway) BuildPaymentURL(req PaymentRequest, now time.Time) (string, error) {
	if req.OrderID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if req.Amount <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	params := map[string]string{
		"vnp_Version":    version,
		"vnp_Command":    command,
		"vnp_TmnCode":    g.tmnCode,
		"vnp_Amount":     strconv.FormatInt(req.Amount*100, 10),
		"vnp_CurrCode":   currency,
		"vnp_TxnRef":     req.OrderID,
		"vnp_OrderInfo":  fmt.Sprintf("Payment for course %s user %s", req.CourseID, req.UserID),
		"vnp_OrderType":  orderType,
		"vnp_Locale":     locale,
		"vnp_CreateDate": now.In(vnpayZone).Format("20060102150405"),
		"vnp_IpAddr":     req.ClientIP,
		"vnp_ReturnUrl":  g.returnURL,
	}
	if strings.TrimSpace(req.BankCode) != "" {
		params["vnp_BankCode"] = strings.TrimSpace(req.BankCode)
	}

	query := Canonicalize(params)
	signature := g.sign(query)
	return g.paymentURL + "?" + query + "&" + FieldSecureHash + "=" + signature, nil
}

// VerifyCallback checks the provider signature on an IPN or return redirect.
// The signature fields themselves are excluded from the signed string, and
// hex digests compare case-insensitively per the provider contract.
func (g *Gateway) VerifyCallback(params map[string]string) bool {
	provided, ok := params[FieldSecureHash]
	if !ok || provided == "" {
		return false
	}

	filtered := make(map[string]string, len(params))
	for key, value := range params {
		if key == FieldSecureHash || key == FieldSecureHashType {
			continue
		}
		filtered[key] = value
	}

	expected := g.sign(Canonicalize(filtered))
	return hmac.Equal([]byte(strings.ToLower(expected)), []byte(strings.ToLower(provided)))
}

func (g *Gateway) sign(canonical string) string {
	mac := hmac.New(sha512.New, []byte(g.hashSecret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// Canonicalize produces the deterministic signed string: empty values are
// dropped, keys sorted bytewise, values urlencoded with + for spaces.
func Canonicalize(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key, value := range params {
		if strings.TrimSpace(value) == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, key := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(strings.TrimSpace(params[key])))
	}
	return sb.String()
}
