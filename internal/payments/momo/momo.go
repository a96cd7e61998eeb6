// Package momo implements the MoMo captureWallet integration: the
// fixed-order request signature, the synchronous order-creation call and
// IPN callback verification.
package momo

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/minhvu-dev/courseloop-backend/pkg/config"
	pkgerrors "github.com/minhvu-dev/courseloop-backend/pkg/errors"
)

const (
	requestType = "captureWallet"
	lang        = "vi"
)

// PaymentRequest carries everything needed to create a MoMo order.
// Amount is in VND.
type PaymentRequest struct {
	OrderID  string
	UserID   uuid.UUID
	CourseID uuid.UUID
	Amount   int64
}

// CreateOrderResponse is the subset of MoMo's order-creation reply we use.
type CreateOrderResponse struct {
	PayURL     string `json:"payUrl"`
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

type createOrderRequest struct {
	PartnerCode string `json:"partnerCode"`
	PartnerName string `json:"partnerName"`
	StoreID     string `json:"storeId"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IPNURL      string `json:"ipnUrl"`
	Lang        string `json:"lang"`
	ExtraData   string `json:"extraData"`
	RequestType string `json:"requestType"`
	Signature   string `json:"signature"`
}

// Gateway talks to one MoMo partner account.
type Gateway struct {
	cfg         config.MoMoConfig
	redirectURL string
	ipnURL      string
	http        *resty.Client
}

// New builds a gateway from partner configuration. Returns an error when
// credentials are missing so the router can skip registering the provider.
func New(cfg config.MoMoConfig, redirectURL, ipnURL string) (*Gateway, error) {
	if !cfg.Configured() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "momo credentials are not configured")
	}
	client := resty.New().SetTimeout(cfg.Timeout)
	return &Gateway{
		cfg:         cfg,
		redirectURL: redirectURL,
		ipnURL:      ipnURL,
		http:        client,
	}, nil
}

// CreateOrder signs and POSTs an order-creation request, returning the payUrl
// the client should be redirected to.
func (g *Gateway) CreateOrder(ctx context.Context, req PaymentRequest) (*CreateOrderResponse, error) {
	if req.OrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if req.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	orderInfo := fmt.Sprintf("Thanh toan khoa hoc %s User %s", req.CourseID, req.UserID)
	body := createOrderRequest{
		PartnerCode: g.cfg.PartnerCode,
		PartnerName: g.cfg.PartnerName,
		StoreID:     g.cfg.StoreID,
		RequestID:   req.OrderID,
		Amount:      req.Amount,
		OrderID:     req.OrderID,
		OrderInfo:   orderInfo,
		RedirectURL: g.redirectURL,
		IPNURL:      g.ipnURL,
		Lang:        lang,
		ExtraData:   "",
		RequestType: requestType,
	}
	body.Signature = g.signCreateOrder(body)

	resp, err := g.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(g.cfg.Endpoint)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "momo order creation request failed")
	}

	var parsed CreateOrderResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode momo response")
	}
	if parsed.ResultCode != 0 {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, fmt.Sprintf("momo rejected order: %s", parsed.Message))
	}
	if parsed.PayURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "momo response missing payUrl")
	}
	return &parsed, nil
}

// signCreateOrder builds the provider-mandated raw string for order creation.
// Field order is fixed by MoMo's contract, not sorted.
func (g *Gateway) signCreateOrder(req createOrderRequest) string {
	raw := "accessKey=" + g.cfg.AccessKey +
		"&amount=" + strconv.FormatInt(req.Amount, 10) +
		"&extraData=" + req.ExtraData +
		"&ipnUrl=" + req.IPNURL +
		"&orderId=" + req.OrderID +
		"&orderInfo=" + req.OrderInfo +
		"&partnerCode=" + req.PartnerCode +
		"&redirectUrl=" + req.RedirectURL +
		"&requestId=" + req.RequestID +
		"&requestType=" + req.RequestType
	return g.hmacHex(raw)
}

// VerifyIPN recomputes the callback signature over MoMo's fixed IPN field
// order and compares it to the provided one.
func (g *Gateway) VerifyIPN(params map[string]string) bool {
	provided := params["signature"]
	if provided == "" {
		return false
	}

	raw := "accessKey=" + g.cfg.AccessKey +
		"&amount=" + params["amount"] +
		"&extraData=" + params["extraData"] +
		"&message=" + params["message"] +
		"&orderId=" + params["orderId"] +
		"&orderInfo=" + params["orderInfo"] +
		"&orderType=" + params["orderType"] +
		"&partnerCode=" + params["partnerCode"] +
		"&payType=" + params["payType"] +
		"&requestId=" + params["requestId"] +
		"&responseTime=" + params["responseTime"] +
		"&resultCode=" + params["resultCode"] +
		"&transId=" + params["transId"]

	expected := g.hmacHex(raw)
	return hmac.Equal([]byte(expected), []byte(provided))
}

func (g *Gateway) hmacHex(raw string) string {
	mac := hmac.New(sha256.New, []byte(g.cfg.SecretKey))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}
