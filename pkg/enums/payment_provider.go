package enums

import "fmt"

// PaymentProvider identifies the gateway an order reference was issued for.
type PaymentProvider string

const (
	PaymentProviderVNPay PaymentProvider = "vnpay"
	PaymentProviderMoMo  PaymentProvider = "momo"
)

var validPaymentProviders = []PaymentProvider{
	PaymentProviderVNPay,
	PaymentProviderMoMo,
}

// DisplayName returns the provider name used in client-facing payloads.
func (p PaymentProvider) DisplayName() string {
	switch p {
	case PaymentProviderVNPay:
		return "VNPay"
	case PaymentProviderMoMo:
		return "MoMo"
	default:
		return string(p)
	}
}

// String implements fmt.Stringer.
func (p PaymentProvider) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentProvider.
func (p PaymentProvider) IsValid() bool {
	for _, candidate := range validPaymentProviders {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentProvider converts raw input into a PaymentProvider.
func ParsePaymentProvider(value string) (PaymentProvider, error) {
	for _, candidate := range validPaymentProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment provider %q", value)
}
