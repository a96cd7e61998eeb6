// Package orderid generates short payment order references.
package orderid

import (
	"strings"

	"github.com/google/uuid"
)

// Length is the number of characters in a generated order id.
const Length = 8

// Generator produces order ids for payment transactions.
type Generator interface {
	NewOrderID() string
}

type uuidGenerator struct{}

// NewGenerator returns the default UUID-backed generator.
func NewGenerator() Generator {
	return uuidGenerator{}
}

// NewOrderID returns an 8-character uppercase hex reference derived
// from a random UUID. Uniqueness is enforced at the database level;
// callers retry on collision.
func (uuidGenerator) NewOrderID() string {
	raw := uuid.New()
	hex := strings.ReplaceAll(raw.String(), "-", "")
	return strings.ToUpper(hex[:Length])
}
