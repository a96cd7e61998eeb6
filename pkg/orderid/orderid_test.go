package orderid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhvu-dev/courseloop-backend/pkg/orderid"
)

func TestNewOrderID_Format(t *testing.T) {
	gen := orderid.NewGenerator()

	for i := 0; i < 50; i++ {
		id := gen.NewOrderID()
		require.Len(t, id, orderid.Length)
		for _, r := range id {
			assert.True(t, (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F'), "unexpected character %q in %s", r, id)
		}
	}
}

func TestNewOrderID_Varies(t *testing.T) {
	gen := orderid.NewGenerator()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		seen[gen.NewOrderID()] = struct{}{}
	}
	assert.Greater(t, len(seen), 90)
}
