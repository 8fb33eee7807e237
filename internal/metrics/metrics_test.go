package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(lifecycleOps.WithLabelValues("signup", "ok"))
	RecordOperation("signup", "ok")
	RecordOperation("signup", "ok")
	assert.Equal(t, before+2, testutil.ToFloat64(lifecycleOps.WithLabelValues("signup", "ok")))
}

func TestRecordRateLimit(t *testing.T) {
	before := testutil.ToFloat64(rateLimitDecisions.WithLabelValues("/api/auth/signin", "blocked"))
	RecordRateLimit("/api/auth/signin", "blocked")
	assert.Equal(t, before+1, testutil.ToFloat64(rateLimitDecisions.WithLabelValues("/api/auth/signin", "blocked")))
}

func TestRegistry_Gathers(t *testing.T) {
	RecordOperation("login", "ok")
	families, err := Registry().Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "account_lifecycle_operations_total")
	// calling twice must not re-register
	assert.NotPanics(t, func() { Registry() })
}
