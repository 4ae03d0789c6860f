package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCustomMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	InitCustomMetrics(reg)

	TokensIssuedTotal.WithLabelValues("client_credentials", "access_token").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "oauth_tokens_issued_total")
	assert.GreaterOrEqual(t,
		testutil.ToFloat64(TokensIssuedTotal.WithLabelValues("client_credentials", "access_token")), 1.0)
}

func TestInitCustomMetricsTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	InitCustomMetrics(reg)
	assert.NotPanics(t, func() { InitCustomMetrics(reg) })
	assert.NotPanics(t, func() { InitCustomMetrics(nil) })
}
