package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	TokensIssuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_tokens_issued_total",
		Help: "Total number of credentials issued, by grant type and token type.",
	}, []string{"grant_type", "token_type"})

	GrantFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_grant_failures_total",
		Help: "Total number of rejected token requests, by grant type and OAuth2 error code.",
	}, []string{"grant_type", "error"})

	TokensRevokedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_tokens_revoked_total",
		Help: "Total number of tokens revoked.",
	}, []string{"token_type"})

	CredentialReplaysTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_credential_replays_total",
		Help: "Total number of consumed authorization codes or refresh tokens presented again.",
	}, []string{"kind"})

	CleanupDeletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_cleanup_deleted_total",
		Help: "Total number of expired credentials deleted by the cleanup job.",
	}, []string{"kind"})
)

// InitCustomMetrics registers the OAuth2 metrics with reg.
// It should be called once at application startup.
func InitCustomMetrics(reg prometheus.Registerer) {
	if reg == nil {
		log.Error().Msg("Prometheus registry is nil, cannot register custom metrics.")
		return
	}

	collectors := map[string]prometheus.Collector{
		"TokensIssuedTotal":      TokensIssuedTotal,
		"GrantFailuresTotal":     GrantFailuresTotal,
		"TokensRevokedTotal":     TokensRevokedTotal,
		"CredentialReplaysTotal": CredentialReplaysTotal,
		"CleanupDeletedTotal":    CleanupDeletedTotal,
	}
	for name, c := range collectors {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to register metric")
		}
	}
	log.Info().Msg("Custom Prometheus metrics registered.")
}
