// Package memstore provides in-memory implementations of the OAuth2
// repository contracts.
//
// All repositories share one Store guarded by a single mutex. Consumption of
// authorization codes and refresh tokens is a compare-and-swap under that
// mutex, so at most one of several concurrent callers wins. Transactions are
// serialised and keep an undo log: when the callback fails, every change it
// made is reverted.
//
// The store is meant for development, tests and single-instance deployments.
//
//	store := memstore.New()
//	provider := services.NewServiceProvider(ctx, store, opts)
package memstore
