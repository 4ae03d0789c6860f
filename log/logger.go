package log

import "context"

// Fields carries structured key/value pairs attached to a log line.
type Fields = map[string]interface{}

// Logger is the structured logger injected into the OAuth2 services.
// Every call takes the request context so trace ids can be attached.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	Fatal(ctx context.Context, msg string, err error, fields ...map[string]interface{}) // exits the process
	With(fields map[string]interface{}) Logger
}

// Redact shortens a credential to a prefix that is safe to log.
func Redact(credential string) string {
	const keep = 8
	if len(credential) <= keep {
		return "***"
	}
	return credential[:keep] + "..."
}

type nopLogger struct{}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nopLogger{} }

func (nopLogger) Debug(context.Context, string, ...map[string]interface{}) {}
func (nopLogger) Info(context.Context, string, ...map[string]interface{}) {}
func (nopLogger) Warn(context.Context, string, ...map[string]interface{}) {}
func (nopLogger) Error(context.Context, string, error, ...map[string]interface{}) {}
func (nopLogger) Fatal(context.Context, string, error, ...map[string]interface{}) {}
func (n nopLogger) With(map[string]interface{}) Logger { return n }
