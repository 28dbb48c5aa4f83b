package app

import (
	"context"
	"strings"
)

// Source labels used in the activity ledger.
const (
	SourceLocal = "local"
	SourceTUI   = "tui"
	SourceHTTP  = "http"
	SourceMCP   = "mcp"
	SourceCLI   = "cli"
)

type sourceKey struct{}

// WithSource tags ctx with the surface a mutation came from.
func WithSource(ctx context.Context, source string) context.Context {
	source = strings.TrimSpace(source)
	if source == "" {
		return ctx
	}
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFromContext returns the surface tag, defaulting to SourceLocal.
func SourceFromContext(ctx context.Context) string {
	if ctx == nil {
		return SourceLocal
	}
	if v, ok := ctx.Value(sourceKey{}).(string); ok && v != "" {
		return v
	}
	return SourceLocal
}
