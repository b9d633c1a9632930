package common

import "context"

type selectedContextKey struct{}

// WithContextName records which catalog context this invocation resolved, so
// nested layers can name it in diagnostics and output.
func WithContextName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, selectedContextKey{}, name)
}

// ContextName returns the recorded context name, or "" when none was set.
func ContextName(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(selectedContextKey{}).(string)
	return name
}
