// Package debugctx carries an opt-in diagnostic sink through a
// context.Context. Commands enable it from the --debug flag; lower layers
// emit lines without knowing whether anyone listens.
package debugctx

import (
	"context"
	"fmt"
	"io"
	"strings"
)

type sinkKey struct{}

type sink struct {
	enabled bool
	writer  io.Writer
}

func currentSink(ctx context.Context) sink {
	if ctx == nil {
		return sink{}
	}

	value, _ := ctx.Value(sinkKey{}).(sink)
	return value
}

func WithEnabled(ctx context.Context, enabled bool) context.Context {
	value := currentSink(ctx)
	value.enabled = enabled
	return context.WithValue(ctx, sinkKey{}, value)
}

func Enabled(ctx context.Context) bool {
	return currentSink(ctx).enabled
}

func WithWriter(ctx context.Context, writer io.Writer) context.Context {
	if writer == nil {
		return ctx
	}

	value := currentSink(ctx)
	value.writer = writer
	return context.WithValue(ctx, sinkKey{}, value)
}

func Writer(ctx context.Context) io.Writer {
	return currentSink(ctx).writer
}

// Printf writes one debug line when the context carries an enabled sink.
// Blank messages are dropped so callers can format conditionally.
func Printf(ctx context.Context, format string, args ...any) {
	value := currentSink(ctx)
	if !value.enabled || value.writer == nil {
		return
	}

	message := strings.TrimSpace(fmt.Sprintf(format, args...))
	if message == "" {
		return
	}

	_, _ = fmt.Fprintf(value.writer, "debug: %s\n", message)
}
