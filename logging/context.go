package logging

import (
	"context"

	"go.viam.com/utils"
)

type tickDebugKey struct{}

// EnableDebugMode marks ctx so that CDebug calls made with it log even when the logger sits above
// debug level. The per-tick lines of the pipeline use this for --debug-ticks. tag is attached to
// every such line so one run's ticks can be grepped out; an empty tag picks a random one.
func EnableDebugMode(ctx context.Context, tag string) context.Context {
	if tag == "" {
		tag = utils.RandomAlphaString(6)
	}
	return context.WithValue(ctx, tickDebugKey{}, tag)
}

// IsDebugMode reports whether ctx came from EnableDebugMode.
func IsDebugMode(ctx context.Context) bool {
	return DebugTag(ctx) != ""
}

// DebugTag returns the tag given to EnableDebugMode, or "" if ctx is not in debug mode.
func DebugTag(ctx context.Context) string {
	tag, _ := ctx.Value(tickDebugKey{}).(string)
	return tag
}
