package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// readiness reports whether the stored project has been loaded.
type readiness interface {
	Ready() bool
}

// readyMiddleware rejects tool calls until the editor store is ready, so no
// tool can mutate the default document before the saved one replaces it.
func readyMiddleware(store readiness) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method == "tools/call" && store != nil && !store.Ready() {
				return nil, MapError(ErrNotReady)
			}
			return next(ctx, method, req)
		}
	}
}
