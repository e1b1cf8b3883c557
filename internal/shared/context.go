package shared

import (
	"context"
	"net/http"
	"strings"
)

// ClientMeta captures request metadata recorded on login sessions.
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

type clientMetaContextKey struct{}

// ContextWithClientMeta stores client metadata in context.
func ContextWithClientMeta(ctx context.Context, meta ClientMeta) context.Context {
	return context.WithValue(ctx, clientMetaContextKey{}, meta)
}

// ClientMetaFromContext extracts client metadata from context.
func ClientMetaFromContext(ctx context.Context) ClientMeta {
	meta, _ := ctx.Value(clientMetaContextKey{}).(ClientMeta)
	return meta
}

// ClientMetaFromRequest reads the user agent and the first X-Forwarded-For hop,
// falling back to RemoteAddr.
func ClientMetaFromRequest(r *http.Request) ClientMeta {
	ip := ""
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ip = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if ip == "" {
		ip = r.RemoteAddr
	}
	return ClientMeta{UserAgent: r.UserAgent(), IPAddress: ip}
}
