package middleware

import (
	"context"
	"net/http"

	"github.com/rs/xid"

	"github.com/Yundera/mesh-router-backend/server/reqctx"
	"github.com/Yundera/mesh-router-backend/util"
)

// RequestID stamps every request with a short unique id and the HTTP log
// source, used by util.CustomFormatter to correlate log lines for one request.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := xid.New().String()
		ctx := context.WithValue(r.Context(), reqctx.RequestIDKey, id)
		ctx = context.WithValue(ctx, reqctx.SourceKey, util.HTTPSource)
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
