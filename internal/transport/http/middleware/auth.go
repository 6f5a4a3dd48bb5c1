package httpmw

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

type ctxKey string

const (
	ctxKeyToken  ctxKey = "token"
	ctxKeyUserID ctxKey = "user_id"
)

// AuthMiddleware requires Bearer + X-User-ID. The gateway upstream has
// already validated the token; here the pair is only extracted into the
// request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, uid, err := identityFrom(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"` + err.Error() + `"}`))
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyToken, token)
		ctx = context.WithValue(ctx, ctxKeyUserID, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(r *http.Request) (string, int64, error) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return "", 0, errors.New("missing bearer token")
	}

	uidHeader := r.Header.Get("X-User-ID")
	if uidHeader == "" {
		return "", 0, errors.New("missing X-User-ID")
	}
	uid, err := strconv.ParseInt(uidHeader, 10, 64)
	if err != nil || uid <= 0 {
		return "", 0, errors.New("invalid X-User-ID (must be a positive int64)")
	}

	return token, uid, nil
}

func UserIDFromCtx(ctx context.Context) int64 {
	if id, ok := ctx.Value(ctxKeyUserID).(int64); ok {
		return id
	}
	return 0
}
