package server

import (
	"context"
	"net/http"

	"github.com/yuya1213/dental-clinic-app/internal/submission"
)

type ctxKey int

const ctxKeyFlow ctxKey = iota

func sessionMiddleware(sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := sessionToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}

			f, err := sessions.Get(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyFlow, f)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func flowFrom(r *http.Request) *submission.Flow {
	return r.Context().Value(ctxKeyFlow).(*submission.Flow)
}
