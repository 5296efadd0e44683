package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/de-tools/fleet-compliance/pkg/models/api"
	"github.com/rs/zerolog"
)

// Recoverer turns a handler panic into a JSON 500. http.ErrAbortHandler is re-raised so the
// server can abort the connection.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			zerolog.Ctx(r.Context()).Error().
				Str("panic", fmt.Sprint(rvr)).
				Bytes("stack", debug.Stack()).
				Msg("recovered from panic")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{
				Error:   "Internal server error",
				Message: fmt.Sprint(rvr),
			})
		}()

		next.ServeHTTP(w, r)
	})
}
