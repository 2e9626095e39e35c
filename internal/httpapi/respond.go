package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"dicehall/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: failed to encode response: %v", err)
	}
}

func writeAppErr(w http.ResponseWriter, e *apperr.Error) {
	if e == nil {
		e = apperr.ErrInternal
	}
	writeJSON(w, e.HTTPStatus, e)
}

func decodeJSON(r *http.Request, dst any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst) == nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
