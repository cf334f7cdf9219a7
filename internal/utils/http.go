package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse es el cuerpo de error común a toda la API.
type ErrorResponse struct {
	Code                  string `json:"code"`
	Error                 string `json:"error"`
	ConflictingStructures any    `json:"conflictingStructures,omitempty"`
	Item                  string `json:"item,omitempty"`
}

// RespondJSON escribe status + JSON.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError escribe un ErrorResponse simple.
func RespondError(w http.ResponseWriter, status int, code, msg string) {
	RespondJSON(w, status, ErrorResponse{Code: code, Error: msg})
}

// DecodeJSON decodifica el body rechazando campos desconocidos.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
