package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nature-catalyst/impact-intake/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates domain errors to the JSON error envelope. AppError
// messages are safe for clients; anything else gets a generic body.
func writeError(w http.ResponseWriter, err error) {
	status := common.HTTPStatus(err)
	code := "INTERNAL"
	message := "internal error"

	var appErr *common.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message
	} else if status != http.StatusInternalServerError {
		message = err.Error()
	}

	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

func badRequest(w http.ResponseWriter, message string) {
	writeError(w, common.NewAppError("INVALID_INPUT", message, common.ErrInvalidInput))
}
