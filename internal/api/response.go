package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/UniNest/NestGuide/internal/models"
)

// fallbackErrorBody is pre-marshaled so encoding failures can still answer
// with a well-formed envelope.
var fallbackErrorBody = []byte(`{"status":"error","message":"internal error"}`)

func writeJSONResponse(w http.ResponseWriter, statusCode int, resp models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("api: failed to encode response", "error", err)
		w.Write(fallbackErrorBody)
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, models.Error(message))
}
