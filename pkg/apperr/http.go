package apperr

import (
	"encoding/json"
	"net/http"
)

type body struct {
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	ProductID string `json:"product_id,omitempty"`
	Available *int   `json:"available,omitempty"`
	Retryable bool   `json:"retryable"`
}

func Status(err error) int {
	e := From(err)
	switch e.Kind() {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict, KindResourceState:
		return http.StatusConflict
	case KindAuthorization:
		if e.Code == CodeUnauthenticated {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteHTTP renders err as the JSON error envelope. Internal errors never leak their text.
func WriteHTTP(w http.ResponseWriter, err error) {
	e := From(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(Status(err))
	_ = json.NewEncoder(w).Encode(map[string]body{"error": {
		Code:      e.Code,
		Message:   e.Message,
		ProductID: e.ProductID,
		Available: e.Available,
		Retryable: e.Retryable,
	}})
}
