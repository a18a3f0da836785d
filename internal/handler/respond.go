package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/harborworks/drydock/internal/domain"
)

// RespondJSON writes v as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
// Returns an EINVALID domain error suitable for ErrorResponse.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return domain.Errorf(domain.ETOOLARGE, "", "Request body too large")
		}
		return domain.WrapError(err, domain.EINVALID, "", "Invalid JSON body")
	}
	return nil
}

// PathUUID parses a UUID path segment registered with the given name.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.Errorf(domain.EINVALID, "", "Invalid %s: %q", name, raw)
	}
	return id, nil
}
