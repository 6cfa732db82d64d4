package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	clienterrors "github.com/shdpixel/storefront-client/internal/errors"
)

// errorBody is the backend's error envelope. detail is either a plain message
// or a list of field errors ({loc, msg}) on validation failures.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldError struct {
	Loc []json.RawMessage `json:"loc"`
	Msg string            `json:"msg"`
}

// decodeStatusError maps a non-2xx response onto the client error taxonomy.
func decodeStatusError(status int, body []byte) error {
	detail, fields := parseDetail(body)

	switch {
	case status == http.StatusUnauthorized:
		return errors.Wrapf(clienterrors.ErrUnauthorized, "%s", detailOrStatus(detail, status))
	case status == http.StatusNotFound:
		return errors.Wrapf(clienterrors.ErrNotFound, "%s", detailOrStatus(detail, status))
	case status == http.StatusUnprocessableEntity || (status == http.StatusBadRequest && len(fields) > 0):
		return &clienterrors.ValidationError{Detail: detail, Fields: fields}
	case status >= 500:
		return errors.Wrapf(clienterrors.ErrServer, "%s", detailOrStatus(detail, status))
	default:
		return fmt.Errorf("request failed: %s", detailOrStatus(detail, status))
	}
}

func detailOrStatus(detail string, status int) string {
	if detail != "" {
		return detail
	}
	return http.StatusText(status)
}

// parseDetail extracts the message and any field errors from an error body.
func parseDetail(body []byte) (string, map[string]string) {
	if len(body) == 0 {
		return "", nil
	}
	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return "", nil
	}

	var message string
	if err := json.Unmarshal(envelope.Detail, &message); err == nil {
		return message, nil
	}

	var fieldErrors []fieldError
	if err := json.Unmarshal(envelope.Detail, &fieldErrors); err != nil {
		return "", nil
	}
	fields := make(map[string]string, len(fieldErrors))
	for _, fe := range fieldErrors {
		fields[fieldName(fe.Loc)] = fe.Msg
	}
	return "validation error", fields
}

// fieldName takes the last location segment, e.g. ["body", "username"].
func fieldName(loc []json.RawMessage) string {
	if len(loc) == 0 {
		return "request"
	}
	var name string
	if err := json.Unmarshal(loc[len(loc)-1], &name); err != nil {
		return "request"
	}
	return name
}
