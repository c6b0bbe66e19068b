package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrInvalidRequest = errors.New("service: invalid request")
	ErrDeviceNotFound = errors.New("service: device not found")
	ErrTimeout        = errors.New("service: database operation timed out")
	ErrUnauthorized   = errors.New("service: database authorization failed")
)

// Postgres error codes that indicate the configured credential lacks
// privilege rather than a transient or internal failure.
var authFailureCodes = map[string]struct{}{
	"28000": {}, // invalid_authorization_specification
	"28P01": {}, // invalid_password
	"42501": {}, // insufficient_privilege
}

// classify maps raw database failures onto the service taxonomy. Anything not
// recognized is returned unchanged and surfaces as an internal error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := authFailureCodes[pgErr.Code]; ok {
			return ErrUnauthorized
		}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "not authorized") || strings.Contains(msg, "permission denied") {
		return ErrUnauthorized
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") {
		return ErrTimeout
	}
	return err
}
