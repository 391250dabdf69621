package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel errors returned by the services. Each message doubles as the
// i18n key sent to the frontend.
var (
	ErrNotFound         = errors.New("error.not_found")
	ErrNameExists       = errors.New("error.name_exists")
	ErrSelfConnection   = errors.New("error.self_connection")
	ErrConnectionExists = errors.New("error.connection_exists")
	ErrUnknownEndpoint  = errors.New("error.unknown_endpoint")
)

// notFound maps gorm's record-not-found to ErrNotFound and wraps everything
// else with the operation name.
func notFound(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
