package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrValidation   = errors.New("validation")   // 400
	ErrNotFound     = errors.New("not found")    // 404
	ErrConflict     = errors.New("conflict")     // 409
	ErrUnauthorized = errors.New("unauthorized") // 401

	ErrPaymentInitiationFailed   = errors.New("payment initiation failed")
	ErrPaymentConfirmationFailed = errors.New("payment confirmation failed")
	ErrAlreadyPaid               = errors.New("order already paid")
)

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
