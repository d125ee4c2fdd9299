package services

import "errors"

var (
	ErrPrescriptionNotFound    = errors.New("prescription not found")
	ErrPharmacyNotFound        = errors.New("pharmacy not found")
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrInvalidStatus           = errors.New("invalid prescription status")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrSubmissionFailed        = errors.New("prescription submission failed")
	ErrInvalidEmail            = errors.New("email is required")
)
