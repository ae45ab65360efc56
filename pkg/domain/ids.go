package domain

import (
	"strconv"

	dErrors "clubreg/pkg/domain-errors"
)

// RegistrationID is the backend-assigned identifier of a registration.
// Zero means the registration has not been persisted yet.
type RegistrationID int64

// MemberID identifies a member record created by the member service.
type MemberID int64

// IsZero reports whether the ID has not been assigned by the backend.
func (id RegistrationID) IsZero() bool {
	return id == 0
}

func (id RegistrationID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseRegistrationID parses a path or query parameter into a RegistrationID.
// IDs must be positive integers; the backend never assigns anything else.
func ParseRegistrationID(s string) (RegistrationID, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "registration id is required")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "registration id must be a positive integer")
	}
	return RegistrationID(n), nil
}
