package identity

import (
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// ValidationPolicy sets the field length bounds a store enforces before
// inserting a user record.
type ValidationPolicy struct {
	UsernameMin, UsernameMax   int
	EmailMin, EmailMax         int
	FirstNameMin, FirstNameMax int
	LastNameMin, LastNameMax   int
}

// DefaultValidationPolicy mirrors the historical bounds.
var DefaultValidationPolicy = ValidationPolicy{
	UsernameMin: 1, UsernameMax: 100,
	EmailMin: 3, EmailMax: 255,
	FirstNameMin: 1, FirstNameMax: 100,
	LastNameMin: 1, LastNameMax: 100,
}

// StrictValidationPolicy narrows usernames to the handle-style bounds some
// deployments enforce.
var StrictValidationPolicy = ValidationPolicy{
	UsernameMin: 3, UsernameMax: 30,
	EmailMin: 3, EmailMax: 255,
	FirstNameMin: 1, FirstNameMax: 100,
	LastNameMin: 1, LastNameMax: 100,
}

// ValidateUser checks field bounds with the default policy.
func ValidateUser(user *User) error {
	return ValidateUserWithPolicy(user, DefaultValidationPolicy)
}

// ValidateUserWithPolicy checks field bounds with an explicit policy,
// failing with an invalid-data error outside the bounds.
func ValidateUserWithPolicy(user *User, policy ValidationPolicy) error {
	if user == nil {
		return ErrInvalidUserData
	}

	err := validation.ValidateStruct(user,
		validation.Field(&user.Username, validation.Required, validation.Length(policy.UsernameMin, policy.UsernameMax)),
		validation.Field(&user.Email, validation.Required, validation.Length(policy.EmailMin, policy.EmailMax)),
		validation.Field(&user.FirstName, validation.Required, validation.Length(policy.FirstNameMin, policy.FirstNameMax)),
		validation.Field(&user.LastName, validation.Required, validation.Length(policy.LastNameMin, policy.LastNameMax)),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, ErrInvalidUserData.Message).
			WithTextCode(TextCodeInvalidData).
			WithCode(goerrors.CodeBadRequest)
	}

	return nil
}
