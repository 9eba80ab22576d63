package profile

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated means no valid session or identity claims exist.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrVerificationRejected means the uploaded face did not match the
	// user's enrolled face with sufficient confidence.
	ErrVerificationRejected = errors.New("uploaded image doesn't match current picture")

	// ErrIncompleteState means a picture operation required both the blob
	// key and the enrolled person id but at least one was missing.
	ErrIncompleteState = errors.New("profile picture state is incomplete")
)

// FaceCountError reports a detection result with anything other than
// exactly one face. It is a permanent rejection of the uploaded image.
type FaceCountError struct {
	Count int
}

func (e *FaceCountError) Error() string {
	return fmt.Sprintf("expected exactly one face in the image, found %d", e.Count)
}

// ValidationError carries field-level messages for a rejected edit form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("profile validation failed for %d field(s)", len(e.Fields))
}

// AsValidation unwraps err into a ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// AsFaceCount unwraps err into a FaceCountError if it is one.
func AsFaceCount(err error) (*FaceCountError, bool) {
	var fe *FaceCountError
	ok := errors.As(err, &fe)
	return fe, ok
}
