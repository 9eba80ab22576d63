// Package profile holds the domain model for user profiles and the
// picture enrollment/verification workflow. External services (directory,
// face recognition, blob storage) are consumed through the interfaces
// declared here so the workflow can be exercised with fakes.
package profile

import (
	"context"
	"strings"
	"time"
)

// User is the in-flight copy of a directory user record. The directory
// service is the system of record; this struct only lives for the duration
// of a request.
type User struct {
	SubjectID   string
	Login       string
	FirstName   string
	LastName    string
	Email       string
	City        string
	CountryCode string
	Picture     PictureState
}

// PictureState is the app's private extension on the directory record:
// the blob key of the current profile picture and the face service person
// id it was enrolled under. Both are empty until the first successful
// upload and are cleared together on deletion.
type PictureState struct {
	ImageKey string
	PersonID string
}

// Enrolled reports whether the user has a reference face on record.
func (p PictureState) Enrolled() bool {
	return p.PersonID != ""
}

// Consistent reports whether the key/person pair is in a valid state.
// Exactly one of the two being set means an earlier operation was
// interrupted between remote calls.
func (p PictureState) Consistent() bool {
	return (p.ImageKey == "") == (p.PersonID == "")
}

// GroupID derives the face service enrollment group for this user from the
// lower-cased subject id. Subject ids are assumed unique after case folding;
// there is no collision handling.
func (u *User) GroupID() string {
	return strings.ToLower(u.SubjectID)
}

// Upload is a request-scoped uploaded image. It is discarded after the
// workflow either stores it under a blob key or rejects it.
type Upload struct {
	Data        []byte
	ContentType string
}

// DetectedFace is a transient detection result. The face id is only valid
// for a short window on the face service side.
type DetectedFace struct {
	FaceID string
}

// VerifyResult is the face service's answer to a face-vs-person comparison.
type VerifyResult struct {
	IsIdentical bool
	Confidence  float64
}

// Directory reads and writes user records on the external directory service.
type Directory interface {
	GetUser(ctx context.Context, subjectID string) (*User, error)
	UpdateUser(ctx context.Context, user *User) (*User, error)
}

// FaceService wraps the external face recognition API. All methods are
// stateless and safe for concurrent use.
type FaceService interface {
	Detect(ctx context.Context, image []byte) ([]DetectedFace, error)
	CreateGroup(ctx context.Context, groupID, name string) error
	CreatePerson(ctx context.Context, groupID, name string) (string, error)
	AddFace(ctx context.Context, groupID, personID string, image []byte) error
	Verify(ctx context.Context, faceID, personID, groupID string) (*VerifyResult, error)
	DeletePerson(ctx context.Context, groupID, personID string) error
	DeleteGroup(ctx context.Context, groupID string) error
}

// BlobStore stores picture bytes under opaque keys and issues time-limited
// read-only URLs.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	SignedURL(key string, ttl time.Duration) (string, error)
}
