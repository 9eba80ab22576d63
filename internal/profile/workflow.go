package profile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// VerifyConfidenceThreshold is the minimum confidence at which a verified
// face is accepted as the same person. A result of exactly 0.8 commits.
const VerifyConfidenceThreshold = 0.8

// Workflow sequences the remote calls behind profile updates: face
// detection, enrollment or verification, blob swap and directory write-back.
// Every call is sequential and gated by the previous result; there are no
// retries and no rollback of remote side effects.
type Workflow struct {
	directory Directory
	faces     FaceService
	blobs     BlobStore
}

// NewWorkflow wires a workflow from its three external collaborators.
func NewWorkflow(directory Directory, faces FaceService, blobs BlobStore) *Workflow {
	return &Workflow{
		directory: directory,
		faces:     faces,
		blobs:     blobs,
	}
}

// UpdateProfile validates and applies the edit form and, when an image is
// uploaded, runs the picture workflow before persisting the record once.
//
// With no image the plain field edits are persisted directly. With an image
// the flow is: detect exactly one face, then either enroll a new face (no
// prior enrollment) or verify against the existing one, then commit the
// blob swap. Rejections (wrong face count, failed verification, invalid
// form) leave the stored record untouched.
func (w *Workflow) UpdateProfile(ctx context.Context, user *User, form EditForm, img *Upload) (*User, error) {
	if errs := form.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	form.Apply(user)

	if img == nil {
		updated, err := w.directory.UpdateUser(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("updating user record: %w", err)
		}
		return updated, nil
	}

	faces, err := w.faces.Detect(ctx, img.Data)
	if err != nil {
		return nil, fmt.Errorf("detecting faces: %w", err)
	}
	if len(faces) != 1 {
		return nil, &FaceCountError{Count: len(faces)}
	}

	if user.Picture.Enrolled() {
		result, err := w.faces.Verify(ctx, faces[0].FaceID, user.Picture.PersonID, user.GroupID())
		if err != nil {
			return nil, fmt.Errorf("verifying face: %w", err)
		}
		if !result.IsIdentical || result.Confidence < VerifyConfidenceThreshold {
			return nil, ErrVerificationRejected
		}
	} else {
		if err := w.enroll(ctx, user, img); err != nil {
			return nil, err
		}
	}

	return w.commit(ctx, user, img)
}

// enroll creates the user's enrollment group and person on the face service
// and attaches the uploaded face. The returned person id is recorded on the
// in-flight user; it reaches the directory in the commit step.
func (w *Workflow) enroll(ctx context.Context, user *User, img *Upload) error {
	groupID := user.GroupID()

	if err := w.faces.CreateGroup(ctx, groupID, user.Login); err != nil {
		return fmt.Errorf("creating enrollment group: %w", err)
	}
	personID, err := w.faces.CreatePerson(ctx, groupID, user.Login)
	if err != nil {
		return fmt.Errorf("creating enrolled person: %w", err)
	}
	if err := w.faces.AddFace(ctx, groupID, personID, img.Data); err != nil {
		return fmt.Errorf("adding face to enrolled person: %w", err)
	}

	user.Picture.PersonID = personID
	return nil
}

// commit swaps the stored blob and persists the full user record. The old
// blob is deleted first; a failed delete aborts the whole operation rather
// than orphaning the old blob silently.
func (w *Workflow) commit(ctx context.Context, user *User, img *Upload) (*User, error) {
	if old := user.Picture.ImageKey; old != "" {
		if err := w.blobs.Delete(ctx, old); err != nil {
			return nil, fmt.Errorf("deleting previous picture blob %q: %w", old, err)
		}
	}

	// Opaque key, never derived from the user id.
	key := uuid.NewString()
	if err := w.blobs.Put(ctx, key, img.Data, img.ContentType); err != nil {
		return nil, fmt.Errorf("storing picture blob: %w", err)
	}
	user.Picture.ImageKey = key

	updated, err := w.directory.UpdateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("updating user record: %w", err)
	}
	return updated, nil
}

// DeletePicture removes the stored blob, the enrolled person and the
// enrollment group, then clears both picture fields together and persists.
// Both fields must be set; a half-set pair is a precondition violation.
func (w *Workflow) DeletePicture(ctx context.Context, user *User) (*User, error) {
	if user.Picture.ImageKey == "" || user.Picture.PersonID == "" {
		return nil, ErrIncompleteState
	}

	if err := w.blobs.Delete(ctx, user.Picture.ImageKey); err != nil {
		return nil, fmt.Errorf("deleting picture blob: %w", err)
	}
	groupID := user.GroupID()
	if err := w.faces.DeletePerson(ctx, groupID, user.Picture.PersonID); err != nil {
		return nil, fmt.Errorf("deleting enrolled person: %w", err)
	}
	if err := w.faces.DeleteGroup(ctx, groupID); err != nil {
		return nil, fmt.Errorf("deleting enrollment group: %w", err)
	}

	user.Picture = PictureState{}
	updated, err := w.directory.UpdateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("updating user record: %w", err)
	}
	return updated, nil
}
