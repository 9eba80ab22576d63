package faceapi

import (
	"context"
	"fmt"
	"net/http"

	"face-profile/internal/profile"
)

// Detect submits raw image bytes for face detection and returns the
// transient face ids. The service only keeps the returned ids valid for a
// short window, so verification must follow promptly.
func (c *Client) Detect(ctx context.Context, image []byte) ([]profile.DetectedFace, error) {
	var result []struct {
		FaceID string `json:"faceId"`
	}
	if err := c.do(ctx, http.MethodPost, "detect", nil, image, &result); err != nil {
		return nil, err
	}

	faces := make([]profile.DetectedFace, 0, len(result))
	for _, f := range result {
		faces = append(faces, profile.DetectedFace{FaceID: f.FaceID})
	}
	return faces, nil
}

// CreateGroup creates a person group that namespaces one user's enrolled
// faces.
func (c *Client) CreateGroup(ctx context.Context, groupID, name string) error {
	payload := map[string]string{"name": name}
	return c.do(ctx, http.MethodPut, "persongroups/"+groupID, payload, nil, nil)
}

// CreatePerson creates an enrolled-person entry in a group and returns the
// durable person id.
func (c *Client) CreatePerson(ctx context.Context, groupID, name string) (string, error) {
	payload := map[string]string{"name": name}
	var result struct {
		PersonID string `json:"personId"`
	}
	if err := c.do(ctx, http.MethodPost, "persongroups/"+groupID+"/persons", payload, nil, &result); err != nil {
		return "", err
	}
	if result.PersonID == "" {
		return "", fmt.Errorf("face service returned an empty person id")
	}
	return result.PersonID, nil
}

// AddFace attaches an image's face to an enrolled person as its reference
// face.
func (c *Client) AddFace(ctx context.Context, groupID, personID string, image []byte) error {
	endpoint := "persongroups/" + groupID + "/persons/" + personID + "/persistedFaces"
	return c.do(ctx, http.MethodPost, endpoint, nil, image, nil)
}

// Verify compares a detected face against an enrolled person within a
// group.
func (c *Client) Verify(ctx context.Context, faceID, personID, groupID string) (*profile.VerifyResult, error) {
	payload := map[string]string{
		"faceId":        faceID,
		"personId":      personID,
		"personGroupId": groupID,
	}
	var result struct {
		IsIdentical bool    `json:"isIdentical"`
		Confidence  float64 `json:"confidence"`
	}
	if err := c.do(ctx, http.MethodPost, "verify", payload, nil, &result); err != nil {
		return nil, err
	}
	return &profile.VerifyResult{
		IsIdentical: result.IsIdentical,
		Confidence:  result.Confidence,
	}, nil
}

// DeletePerson removes an enrolled person and its reference faces.
func (c *Client) DeletePerson(ctx context.Context, groupID, personID string) error {
	return c.do(ctx, http.MethodDelete, "persongroups/"+groupID+"/persons/"+personID, nil, nil, nil)
}

// DeleteGroup removes a user's enrollment group.
func (c *Client) DeleteGroup(ctx context.Context, groupID string) error {
	return c.do(ctx, http.MethodDelete, "persongroups/"+groupID, nil, nil, nil)
}
