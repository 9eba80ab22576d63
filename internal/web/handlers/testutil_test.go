package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"face-profile/internal/profile"
	"face-profile/internal/web/middleware"
)

// fakeDirectory serves canned users and records updates.
type fakeDirectory struct {
	users   map[string]*profile.User
	getErr  error
	updated []*profile.User
}

func (f *fakeDirectory) GetUser(_ context.Context, id string) (*profile.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %q not found", id)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeDirectory) UpdateUser(_ context.Context, user *profile.User) (*profile.User, error) {
	cp := *user
	f.updated = append(f.updated, &cp)
	return &cp, nil
}

// fakeFaces is a face service whose Detect and Verify results are scripted.
type fakeFaces struct {
	detected  []profile.DetectedFace
	detectErr error
	verify    *profile.VerifyResult
}

func (f *fakeFaces) Detect(_ context.Context, _ []byte) ([]profile.DetectedFace, error) {
	return f.detected, f.detectErr
}

func (f *fakeFaces) CreateGroup(_ context.Context, _, _ string) error { return nil }

func (f *fakeFaces) CreatePerson(_ context.Context, _, _ string) (string, error) {
	return "person-1", nil
}

func (f *fakeFaces) AddFace(_ context.Context, _, _ string, _ []byte) error { return nil }

func (f *fakeFaces) Verify(_ context.Context, _, _, _ string) (*profile.VerifyResult, error) {
	return f.verify, nil
}

func (f *fakeFaces) DeletePerson(_ context.Context, _, _ string) error { return nil }

func (f *fakeFaces) DeleteGroup(_ context.Context, _ string) error { return nil }

// fakeBlobs stores blobs in memory and hands out predictable URLs.
type fakeBlobs struct {
	stored  map[string][]byte
	deleted []string
}

func (f *fakeBlobs) Put(_ context.Context, key string, data []byte, _ string) error {
	if f.stored == nil {
		f.stored = map[string][]byte{}
	}
	f.stored[key] = data
	return nil
}

func (f *fakeBlobs) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeBlobs) SignedURL(key string, _ time.Duration) (string, error) {
	return "https://blobs.example.com/" + key + "?sig=test", nil
}

// testUser is the directory record the fake session points at.
func testUser() *profile.User {
	return &profile.User{
		SubjectID:   "00uTEST",
		Login:       "jana.novak",
		FirstName:   "Jana",
		LastName:    "Novak",
		Email:       "jana@example.com",
		City:        "Brno",
		CountryCode: "CZ",
	}
}

// newTestHandler wires a ProfileHandler against in-memory fakes.
func newTestHandler(dir *fakeDirectory, faces *fakeFaces, blobs *fakeBlobs) *ProfileHandler {
	wf := profile.NewWorkflow(dir, faces, blobs)
	return NewProfileHandler(dir, wf, blobs, nil)
}

// requestWithSession creates a request carrying an authenticated session,
// the way RequireAuth would have set it up.
func requestWithSession(method, path string, body *bytes.Buffer) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, body)
	}
	session := &middleware.Session{
		ID:        "test-session-id",
		SubjectID: "00uTEST",
		Login:     "jana.novak",
		CSRFToken: "test-csrf-token",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	ctx := middleware.SetSessionInContext(req.Context(), session)
	return req.WithContext(ctx)
}

// multipartForm builds a multipart body with the given fields and an
// optional image part.
func multipartForm(t *testing.T, fields map[string]string, imageData []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}
	if imageData != nil {
		part, err := writer.CreateFormFile("profile_image", "face.png")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(imageData); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

// testPNG encodes a small valid image for upload tests.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// editFields returns a valid set of form fields.
func editFields() map[string]string {
	return map[string]string{
		"first_name":   "Jana",
		"last_name":    "Novak",
		"email":        "jana@example.com",
		"city":         "Brno",
		"country_code": "CZ",
	}
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
