package directory

import (
	"context"
	"fmt"
	"net/http"

	"face-profile/internal/profile"
)

// Wire-level profile attribute keys. The directory stores the profile as a
// free-form string-keyed map; profileImageKey and personId are this app's
// private extension on it.
const (
	attrFirstName   = "firstName"
	attrLastName    = "lastName"
	attrEmail       = "email"
	attrLogin       = "login"
	attrCity        = "city"
	attrCountryCode = "countryCode"
	attrImageKey    = "profileImageKey"
	attrPersonID    = "personId"
)

// userResource is the directory's wire representation of a user.
type userResource struct {
	ID      string         `json:"id"`
	Profile map[string]any `json:"profile"`
}

// GetUser fetches a user record by its stable subject identifier.
func (c *Client) GetUser(ctx context.Context, subjectID string) (*profile.User, error) {
	resource, err := doJSON[userResource](ctx, c, http.MethodGet, "users/"+subjectID, nil)
	if err != nil {
		return nil, err
	}
	return toUser(resource)
}

// UpdateUser writes the full user record back to the directory and returns
// the record as the directory now sees it.
func (c *Client) UpdateUser(ctx context.Context, user *profile.User) (*profile.User, error) {
	payload := userResource{
		ID:      user.SubjectID,
		Profile: toProfileAttrs(user),
	}
	resource, err := doJSON[userResource](ctx, c, http.MethodPut, "users/"+user.SubjectID, payload)
	if err != nil {
		return nil, err
	}
	return toUser(resource)
}

// toUser validates the untyped wire profile into the typed domain record.
func toUser(resource *userResource) (*profile.User, error) {
	if resource.ID == "" {
		return nil, fmt.Errorf("directory returned a user without an id")
	}

	user := &profile.User{
		SubjectID:   resource.ID,
		Login:       stringAttr(resource.Profile, attrLogin),
		FirstName:   stringAttr(resource.Profile, attrFirstName),
		LastName:    stringAttr(resource.Profile, attrLastName),
		Email:       stringAttr(resource.Profile, attrEmail),
		City:        stringAttr(resource.Profile, attrCity),
		CountryCode: stringAttr(resource.Profile, attrCountryCode),
		Picture: profile.PictureState{
			ImageKey: stringAttr(resource.Profile, attrImageKey),
			PersonID: stringAttr(resource.Profile, attrPersonID),
		},
	}
	return user, nil
}

// toProfileAttrs maps the typed record back to the wire profile map.
// Empty picture fields are written as empty strings so a deletion clears
// the attributes instead of leaving stale values behind.
func toProfileAttrs(user *profile.User) map[string]any {
	return map[string]any{
		attrLogin:       user.Login,
		attrFirstName:   user.FirstName,
		attrLastName:    user.LastName,
		attrEmail:       user.Email,
		attrCity:        user.City,
		attrCountryCode: user.CountryCode,
		attrImageKey:    user.Picture.ImageKey,
		attrPersonID:    user.Picture.PersonID,
	}
}

// stringAttr reads a string-valued profile attribute, tolerating missing
// keys and non-string values (both read as empty).
func stringAttr(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}
