package profile

import (
	"net/mail"
	"strings"

	"golang.org/x/text/language"
)

// EditForm carries the editable profile fields between the user record and
// the edit form on the client.
type EditForm struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	City        string `json:"city"`
	CountryCode string `json:"country_code"`
}

// LoadForm copies the editable fields of a user record into a form for
// display.
func LoadForm(user *User) EditForm {
	return EditForm{
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		City:        user.City,
		CountryCode: user.CountryCode,
	}
}

// Validate checks required fields and formats. It returns a map of field
// name to message, empty when the form is valid.
func (f *EditForm) Validate() map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(f.FirstName) == "" {
		errs["first_name"] = "first name is required"
	}
	if strings.TrimSpace(f.LastName) == "" {
		errs["last_name"] = "last name is required"
	}
	switch email := strings.TrimSpace(f.Email); {
	case email == "":
		errs["email"] = "email is required"
	default:
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			errs["email"] = "email is not a valid address"
		}
	}
	if code := strings.TrimSpace(f.CountryCode); code != "" {
		if _, err := language.ParseRegion(code); err != nil {
			errs["country_code"] = "country code is not a valid ISO region"
		}
	}

	return errs
}

// Apply writes the form values onto the user record in memory. The caller
// is responsible for validating first and persisting afterwards.
func (f *EditForm) Apply(user *User) {
	user.FirstName = strings.TrimSpace(f.FirstName)
	user.LastName = strings.TrimSpace(f.LastName)
	user.Email = strings.TrimSpace(f.Email)
	user.City = strings.TrimSpace(f.City)
	user.CountryCode = strings.ToUpper(strings.TrimSpace(f.CountryCode))
}
