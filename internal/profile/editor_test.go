package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadForm(t *testing.T) {
	user := &User{
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane.doe@example.com",
		City:        "Prague",
		CountryCode: "CZ",
	}

	form := LoadForm(user)
	assert.Equal(t, "Jane", form.FirstName)
	assert.Equal(t, "Doe", form.LastName)
	assert.Equal(t, "jane.doe@example.com", form.Email)
	assert.Equal(t, "Prague", form.City)
	assert.Equal(t, "CZ", form.CountryCode)
}

func TestEditFormValidate(t *testing.T) {
	valid := EditForm{
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane.doe@example.com",
		City:        "Prague",
		CountryCode: "CZ",
	}

	tests := []struct {
		name   string
		mutate func(*EditForm)
		field  string
	}{
		{"missing first name", func(f *EditForm) { f.FirstName = "" }, "first_name"},
		{"whitespace first name", func(f *EditForm) { f.FirstName = "   " }, "first_name"},
		{"missing last name", func(f *EditForm) { f.LastName = "" }, "last_name"},
		{"missing email", func(f *EditForm) { f.Email = "" }, "email"},
		{"malformed email", func(f *EditForm) { f.Email = "not-an-email" }, "email"},
		{"email with display name", func(f *EditForm) { f.Email = "Jane <jane@example.com>" }, "email"},
		{"bogus country code", func(f *EditForm) { f.CountryCode = "XX1" }, "country_code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.mutate(&form)
			errs := form.Validate()
			require.NotEmpty(t, errs)
			assert.Contains(t, errs, tt.field)
		})
	}

	t.Run("valid form", func(t *testing.T) {
		form := valid
		assert.Empty(t, form.Validate())
	})

	t.Run("city and country are optional", func(t *testing.T) {
		form := valid
		form.City = ""
		form.CountryCode = ""
		assert.Empty(t, form.Validate())
	})
}

func TestEditFormApply(t *testing.T) {
	user := &User{SubjectID: "00uAbC123", Login: "jane.doe"}
	form := EditForm{
		FirstName:   "  Jane ",
		LastName:    "Doe",
		Email:       "jane.doe@example.com",
		City:        "Brno",
		CountryCode: "cz",
	}

	form.Apply(user)
	assert.Equal(t, "Jane", user.FirstName)
	assert.Equal(t, "Doe", user.LastName)
	assert.Equal(t, "Brno", user.City)
	assert.Equal(t, "CZ", user.CountryCode, "country codes are stored upper-cased")
	assert.Equal(t, "00uAbC123", user.SubjectID, "apply never touches identity fields")
}

func TestPictureStateConsistency(t *testing.T) {
	assert.True(t, PictureState{}.Consistent())
	assert.True(t, PictureState{ImageKey: "k", PersonID: "p"}.Consistent())
	assert.False(t, PictureState{ImageKey: "k"}.Consistent())
	assert.False(t, PictureState{PersonID: "p"}.Consistent())
}

func TestGroupIDLowerCasesSubject(t *testing.T) {
	u := &User{SubjectID: "00uAbC123"}
	assert.Equal(t, "00uabc123", u.GroupID())
}
