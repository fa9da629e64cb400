package services

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/bulletin/internal/common"
)

const (
	minUserNameLen = 3
	maxUserNameLen = 32
	minPasswordLen = 8
	maxPasswordLen = 128
	maxNameLen     = 64
	maxEmailLen    = 254
)

// NormalizeUserName trims and lower-cases a username. Sign-in applies the
// same rule, so lookups are case-insensitive.
func NormalizeUserName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalize returns a copy of in with every field canonicalized. The
// password is left untouched.
func (in RegisterInput) normalize() RegisterInput {
	return RegisterInput{
		UserName:  NormalizeUserName(in.UserName),
		Password:  in.Password,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     NormalizeEmail(in.Email),
	}
}

// validate expects normalized input.
func (in RegisterInput) validate() error {
	verr := &common.ValidationError{}

	switch n := utf8.RuneCountInString(in.UserName); {
	case n == 0:
		verr.Add("username", "is required")
	case n < minUserNameLen || n > maxUserNameLen:
		verr.Add("username", "must be 3 to 32 characters long")
	case !validUserName(in.UserName):
		verr.Add("username", "may contain only letters, digits, '.', '_' and '-'")
	}

	switch n := utf8.RuneCountInString(in.Password); {
	case n == 0:
		verr.Add("password", "is required")
	case n < minPasswordLen:
		verr.Add("password", "must be at least 8 characters long")
	case n > maxPasswordLen:
		verr.Add("password", "must be at most 128 characters long")
	}

	validateName(verr, "firstName", in.FirstName)
	validateName(verr, "lastName", in.LastName)

	switch {
	case in.Email == "":
		verr.Add("email", "is required")
	case len(in.Email) > maxEmailLen || !validEmail(in.Email):
		verr.Add("email", "is not a valid address")
	}

	return verr.OrNil()
}

func validUserName(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

func validateName(verr *common.ValidationError, field, v string) {
	switch n := utf8.RuneCountInString(v); {
	case n == 0:
		verr.Add(field, "is required")
	case n > maxNameLen:
		verr.Add(field, "must be at most 64 characters long")
	}
}

// validEmail accepts a bare addr-spec; display names and angle brackets are
// rejected.
func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s && a.Name == ""
}
