// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password accepted by [Validator.Password].
const MinPasswordLength = 8

// minAttributeLength is the shortest user attribute considered for similarity.
const minAttributeLength = 4

// commonPasswords is checked case-insensitively.
var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "passw0rd": {},
	"12345678": {}, "123456789": {}, "1234567890": {}, "87654321": {},
	"qwerty123": {}, "qwertyuiop": {}, "1q2w3e4r": {}, "1qaz2wsx": {},
	"iloveyou": {}, "sunshine": {}, "princess": {}, "football": {},
	"baseball": {}, "welcome1": {}, "letmein1": {}, "trustno1": {},
	"superman": {}, "starwars": {}, "whatever": {}, "michelle": {},
	"computer": {}, "jennifer": {}, "abcdefgh": {}, "abc12345": {},
	"admin123": {}, "changeme": {}, "00000000": {}, "11111111": {},
	"qwerty12": {}, "zaq12wsx": {}, "monkey123": {}, "dragon123": {},
}

/*
Password applies the account password policy.

Rules (each failure adds its own message under field):
  - At least [MinPasswordLength] characters.
  - Not entirely numeric.
  - Not a commonly used password.
  - Not too similar to the supplied user attributes (username, email, names).

Parameters:
  - field: string (JSON field that carries the password)
  - password: string
  - attributes: ...string (values the password must not resemble)
*/
func (v *Validator) Password(field, password string, attributes ...string) *Validator {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		v.add(field, fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}

	if password != "" && isNumeric(password) {
		v.add(field, "This password is entirely numeric.")
	}

	if _, found := commonPasswords[strings.ToLower(password)]; found {
		v.add(field, "This password is too common.")
	}

	if similarTo(password, attributes) {
		v.add(field, "The password is too similar to your personal information.")
	}

	return v
}

func isNumeric(value string) bool {
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// similarTo splits each attribute on non-alphanumerics (so an email yields
// its local part and domain labels) and reports a containment match in
// either direction.
func similarTo(password string, attributes []string) bool {
	lowered := strings.ToLower(password)
	if lowered == "" {
		return false
	}

	for _, attribute := range attributes {
		parts := strings.FieldsFunc(strings.ToLower(attribute), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		parts = append(parts, strings.ToLower(attribute))

		for _, part := range parts {
			if utf8.RuneCountInString(part) < minAttributeLength {
				continue
			}
			if strings.Contains(lowered, part) || strings.Contains(part, lowered) {
				return true
			}
		}
	}
	return false
}
