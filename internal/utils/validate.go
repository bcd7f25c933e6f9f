package utils

import "regexp"

var (
	// Phones must be Moroccan E.164 numbers: +212 followed by a mobile or
	// fixed-line prefix and eight digits.
	phoneRegex = regexp.MustCompile(`^\+212[5-7][0-9]{8}$`)
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidPhone reports whether the phone matches the required E.164 format.
func ValidPhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// ValidEmail reports whether the address has a plausible email shape.
func ValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
