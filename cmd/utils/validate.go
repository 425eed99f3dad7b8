package utils

import (
	"net/url"
	"regexp"
)

var (
	emailRegexp = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	taxNumberRe = regexp.MustCompile(`^(\d{10}|\d{12})$`)
	regNumberRe = regexp.MustCompile(`^(\d{13}|\d{15})$`)
)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return len(s) <= 255 && emailRegexp.MatchString(s)
}

// ValidTaxNumber accepts 10 or 12 digit tax identifiers.
func ValidTaxNumber(s string) bool {
	return taxNumberRe.MatchString(s)
}

// ValidRegistrationNumber accepts 13 or 15 digit registration numbers.
func ValidRegistrationNumber(s string) bool {
	return regNumberRe.MatchString(s)
}

// ValidURL accepts absolute http(s) URLs.
func ValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
