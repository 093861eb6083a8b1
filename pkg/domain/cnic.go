package domain

import (
	"regexp"
	"strings"

	dErrors "neokyc/pkg/domain-errors"
)

// CNIC is a national identity card number in the canonical NNNNN-NNNNNNN-N form.
// Invariant: values produced by ParseCNIC always match cnicPattern.
type CNIC string

var cnicPattern = regexp.MustCompile(`^\d{5}-\d{7}-\d$`)

// ParseCNIC accepts either the dashed form or 13 bare digits and returns the
// canonical dashed form.
//
// Errors: CodeValidation when the value is not a well-formed CNIC.
func ParseCNIC(s string) (CNIC, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "cnic is required")
	}
	if len(s) == 13 && isDigits(s) {
		s = s[:5] + "-" + s[5:12] + "-" + s[12:]
	}
	if !cnicPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeValidation, "cnic must match NNNNN-NNNNNNN-N")
	}
	return CNIC(s), nil
}

func (c CNIC) String() string { return string(c) }

// LastDigit returns the check digit, or 0 for an empty value.
func (c CNIC) LastDigit() byte {
	if c == "" {
		return 0
	}
	return c[len(c)-1]
}

// DigitCount returns the number of ASCII digits in s. Phone rules are
// expressed in digits so formatting characters do not count.
func DigitCount(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}

func isDigits(s string) bool {
	return DigitCount(s) == len(s)
}
