package domain

import (
	"strings"

	dErrors "neokyc/pkg/domain-errors"
)

// IncomeBracket is the monthly income tier captured on the registration form.
type IncomeBracket string

const (
	IncomeBelow50k   IncomeBracket = "Below 50k"
	Income50kTo100k  IncomeBracket = "50k-100k"
	Income100kTo200k IncomeBracket = "100k-200k"
	IncomeAbove200k  IncomeBracket = "Above 200k"
)

var incomeBrackets = map[string]IncomeBracket{
	"below 50k":  IncomeBelow50k,
	"0-50k":      IncomeBelow50k,
	"50k-100k":   Income50kTo100k,
	"100k-200k":  Income100kTo200k,
	"above 200k": IncomeAbove200k,
	"200k+":      IncomeAbove200k,
}

// ParseIncomeBracket maps form input onto the four supported tiers.
// Legacy spellings used by older front-ends are accepted.
func ParseIncomeBracket(s string) (IncomeBracket, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", dErrors.New(dErrors.CodeValidation, "income bracket is required")
	}
	b, ok := incomeBrackets[key]
	if !ok {
		return "", dErrors.New(dErrors.CodeValidation, "unsupported income bracket")
	}
	return b, nil
}

func (b IncomeBracket) IsValid() bool {
	switch b {
	case IncomeBelow50k, Income50kTo100k, Income100kTo200k, IncomeAbove200k:
		return true
	}
	return false
}

// IsHighIncome reports whether the bracket carries the high-income marker
// used for segmentation (100k and above).
func (b IncomeBracket) IsHighIncome() bool {
	return b == Income100kTo200k || b == IncomeAbove200k
}

func (b IncomeBracket) String() string { return string(b) }
