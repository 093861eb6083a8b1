package risk

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"neokyc/internal/identity"
	"neokyc/pkg/domain"
)

const (
	baselineTrust = 50

	minPhoneDigits   = 10
	minAddressLength = 15
	minFaceMatch     = 70
)

// Reason texts shown to admins.
const (
	ReasonDisposableEmail = "Disposable email domain detected"
	ReasonInvalidPhone    = "Invalid phone number format"
	ReasonShortAddress    = "Incomplete or short address"
	ReasonCNICExpiry      = "CNIC nearing expiry"
	ReasonBlurryDocument  = "Uploaded document detected as blurry"
	ReasonReturning       = "Returning customer detected (Positive)"
)

var disposableDomains = []string{
	"tempmail.com",
	"10minutemail.com",
	"throwawaymail.com",
	"guerrillamail.com",
	"mailinator.com",
}

// IsDisposableEmail reports whether the email's domain, or a parent of it,
// is on the disposable deny-list.
func IsDisposableEmail(email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	host := strings.ToLower(strings.TrimSpace(email[at+1:]))
	for _, d := range disposableDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Score applies the additive rules and returns a clamped profile. It never
// fails; missing inputs simply do not trigger their rule.
func Score(in Input) Profile {
	risk := 0
	trust := baselineTrust
	var reasons []string
	subj := in.Subject

	if IsDisposableEmail(subj.Email) {
		risk += 40
		trust -= 30
		reasons = append(reasons, ReasonDisposableEmail)
	} else {
		trust += 10
	}

	if domain.DigitCount(subj.Phone) < minPhoneDigits {
		risk += 10
		reasons = append(reasons, ReasonInvalidPhone)
	} else {
		trust += 5
	}

	if utf8.RuneCountInString(strings.TrimSpace(subj.Address)) < minAddressLength {
		risk += 15
		trust -= 10
		reasons = append(reasons, ReasonShortAddress)
	} else {
		trust += 5
	}

	if strings.HasSuffix(strings.TrimSpace(subj.CNIC), "9") {
		risk += 25
		trust -= 15
		reasons = append(reasons, ReasonCNICExpiry)
	}

	if in.DocumentBlurry != nil && *in.DocumentBlurry {
		risk += 30
		trust -= 20
		reasons = append(reasons, ReasonBlurryDocument)
	}

	if in.FaceMatchScore != nil {
		face := clamp(*in.FaceMatchScore)
		if face < minFaceMatch {
			risk += 40
			trust -= 30
			reasons = append(reasons, fmt.Sprintf("Low Face Match Score (%d%%)", face))
		} else {
			trust += 10
		}
	}

	findings := identity.FindDuplicates(identity.Candidate{
		FullName: subj.FullName,
		CNIC:     subj.CNIC,
		Email:    subj.Email,
		Phone:    subj.Phone,
	}, in.Existing)

	duplicate := false
	for _, f := range findings {
		switch f.Kind {
		case identity.KindCNIC:
			risk = 100
			duplicate = true
			reasons = append(reasons, fmt.Sprintf("CRITICAL: Duplicate CNIC detected (Customer ID: %s)", f.RecordID))
		case identity.KindEmail:
			risk += 50
			duplicate = true
			reasons = append(reasons, fmt.Sprintf("Duplicate Email detected (Customer ID: %s)", f.RecordID))
		case identity.KindPhone:
			risk += 40
			duplicate = true
			reasons = append(reasons, fmt.Sprintf("Duplicate Phone detected (Customer ID: %s)", f.RecordID))
		case identity.KindName:
			risk += 30
			reasons = append(reasons, fmt.Sprintf("Potential duplicate name (Match: %s, Score: %d%%)", f.MatchedName, int(f.Similarity*100)))
		}
		if f.Severity == identity.SeverityCritical {
			break
		}
	}

	returning := false
	if in.ReturningCustomer && len(reasons) == 0 && !duplicate {
		returning = true
		trust += 20
		reasons = append(reasons, ReasonReturning)
	}

	risk = clamp(risk)
	trust = clamp(trust)

	return Profile{
		RiskScore:      risk,
		TrustScore:     trust,
		Level:          LevelFor(risk),
		Segment:        segmentFor(risk, subj.IncomeBracket, returning),
		Reasons:        reasons,
		Returning:      returning,
		DuplicateFound: duplicate,
		Findings:       findings,
	}
}

func segmentFor(risk int, bracket domain.IncomeBracket, returning bool) Segment {
	switch {
	case risk > 70:
		return SegmentHighRisk
	case bracket.IsHighIncome():
		return SegmentHighIncome
	case returning:
		return SegmentReturning
	case risk < 20:
		return SegmentPrime
	default:
		return SegmentStandard
	}
}

func clamp(v int) int {
	return min(max(v, 0), 100)
}
