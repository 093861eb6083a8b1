// Package identity detects customers that already exist under the same
// national ID, contact details or a near-identical name.
package identity

import (
	"strings"
	"unicode"
)

// NameSimilarityThreshold is the ratio a name pair must exceed to be flagged
// as a potential duplicate.
const NameSimilarityThreshold = 0.90

// Severity ranks a finding. Critical findings end the scan.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
)

// Kind names the attribute that matched.
type Kind string

const (
	KindCNIC  Kind = "cnic"
	KindEmail Kind = "email"
	KindPhone Kind = "phone"
	KindName  Kind = "name"
)

// Candidate is the customer being checked, with decrypted attributes.
type Candidate struct {
	FullName string
	CNIC     string
	Email    string
	Phone    string
}

// Record is an existing customer with decrypted attributes.
type Record struct {
	ID       string
	FullName string
	CNIC     string
	Email    string
	Phone    string
}

// Valid reports whether the record can take part in matching. Records with no
// ID or with every identity attribute empty are skipped.
func (r Record) Valid() bool {
	if strings.TrimSpace(r.ID) == "" {
		return false
	}
	return strings.TrimSpace(r.FullName) != "" ||
		strings.TrimSpace(r.CNIC) != "" ||
		strings.TrimSpace(r.Email) != "" ||
		strings.TrimSpace(r.Phone) != ""
}

// Finding is one match between the candidate and an existing record.
type Finding struct {
	Severity    Severity
	Kind        Kind
	RecordID    string
	MatchedName string  // set for KindName
	Similarity  float64 // set for KindName
}

// FindDuplicates scans existing in order and returns findings in detection
// order. For each record: CNIC match is critical and stops the whole scan;
// email and phone matches are high; a fuzzy name match is only considered
// when the record produced no strict finding.
func FindDuplicates(candidate Candidate, existing []Record) []Finding {
	cnic := strings.TrimSpace(candidate.CNIC)
	email := normalizeEmail(candidate.Email)
	phone := strings.TrimSpace(candidate.Phone)
	name := normalizeName(candidate.FullName)

	var findings []Finding
	for _, rec := range existing {
		if !rec.Valid() {
			continue
		}

		if cnic != "" && cnic == strings.TrimSpace(rec.CNIC) {
			findings = append(findings, Finding{Severity: SeverityCritical, Kind: KindCNIC, RecordID: rec.ID})
			return findings
		}

		strict := false
		if email != "" && email == normalizeEmail(rec.Email) {
			findings = append(findings, Finding{Severity: SeverityHigh, Kind: KindEmail, RecordID: rec.ID})
			strict = true
		}
		if phone != "" && phone == strings.TrimSpace(rec.Phone) {
			findings = append(findings, Finding{Severity: SeverityHigh, Kind: KindPhone, RecordID: rec.ID})
			strict = true
		}
		if strict || name == "" {
			continue
		}

		other := normalizeName(rec.FullName)
		if other == "" {
			continue
		}
		if ratio := Similarity(name, other); ratio > NameSimilarityThreshold {
			findings = append(findings, Finding{
				Severity:    SeverityMedium,
				Kind:        KindName,
				RecordID:    rec.ID,
				MatchedName: other,
				Similarity:  ratio,
			})
		}
	}
	return findings
}

// HasCritical reports whether any finding is critical.
func HasCritical(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeName lowercases and collapses internal whitespace.
func normalizeName(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), unicode.IsSpace), " ")
}
