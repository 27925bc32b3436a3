// internal/salesforce/url.go
package salesforce

import (
	"regexp"
	"strings"

	apperrors "sf-indexer/internal/common/errors"
)

// Entity key prefixes: the first three characters of a Salesforce record ID
// identify the object type.
const (
	OpportunityPrefix = "006"
	AccountPrefix     = "001"
	CasePrefix        = "500"
)

var idPattern = regexp.MustCompile(`[A-Za-z0-9]{15,18}`)

// ExtractRecordID resolves a lightning/classic URL or a raw ID to a record
// ID with the given key prefix. Both
// "https://x.lightning.force.com/lightning/r/Opportunity/006Vv00000IZaFx/view"
// and "006Vv00000IZaFx" resolve to "006Vv00000IZaFx".
func ExtractRecordID(input, prefix string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", apperrors.NewInvalidIDError(input)
	}

	// Raw ID form.
	if !strings.Contains(input, "/") && !strings.Contains(input, "%2F") {
		if isRecordID(input, prefix) {
			return input, nil
		}
		return "", apperrors.NewInvalidIDError(input)
	}

	// URL form: the record ID is the first path segment that looks like an
	// ID and carries the expected prefix. URL-encoded separators also occur.
	normalized := strings.ReplaceAll(input, "%2F", "/")
	for _, candidate := range idPattern.FindAllString(normalized, -1) {
		if isRecordID(candidate, prefix) {
			return candidate, nil
		}
	}

	return "", apperrors.NewInvalidURLError(input)
}

// ExtractOpportunityID resolves an opportunity URL or raw ID.
func ExtractOpportunityID(input string) (string, error) {
	return ExtractRecordID(input, OpportunityPrefix)
}

// ExtractAccountID resolves an account URL or raw ID.
func ExtractAccountID(input string) (string, error) {
	return ExtractRecordID(input, AccountPrefix)
}

// ExtractCaseID resolves a case URL or raw ID.
func ExtractCaseID(input string) (string, error) {
	return ExtractRecordID(input, CasePrefix)
}

// ValidateURL reports whether the input looks like a Salesforce record URL
// or ID for the given prefix.
func ValidateURL(input, prefix string) bool {
	_, err := ExtractRecordID(input, prefix)
	return err == nil
}

func isRecordID(s, prefix string) bool {
	if len(s) != 15 && len(s) != 18 {
		return false
	}
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	return idPattern.MatchString(s) && idPattern.FindString(s) == s
}
