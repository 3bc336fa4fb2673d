package recon

import "github.com/ifcecaucaia/einventario/internal/model"

// Coarse classifications of one inspected asset.
const (
	ClassOK        = "OK"
	ClassDivergent = "DIVERGENT"
	ClassNotFound  = "NOT_FOUND"
)

// Severity tiers for remediation priority.
const (
	SeverityCritical = "P1"
	SeverityModerate = "P2"
	SeverityMinor    = "P3"
)

// Classify reduces a reconciliation result to OK, DIVERGENT or NOT_FOUND.
// Tag absence counts as a divergence; free-text notes never flip an
// otherwise clean asset.
func Classify(res Result) string {
	if res.Status == model.InspectionNotFound {
		return ClassNotFound
	}
	if res.TagAbsent {
		return ClassDivergent
	}
	for _, v := range res.Verdicts {
		if v == VerdictMismatch {
			return ClassDivergent
		}
	}
	return ClassOK
}

// Severity assigns a divergent or not-found result to exactly one tier,
// checked from most to least severe: not-found or a missing tag is critical,
// a location, serial or responsible mismatch is moderate, anything left
// (description or condition) is minor.
func Severity(res Result) string {
	if res.Status == model.InspectionNotFound || res.TagAbsent {
		return SeverityCritical
	}
	if res.Verdicts[FieldLocation] == VerdictMismatch ||
		res.Verdicts[FieldSerial] == VerdictMismatch ||
		res.Verdicts[FieldResponsible] == VerdictMismatch {
		return SeverityModerate
	}
	return SeverityMinor
}
