package recon

import (
	"strings"

	"github.com/ifcecaucaia/einventario/internal/model"
)

// Eligible reports whether an asset is in scope for a campaign. Decommissioned
// assets are always out of scope; library books are out unless the campaign
// opted them in. Every coverage denominator in the reports is computed over
// eligible assets only.
func Eligible(a *model.Asset, c *model.Campaign) bool {
	if strings.EqualFold(strings.TrimSpace(a.Status), model.StatusDecommissioned) {
		return false
	}
	if strings.TrimSpace(a.ExpenseCode) == model.ExpenseCodeBooks && !c.IncludeBooks {
		return false
	}
	return true
}
