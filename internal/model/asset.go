package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset is one row of the SUAP registry, imported as-is and read-only to the
// rest of the system. Uniquely keyed by Tag (tombamento).
type Asset struct {
	ID               int64           `json:"id"`
	Tag              string          `json:"tag"`
	Status           string          `json:"status,omitempty"`
	ExpenseCode      string          `json:"expense_code,omitempty"`
	Account          string          `json:"account,omitempty"`
	Description      string          `json:"description"`
	Responsible      string          `json:"responsible,omitempty"`
	Sector           string          `json:"sector,omitempty"`
	Serial           string          `json:"serial,omitempty"`
	Location         string          `json:"location,omitempty"`
	Condition        string          `json:"condition,omitempty"`
	Supplier         string          `json:"supplier,omitempty"`
	Invoice          string          `json:"invoice,omitempty"`
	EnteredAt        *time.Time      `json:"entered_at,omitempty"`
	AcquisitionValue decimal.Decimal `json:"acquisition_value"`
	DepreciatedValue decimal.Decimal `json:"depreciated_value"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// StatusDecommissioned is the SUAP status of assets written off the registry
// ("baixado"). Compared case-insensitively.
const StatusDecommissioned = "baixado"

// ExpenseCodeBooks is the ED code for library books, which campaigns may
// exclude from scope.
const ExpenseCodeBooks = "4490.52.18"

// Room is a physical room, optionally inside a building (bloco). Rooms are
// seeded from the registry's location text and used for inspector navigation.
type Room struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Building string `json:"building,omitempty"`
}
