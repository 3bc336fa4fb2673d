package model

import "time"

// Inspection is the outcome of inspecting one asset within one campaign.
// Unique per (campaign, asset); a later submission overwrites the earlier one.
type Inspection struct {
	ID         int64  `json:"id"`
	CampaignID int64  `json:"campaign_id"`
	AssetID    int64  `json:"asset_id"`
	Status     string `json:"status"`

	// Inspector's per-field judgment: does the field match the registry?
	// These are authoritative; observed values below are only meaningful
	// when the corresponding flag is false.
	MatchesDescription bool `json:"matches_description"`
	MatchesSerial      bool `json:"matches_serial"`
	MatchesLocation    bool `json:"matches_location"`
	MatchesCondition   bool `json:"matches_condition"`
	MatchesResponsible bool `json:"matches_responsible"`

	DescriptionObs  string `json:"description_obs,omitempty"`
	SerialObs       string `json:"serial_obs,omitempty"`
	RoomObsName     string `json:"room_obs_name,omitempty"`
	RoomObsBuilding string `json:"room_obs_building,omitempty"`
	ConditionObs    string `json:"condition_obs,omitempty"`
	ResponsibleObs  string `json:"responsible_obs,omitempty"`

	// Tag presence is a separate signal; TagCondition is informational only
	// and never enters the divergence computation.
	TagPresent   bool   `json:"tag_present"`
	TagCondition string `json:"tag_condition,omitempty"`

	Damage string `json:"damage,omitempty"`
	Notes  string `json:"notes,omitempty"`

	// Derived from the five match flags on every save.
	Divergent bool `json:"divergent"`

	PhotoMime string `json:"photo_mime,omitempty"`

	CreatedBy *int64    `json:"created_by,omitempty"`
	UpdatedBy *int64    `json:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	AssetTag         string `json:"asset_tag,omitempty"`
	AssetDescription string `json:"asset_description,omitempty"`
	AssetLocation    string `json:"asset_location,omitempty"`
}

// Inspection statuses.
const (
	InspectionFound    = "found"
	InspectionNotFound = "not_found"
)

// Tag conditions.
const (
	TagConditionGood        = "good"
	TagConditionDefaced     = "defaced"
	TagConditionPeeling     = "peeling"
	TagConditionNonStandard = "nonstandard"
	TagConditionHardToRead  = "hard_to_read"
)

// ValidTagCondition reports whether s is a known tag condition (or empty).
func ValidTagCondition(s string) bool {
	switch s {
	case "", TagConditionGood, TagConditionDefaced, TagConditionPeeling,
		TagConditionNonStandard, TagConditionHardToRead:
		return true
	}
	return false
}

// Extra is an inspection finding for a physical object with no registry
// counterpart ("item sem registro"). It is never matched to an Asset.
type Extra struct {
	ID              int64     `json:"id"`
	CampaignID      int64     `json:"campaign_id"`
	Description     string    `json:"description"`
	RoomObsName     string    `json:"room_obs_name"`
	RoomObsBuilding string    `json:"room_obs_building,omitempty"`
	SerialObs       string    `json:"serial_obs,omitempty"`
	ConditionObs    string    `json:"condition_obs,omitempty"`
	ResponsibleObs  string    `json:"responsible_obs,omitempty"`
	TagPresent      bool      `json:"tag_present"`
	TagCondition    string    `json:"tag_condition,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	PhotoMime       string    `json:"photo_mime,omitempty"`
	CreatedBy       *int64    `json:"created_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
