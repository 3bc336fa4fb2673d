package report

import (
	"sort"
	"strings"

	"github.com/ifcecaucaia/einventario/internal/model"
	"github.com/ifcecaucaia/einventario/internal/recon"
)

// BuildingCard summarizes one building for the inspector workspace.
type BuildingCard struct {
	Building  string `json:"building"`
	Total     int    `json:"total"`
	Inspected int    `json:"inspected"`
	Pending   int    `json:"pending"`
	NotFound  int    `json:"not_found"`
	Moved     int    `json:"moved"`
	Extras    int    `json:"extras"`
}

// Buildings produces one card per building over the eligible assets, plus the
// unregistered items observed in each.
func Buildings(assets []model.Asset, inspections map[int64]*model.Inspection, extras []model.Extra) []BuildingCard {
	byLabel := make(map[string]*BuildingCard)
	card := func(label string) *BuildingCard {
		c, ok := byLabel[label]
		if !ok {
			c = &BuildingCard{Building: label}
			byLabel[label] = c
		}
		return c
	}

	for i := range assets {
		a := &assets[i]
		c := card(BuildingOf(a))
		c.Total++
		insp := inspections[a.ID]
		if insp == nil {
			c.Pending++
			continue
		}
		c.Inspected++
		if insp.Status == model.InspectionNotFound {
			c.NotFound++
		}
		if recon.MovedRoom(a, insp) {
			c.Moved++
		}
	}
	for _, e := range extras {
		label := strings.TrimSpace(e.RoomObsBuilding)
		if label == "" {
			label = NoBuildingLabel
		}
		card(label).Extras++
	}

	out := make([]BuildingCard, 0, len(byLabel))
	for _, c := range byLabel {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Building < out[j].Building })
	return out
}

// RoomStats summarizes one room of a building. MovedOut counts assets
// registered here but observed elsewhere; MovedIn counts assets registered
// elsewhere but observed here.
type RoomStats struct {
	Room      string `json:"room"`
	Total     int    `json:"total"`
	Inspected int    `json:"inspected"`
	Pending   int    `json:"pending"`
	OK        int    `json:"ok"`
	Divergent int    `json:"divergent"`
	NotFound  int    `json:"not_found"`
	MovedOut  int    `json:"moved_out"`
	MovedIn   int    `json:"moved_in"`
	Extras    int    `json:"extras"`
}

func sameBuilding(label, building string) bool {
	building = strings.TrimSpace(building)
	if building == "" {
		return label == NoBuildingLabel
	}
	return strings.EqualFold(label, building)
}

// RoomsOfBuilding breaks one building down per room. The full asset set is
// required so moved-in assets registered under other buildings are visible.
func RoomsOfBuilding(building string, assets []model.Asset, inspections map[int64]*model.Inspection, extras []model.Extra) []RoomStats {
	byRoom := make(map[string]*RoomStats)
	stats := func(room string) *RoomStats {
		key := strings.ToUpper(strings.TrimSpace(room))
		s, ok := byRoom[key]
		if !ok {
			s = &RoomStats{Room: strings.TrimSpace(room)}
			byRoom[key] = s
		}
		return s
	}

	for i := range assets {
		a := &assets[i]
		room, b := recon.ParseLocation(a.Location)
		insp := inspections[a.ID]

		if sameBuilding(building, b) {
			s := stats(room)
			s.Total++
			if insp == nil {
				s.Pending++
			} else {
				s.Inspected++
				switch recon.Classify(recon.Reconcile(a, insp)) {
				case recon.ClassNotFound:
					s.NotFound++
				case recon.ClassDivergent:
					s.Divergent++
				default:
					s.OK++
				}
				if recon.MovedRoom(a, insp) {
					s.MovedOut++
				}
			}
		}

		if insp != nil && recon.MovedRoom(a, insp) && sameBuilding(building, insp.RoomObsBuilding) {
			stats(insp.RoomObsName).MovedIn++
		}
	}
	for _, e := range extras {
		if sameBuilding(building, e.RoomObsBuilding) {
			stats(e.RoomObsName).Extras++
		}
	}

	out := make([]RoomStats, 0, len(byRoom))
	for _, s := range byRoom {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Room < out[j].Room })
	return out
}

// AssetSummary is one asset line in a room listing.
type AssetSummary struct {
	Tag         string `json:"tag"`
	Description string `json:"description"`
	Location    string `json:"location"`
	ObservedAt  string `json:"observed_at,omitempty"`
}

// RoomListing is the per-room work view: what is still pending, what was
// confirmed, what diverged, what is gone, plus items that physically moved
// and unregistered finds.
type RoomListing struct {
	Building  string         `json:"building"`
	Room      string         `json:"room"`
	Pending   []AssetSummary `json:"pending"`
	OK        []AssetSummary `json:"ok"`
	Divergent []AssetSummary `json:"divergent"`
	NotFound  []AssetSummary `json:"not_found"`
	MovedOut  []AssetSummary `json:"moved_out"`
	MovedIn   []AssetSummary `json:"moved_in"`
	Extras    []model.Extra  `json:"extras"`
}

// ListRoom builds the listing for one room. Moved assets appear only in the
// moved lists, not in the divergent list, so each asset shows up once.
func ListRoom(building, room string, assets []model.Asset, inspections map[int64]*model.Inspection, extras []model.Extra) RoomListing {
	listing := RoomListing{Building: building, Room: strings.TrimSpace(room)}
	sameRoom := func(r string) bool {
		return strings.EqualFold(strings.TrimSpace(r), listing.Room)
	}

	for i := range assets {
		a := &assets[i]
		regRoom, regBuilding := recon.ParseLocation(a.Location)
		insp := inspections[a.ID]
		summary := AssetSummary{Tag: a.Tag, Description: a.Description, Location: a.Location}

		if insp != nil && recon.MovedRoom(a, insp) {
			summary.ObservedAt = recon.FormatLocation(insp.RoomObsName, insp.RoomObsBuilding)
			if sameBuilding(building, regBuilding) && sameRoom(regRoom) {
				listing.MovedOut = append(listing.MovedOut, summary)
			}
			if sameBuilding(building, insp.RoomObsBuilding) && sameRoom(insp.RoomObsName) {
				listing.MovedIn = append(listing.MovedIn, summary)
			}
			continue
		}

		if !sameBuilding(building, regBuilding) || !sameRoom(regRoom) {
			continue
		}
		if insp == nil {
			listing.Pending = append(listing.Pending, summary)
			continue
		}
		switch recon.Classify(recon.Reconcile(a, insp)) {
		case recon.ClassNotFound:
			listing.NotFound = append(listing.NotFound, summary)
		case recon.ClassDivergent:
			listing.Divergent = append(listing.Divergent, summary)
		default:
			listing.OK = append(listing.OK, summary)
		}
	}

	for _, e := range extras {
		if sameBuilding(building, e.RoomObsBuilding) && sameRoom(e.RoomObsName) {
			listing.Extras = append(listing.Extras, e)
		}
	}

	sortSummaries := func(s []AssetSummary) {
		sort.Slice(s, func(i, j int) bool { return s[i].Tag < s[j].Tag })
	}
	sortSummaries(listing.Pending)
	sortSummaries(listing.OK)
	sortSummaries(listing.Divergent)
	sortSummaries(listing.NotFound)
	sortSummaries(listing.MovedOut)
	sortSummaries(listing.MovedIn)
	return listing
}
