package recon

import (
	"strings"

	"github.com/ifcecaucaia/einventario/internal/model"
)

// Verdict is the per-field outcome of a reconciliation.
type Verdict string

const (
	VerdictMatch         Verdict = "match"
	VerdictMismatch      Verdict = "mismatch"
	VerdictNotApplicable Verdict = "not_applicable"
	VerdictNotInspected  Verdict = "not_inspected"
)

// Tracked fields, in report order.
const (
	FieldLocation    = "location"
	FieldSerial      = "serial"
	FieldDescription = "description"
	FieldResponsible = "responsible"
	FieldCondition   = "condition"
)

// Fields lists the tracked fields in the fixed order diffs are reported in.
var Fields = []string{FieldLocation, FieldSerial, FieldDescription, FieldResponsible, FieldCondition}

// Diff kinds beyond the tracked fields.
const (
	DiffTagAbsent = "tag_absent"
	DiffNotFound  = "not_found"
	DiffNote      = "note"
)

// Diff is one detailed divergence entry. Registry/Observed are set only for
// field-value diffs; notes carry their text in Observed.
type Diff struct {
	Kind     string `json:"kind"`
	Registry string `json:"registry,omitempty"`
	Observed string `json:"observed,omitempty"`
}

// Label renders the divergence label used in reports and charts.
func (d Diff) Label() string {
	switch d.Kind {
	case FieldLocation:
		return "Local divergente"
	case FieldSerial:
		return "Número de série divergente"
	case FieldDescription:
		return "Descrição divergente"
	case FieldResponsible:
		return "Responsável divergente"
	case FieldCondition:
		return "Estado de conservação divergente"
	case DiffTagAbsent:
		return "Etiqueta ausente"
	case DiffNotFound:
		return "Não localizado"
	case DiffNote:
		return d.Observed
	}
	return d.Kind
}

// Result is the reconciliation of one asset against one inspection.
type Result struct {
	Status    string             `json:"status"`
	Verdicts  map[string]Verdict `json:"verdicts"`
	TagAbsent bool               `json:"tag_absent"`
	Diffs     []Diff             `json:"diffs"`
}

// Reconcile compares an asset's registry values against a field inspection,
// producing per-field verdicts and an ordered diff list (location, serial,
// description, responsible, condition, tag-absent, not-found, notes).
//
// A true match flag is authoritative: the inspector's judgment is never
// second-guessed by string comparison. A false flag always yields a Mismatch
// verdict; a detailed value diff is added only when an observed value was
// recorded and differs (trimmed, case-sensitive) from the registry value.
// A not-found inspection short-circuits the field comparison entirely.
// A nil inspection yields NotInspected verdicts across the board.
func Reconcile(a *model.Asset, insp *model.Inspection) Result {
	res := Result{Verdicts: make(map[string]Verdict, len(Fields))}
	if insp == nil {
		for _, f := range Fields {
			res.Verdicts[f] = VerdictNotInspected
		}
		return res
	}
	res.Status = insp.Status
	if insp.Status == model.InspectionNotFound {
		for _, f := range Fields {
			res.Verdicts[f] = VerdictNotApplicable
		}
		// Tag presence is an independent signal and is reported even when
		// the asset itself was not located.
		if !insp.TagPresent {
			res.TagAbsent = true
			res.Diffs = append(res.Diffs, Diff{Kind: DiffTagAbsent})
		}
		res.Diffs = append(res.Diffs, Diff{Kind: DiffNotFound})
		return appendNoteDiffs(res, insp.Notes)
	}

	regRoom, regBuilding := ParseLocation(a.Location)
	fields := []struct {
		name     string
		matches  bool
		registry string
		observed string
	}{
		{FieldLocation, insp.MatchesLocation,
			FormatLocation(regRoom, regBuilding),
			FormatLocation(insp.RoomObsName, insp.RoomObsBuilding)},
		{FieldSerial, insp.MatchesSerial, a.Serial, insp.SerialObs},
		{FieldDescription, insp.MatchesDescription, a.Description, insp.DescriptionObs},
		{FieldResponsible, insp.MatchesResponsible, a.Responsible, insp.ResponsibleObs},
		{FieldCondition, insp.MatchesCondition, a.Condition, insp.ConditionObs},
	}
	for _, f := range fields {
		if f.matches {
			res.Verdicts[f.name] = VerdictMatch
			continue
		}
		res.Verdicts[f.name] = VerdictMismatch
		obs := strings.TrimSpace(f.observed)
		reg := strings.TrimSpace(f.registry)
		if obs != "" && obs != reg {
			res.Diffs = append(res.Diffs, Diff{Kind: f.name, Registry: reg, Observed: obs})
		}
	}
	if !insp.TagPresent {
		res.TagAbsent = true
		res.Diffs = append(res.Diffs, Diff{Kind: DiffTagAbsent})
	}
	return appendNoteDiffs(res, insp.Notes)
}

func appendNoteDiffs(res Result, notes string) Result {
	for _, n := range SplitNotes(notes) {
		res.Diffs = append(res.Diffs, Diff{Kind: DiffNote, Observed: n})
	}
	return res
}

// SplitNotes breaks a free-text notes field into individual labels, splitting
// on ';', ',' and '/'. Labels are trimmed and deduplicated case-insensitively,
// first occurrence wins, order preserved.
func SplitNotes(notes string) []string {
	parts := strings.FieldsFunc(notes, func(r rune) bool {
		return r == ';' || r == ',' || r == '/'
	})
	var out []string
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		k := strings.ToLower(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return out
}

// Divergent derives the persisted divergence boolean from the five match
// flags. Recomputed by the store on every inspection write. Tag absence and
// notes do not enter; not-found is tracked by the status column.
func Divergent(insp *model.Inspection) bool {
	return !(insp.MatchesDescription && insp.MatchesSerial && insp.MatchesLocation &&
		insp.MatchesCondition && insp.MatchesResponsible)
}

// MovedRoom reports whether a found inspection places the asset in a room
// other than the registry's. Requires an explicit location mismatch with an
// observed room recorded; rooms compare case-insensitively.
func MovedRoom(a *model.Asset, insp *model.Inspection) bool {
	if insp == nil || insp.Status != model.InspectionFound || insp.MatchesLocation {
		return false
	}
	obsRoom := strings.TrimSpace(insp.RoomObsName)
	if obsRoom == "" {
		return false
	}
	regRoom, regBuilding := ParseLocation(a.Location)
	return !strings.EqualFold(obsRoom, regRoom) ||
		!strings.EqualFold(strings.TrimSpace(insp.RoomObsBuilding), regBuilding)
}
