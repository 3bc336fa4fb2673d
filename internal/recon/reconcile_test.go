package recon

import (
	"reflect"
	"testing"

	"github.com/ifcecaucaia/einventario/internal/model"
)

func cleanInspection() *model.Inspection {
	return &model.Inspection{
		Status:             model.InspectionFound,
		MatchesDescription: true,
		MatchesSerial:      true,
		MatchesLocation:    true,
		MatchesCondition:   true,
		MatchesResponsible: true,
		TagPresent:         true,
	}
}

func TestReconcileAllFlagsTrueIsOK(t *testing.T) {
	asset := &model.Asset{Tag: "1001", Description: "Mesa", Location: "SALA 10 (BLOCO A)"}
	insp := cleanInspection()
	// Observed text never overrides a positive flag.
	insp.RoomObsName = "SALA 99"

	res := Reconcile(asset, insp)
	if got := Classify(res); got != ClassOK {
		t.Fatalf("Classify() = %q, want %q", got, ClassOK)
	}
	if len(res.Diffs) != 0 {
		t.Errorf("expected no diffs, got %v", res.Diffs)
	}
	for f, v := range res.Verdicts {
		if v != VerdictMatch {
			t.Errorf("verdict for %q = %q, want %q", f, v, VerdictMatch)
		}
	}
}

func TestReconcileNotFoundShortCircuits(t *testing.T) {
	asset := &model.Asset{Tag: "1001", Location: "SALA 10 (BLOCO A)"}
	insp := cleanInspection()
	insp.Status = model.InspectionNotFound
	insp.MatchesLocation = false
	insp.RoomObsName = "SALA 11"

	res := Reconcile(asset, insp)
	if got := Classify(res); got != ClassNotFound {
		t.Fatalf("Classify() = %q, want %q", got, ClassNotFound)
	}
	for f, v := range res.Verdicts {
		if v != VerdictNotApplicable {
			t.Errorf("verdict for %q = %q, want %q", f, v, VerdictNotApplicable)
		}
	}
	if len(res.Diffs) != 1 || res.Diffs[0].Kind != DiffNotFound {
		t.Errorf("expected single not-found diff, got %v", res.Diffs)
	}
	if got := Severity(res); got != SeverityCritical {
		t.Errorf("Severity() = %q, want %q", got, SeverityCritical)
	}
}

func TestReconcileNotFoundKeepsTagAbsent(t *testing.T) {
	asset := &model.Asset{Tag: "1001", Location: "SALA 10 (BLOCO A)"}
	insp := cleanInspection()
	insp.Status = model.InspectionNotFound
	insp.TagPresent = false

	res := Reconcile(asset, insp)
	if !res.TagAbsent {
		t.Error("tag absence must be reported for a not-found inspection")
	}
	var kinds []string
	for _, d := range res.Diffs {
		kinds = append(kinds, d.Kind)
	}
	if want := []string{DiffTagAbsent, DiffNotFound}; !reflect.DeepEqual(kinds, want) {
		t.Errorf("diffs = %v, want %v", kinds, want)
	}
	if got := Classify(res); got != ClassNotFound {
		t.Errorf("Classify() = %q, want %q", got, ClassNotFound)
	}
	if got := Severity(res); got != SeverityCritical {
		t.Errorf("Severity() = %q, want %q", got, SeverityCritical)
	}
}

func TestReconcileLocationMismatch(t *testing.T) {
	asset := &model.Asset{Tag: "1001", Location: "SALA 10 (BLOCO A)"}
	insp := cleanInspection()
	insp.MatchesLocation = false
	insp.RoomObsName = "SALA 10"
	insp.RoomObsBuilding = "BLOCO B"

	res := Reconcile(asset, insp)
	if got := Classify(res); got != ClassDivergent {
		t.Fatalf("Classify() = %q, want %q", got, ClassDivergent)
	}
	if got := Severity(res); got != SeverityModerate {
		t.Errorf("Severity() = %q, want %q", got, SeverityModerate)
	}
	if len(res.Diffs) != 1 {
		t.Fatalf("expected one diff, got %v", res.Diffs)
	}
	d := res.Diffs[0]
	if d.Kind != FieldLocation || d.Registry != "SALA 10 (BLOCO A)" || d.Observed != "SALA 10 (BLOCO B)" {
		t.Errorf("unexpected diff %+v", d)
	}
}

func TestReconcileFlagFalseWithoutObservedValue(t *testing.T) {
	asset := &model.Asset{Tag: "1001", Serial: "SN-1"}
	insp := cleanInspection()
	insp.MatchesSerial = false

	res := Reconcile(asset, insp)
	if res.Verdicts[FieldSerial] != VerdictMismatch {
		t.Errorf("serial verdict = %q, want %q", res.Verdicts[FieldSerial], VerdictMismatch)
	}
	// Flagged divergent, but no value diff to show.
	if len(res.Diffs) != 0 {
		t.Errorf("expected no detailed diffs, got %v", res.Diffs)
	}
	if got := Classify(res); got != ClassDivergent {
		t.Errorf("Classify() = %q, want %q", got, ClassDivergent)
	}
}

func TestReconcileDiffOrder(t *testing.T) {
	asset := &model.Asset{
		Tag:         "1001",
		Description: "Mesa",
		Serial:      "SN-1",
		Location:    "SALA 10 (BLOCO A)",
		Responsible: "JOÃO",
		Condition:   "Bom",
	}
	insp := cleanInspection()
	insp.MatchesLocation = false
	insp.RoomObsName = "SALA 11"
	insp.MatchesSerial = false
	insp.SerialObs = "SN-2"
	insp.MatchesDescription = false
	insp.DescriptionObs = "Cadeira"
	insp.MatchesResponsible = false
	insp.ResponsibleObs = "MARIA"
	insp.MatchesCondition = false
	insp.ConditionObs = "Ruim"
	insp.TagPresent = false
	insp.Notes = "riscado; sem pé"

	res := Reconcile(asset, insp)
	var kinds []string
	for _, d := range res.Diffs {
		kinds = append(kinds, d.Kind)
	}
	want := []string{
		FieldLocation, FieldSerial, FieldDescription, FieldResponsible,
		FieldCondition, DiffTagAbsent, DiffNote, DiffNote,
	}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("diff order = %v, want %v", kinds, want)
	}
}

func TestTagAbsentAloneIsDivergentAndCritical(t *testing.T) {
	asset := &model.Asset{Tag: "1001"}
	insp := cleanInspection()
	insp.TagPresent = false

	res := Reconcile(asset, insp)
	if got := Classify(res); got != ClassDivergent {
		t.Errorf("Classify() = %q, want %q", got, ClassDivergent)
	}
	if got := Severity(res); got != SeverityCritical {
		t.Errorf("Severity() = %q, want %q", got, SeverityCritical)
	}
	if Divergent(insp) {
		t.Error("Divergent() should track the five match flags only")
	}
}

func TestNotesNeverFlipOK(t *testing.T) {
	asset := &model.Asset{Tag: "1001"}
	insp := cleanInspection()
	insp.Notes = "parafuso solto, arranhões"

	res := Reconcile(asset, insp)
	if got := Classify(res); got != ClassOK {
		t.Errorf("Classify() = %q, want %q", got, ClassOK)
	}
	if len(res.Diffs) != 2 {
		t.Errorf("expected two note diffs, got %v", res.Diffs)
	}
}

func TestSeverityMinor(t *testing.T) {
	asset := &model.Asset{Tag: "1001", Condition: "Bom"}
	insp := cleanInspection()
	insp.MatchesCondition = false
	insp.ConditionObs = "Ruim"

	res := Reconcile(asset, insp)
	if got := Severity(res); got != SeverityMinor {
		t.Errorf("Severity() = %q, want %q", got, SeverityMinor)
	}
}

func TestSplitNotes(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"riscado", []string{"riscado"}},
		{"riscado; sem pé / RISCADO, tampo solto", []string{"riscado", "sem pé", "tampo solto"}},
		{" ; , / ", nil},
	}

	for _, tt := range tests {
		if got := SplitNotes(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitNotes(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEligible(t *testing.T) {
	campaign := &model.Campaign{Year: 2025}
	withBooks := &model.Campaign{Year: 2025, IncludeBooks: true}

	tests := []struct {
		name     string
		asset    model.Asset
		campaign *model.Campaign
		want     bool
	}{
		{"active asset", model.Asset{Status: "ativo"}, campaign, true},
		{"decommissioned", model.Asset{Status: "baixado"}, campaign, false},
		{"decommissioned uppercase", model.Asset{Status: " BAIXADO "}, campaign, false},
		{"book excluded", model.Asset{ExpenseCode: "4490.52.18"}, campaign, false},
		{"book included", model.Asset{ExpenseCode: "4490.52.18"}, withBooks, true},
		{"decommissioned book stays out", model.Asset{Status: "Baixado", ExpenseCode: "4490.52.18"}, withBooks, false},
		{"empty status", model.Asset{}, campaign, true},
	}

	for _, tt := range tests {
		if got := Eligible(&tt.asset, tt.campaign); got != tt.want {
			t.Errorf("%s: Eligible() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMovedRoom(t *testing.T) {
	asset := &model.Asset{Tag: "1001", Location: "SALA 10 (BLOCO A)"}

	moved := cleanInspection()
	moved.MatchesLocation = false
	moved.RoomObsName = "SALA 11"
	moved.RoomObsBuilding = "BLOCO A"
	if !MovedRoom(asset, moved) {
		t.Error("expected moved when observed room differs")
	}

	sameRoom := cleanInspection()
	sameRoom.MatchesLocation = false
	sameRoom.RoomObsName = "sala 10"
	sameRoom.RoomObsBuilding = "bloco a"
	if MovedRoom(asset, sameRoom) {
		t.Error("same room in different case is not a move")
	}

	noObs := cleanInspection()
	noObs.MatchesLocation = false
	if MovedRoom(asset, noObs) {
		t.Error("no observed room means no move")
	}

	if MovedRoom(asset, cleanInspection()) {
		t.Error("positive location flag means no move")
	}
}
