package store

import (
	"context"
	"errors"
	"testing"

	"github.com/ifcecaucaia/einventario/internal/db"
	"github.com/ifcecaucaia/einventario/internal/model"
)

func TestUpsertInspectionOverwrites(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	campaign, err := CreateCampaign(ctx, database, &model.Campaign{Year: 2025})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := UpsertAsset(ctx, database, &model.Asset{Tag: "1001", Description: "Mesa"}); err != nil {
		t.Fatal(err)
	}
	asset, err := GetAssetByTag(ctx, database, "1001")
	if err != nil {
		t.Fatal(err)
	}
	user1, err := CreateUser(ctx, database, "inspector1", "hash", model.RoleInspector)
	if err != nil {
		t.Fatal(err)
	}
	user2, err := CreateUser(ctx, database, "inspector2", "hash", model.RoleInspector)
	if err != nil {
		t.Fatal(err)
	}

	first := &model.Inspection{
		Status:             model.InspectionFound,
		MatchesDescription: true,
		MatchesSerial:      true,
		MatchesLocation:    false,
		MatchesCondition:   true,
		MatchesResponsible: true,
		RoomObsName:        "SALA 12",
		TagPresent:         true,
	}
	saved, err := UpsertInspection(ctx, database, campaign, asset, first, user1.ID)
	if err != nil {
		t.Fatalf("UpsertInspection: %v", err)
	}
	if !saved.Divergent {
		t.Error("location mismatch must persist as divergent")
	}

	// A concurrent inspector corrects the record: same (campaign, asset),
	// later write wins, still one row.
	second := &model.Inspection{
		Status:             model.InspectionFound,
		MatchesDescription: true,
		MatchesSerial:      true,
		MatchesLocation:    true,
		MatchesCondition:   true,
		MatchesResponsible: true,
		TagPresent:         true,
	}
	saved, err = UpsertInspection(ctx, database, campaign, asset, second, user2.ID)
	if err != nil {
		t.Fatalf("second UpsertInspection: %v", err)
	}
	if saved.Divergent {
		t.Error("divergent must be recomputed on overwrite")
	}
	if saved.UpdatedBy == nil || *saved.UpdatedBy != 2 {
		t.Errorf("updated_by = %v, want 2", saved.UpdatedBy)
	}

	all, err := ListInspections(ctx, database, campaign.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one inspection row, got %d", len(all))
	}
	if all[0].AssetTag != "1001" {
		t.Errorf("joined tag = %q", all[0].AssetTag)
	}
}

func TestUpsertInspectionRejectsIneligible(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	campaign, err := CreateCampaign(ctx, database, &model.Campaign{Year: 2025})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := UpsertAsset(ctx, database, &model.Asset{Tag: "1002", Description: "Arquivo", Status: "Baixado"}); err != nil {
		t.Fatal(err)
	}
	asset, _ := GetAssetByTag(ctx, database, "1002")

	insp := &model.Inspection{Status: model.InspectionFound, TagPresent: true,
		MatchesDescription: true, MatchesSerial: true, MatchesLocation: true,
		MatchesCondition: true, MatchesResponsible: true}
	if _, err := UpsertInspection(ctx, database, campaign, asset, insp, 1); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}

	if got, _ := GetInspection(ctx, database, campaign.ID, asset.ID); got != nil {
		t.Error("rejected inspection must not be stored")
	}
}

func TestInspectionPhoto(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	campaign, _ := CreateCampaign(ctx, database, &model.Campaign{Year: 2025})
	UpsertAsset(ctx, database, &model.Asset{Tag: "1001", Description: "Mesa"})
	asset, _ := GetAssetByTag(ctx, database, "1001")
	user, err := CreateUser(ctx, database, "inspector1", "hash", model.RoleInspector)
	if err != nil {
		t.Fatal(err)
	}
	insp := &model.Inspection{Status: model.InspectionFound, TagPresent: true,
		MatchesDescription: true, MatchesSerial: true, MatchesLocation: true,
		MatchesCondition: true, MatchesResponsible: true}
	saved, err := UpsertInspection(ctx, database, campaign, asset, insp, user.ID)
	if err != nil {
		t.Fatal(err)
	}

	photo := []byte{0xff, 0xd8, 0xff, 0xe0}
	if err := SetInspectionPhoto(ctx, database, saved.ID, photo, "image/jpeg"); err != nil {
		t.Fatalf("SetInspectionPhoto: %v", err)
	}

	got, mime, err := GetInspectionPhoto(ctx, database, saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if mime != "image/jpeg" || len(got) != len(photo) {
		t.Errorf("photo round trip: mime=%q len=%d", mime, len(got))
	}

	refs, err := ListInspectionPhotos(ctx, database, campaign.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0].Name != "1001" {
		t.Errorf("photo refs = %+v", refs)
	}
}

func TestInspectionMapAndDelete(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	campaign, _ := CreateCampaign(ctx, database, &model.Campaign{Year: 2025})
	UpsertAsset(ctx, database, &model.Asset{Tag: "1001", Description: "Mesa"})
	asset, _ := GetAssetByTag(ctx, database, "1001")
	user, err := CreateUser(ctx, database, "inspector1", "hash", model.RoleInspector)
	if err != nil {
		t.Fatal(err)
	}
	insp := &model.Inspection{Status: model.InspectionNotFound, TagPresent: true,
		MatchesDescription: true, MatchesSerial: true, MatchesLocation: true,
		MatchesCondition: true, MatchesResponsible: true}
	if _, err := UpsertInspection(ctx, database, campaign, asset, insp, user.ID); err != nil {
		t.Fatal(err)
	}

	m, err := InspectionMap(ctx, database, campaign.ID)
	if err != nil {
		t.Fatal(err)
	}
	if m[asset.ID] == nil || m[asset.ID].Status != model.InspectionNotFound {
		t.Errorf("map = %+v", m)
	}

	if err := DeleteInspection(ctx, database, campaign.ID, asset.ID); err != nil {
		t.Fatal(err)
	}
	if got, _ := GetInspection(ctx, database, campaign.ID, asset.ID); got != nil {
		t.Error("expected inspection gone after delete")
	}
}
