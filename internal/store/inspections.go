package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ifcecaucaia/einventario/internal/model"
	"github.com/ifcecaucaia/einventario/internal/recon"
)

// ErrNotEligible is returned when an inspection targets an asset excluded
// from the campaign's scope.
var ErrNotEligible = errors.New("asset not eligible for this campaign")

const inspectionColumns = `i.id, i.campaign_id, i.asset_id, i.status,
	i.matches_description, i.matches_serial, i.matches_location,
	i.matches_condition, i.matches_responsible,
	i.description_obs, i.serial_obs, i.room_obs_name, i.room_obs_building,
	i.condition_obs, i.responsible_obs,
	i.tag_present, i.tag_condition, i.damage, i.notes, i.divergent,
	COALESCE(i.photo_mime, ''), i.created_by, i.updated_by, i.created_at, i.updated_at`

func scanInspection(row interface{ Scan(...any) error }, extra ...any) (*model.Inspection, error) {
	insp := &model.Inspection{}
	var descObs, serialObs, roomName, roomBuilding, condObs, respObs sql.NullString
	var tagCondition, damage, notes sql.NullString
	var createdBy, updatedBy sql.NullInt64
	dest := []any{
		&insp.ID, &insp.CampaignID, &insp.AssetID, &insp.Status,
		&insp.MatchesDescription, &insp.MatchesSerial, &insp.MatchesLocation,
		&insp.MatchesCondition, &insp.MatchesResponsible,
		&descObs, &serialObs, &roomName, &roomBuilding, &condObs, &respObs,
		&insp.TagPresent, &tagCondition, &damage, &notes, &insp.Divergent,
		&insp.PhotoMime, &createdBy, &updatedBy, &insp.CreatedAt, &insp.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	insp.DescriptionObs = descObs.String
	insp.SerialObs = serialObs.String
	insp.RoomObsName = roomName.String
	insp.RoomObsBuilding = roomBuilding.String
	insp.ConditionObs = condObs.String
	insp.ResponsibleObs = respObs.String
	insp.TagCondition = tagCondition.String
	insp.Damage = damage.String
	insp.Notes = notes.String
	if createdBy.Valid {
		id := createdBy.Int64
		insp.CreatedBy = &id
	}
	if updatedBy.Valid {
		id := updatedBy.Int64
		insp.UpdatedBy = &id
	}
	return insp, nil
}

// UpsertInspection records (or overwrites) the inspection outcome for one
// asset in one campaign. Eligibility is checked first; the derived divergent
// flag is recomputed on every write. The unique (campaign_id, asset_id)
// index guarantees concurrent submissions collapse to a single row, last
// write wins.
func UpsertInspection(ctx context.Context, db *sql.DB, campaign *model.Campaign, asset *model.Asset, insp *model.Inspection, userID int64) (*model.Inspection, error) {
	if !recon.Eligible(asset, campaign) {
		return nil, ErrNotEligible
	}
	if insp.Status != model.InspectionFound && insp.Status != model.InspectionNotFound {
		return nil, fmt.Errorf("invalid inspection status %q", insp.Status)
	}
	if !model.ValidTagCondition(insp.TagCondition) {
		return nil, fmt.Errorf("invalid tag condition %q", insp.TagCondition)
	}
	divergent := recon.Divergent(insp)

	_, err := db.ExecContext(ctx,
		`INSERT INTO inspections (campaign_id, asset_id, status,
			matches_description, matches_serial, matches_location,
			matches_condition, matches_responsible,
			description_obs, serial_obs, room_obs_name, room_obs_building,
			condition_obs, responsible_obs,
			tag_present, tag_condition, damage, notes, divergent,
			created_by, updated_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(campaign_id, asset_id) DO UPDATE SET
			status = excluded.status,
			matches_description = excluded.matches_description,
			matches_serial = excluded.matches_serial,
			matches_location = excluded.matches_location,
			matches_condition = excluded.matches_condition,
			matches_responsible = excluded.matches_responsible,
			description_obs = excluded.description_obs,
			serial_obs = excluded.serial_obs,
			room_obs_name = excluded.room_obs_name,
			room_obs_building = excluded.room_obs_building,
			condition_obs = excluded.condition_obs,
			responsible_obs = excluded.responsible_obs,
			tag_present = excluded.tag_present,
			tag_condition = excluded.tag_condition,
			damage = excluded.damage,
			notes = excluded.notes,
			divergent = excluded.divergent,
			updated_by = excluded.updated_by,
			updated_at = CURRENT_TIMESTAMP`,
		campaign.ID, asset.ID, insp.Status,
		insp.MatchesDescription, insp.MatchesSerial, insp.MatchesLocation,
		insp.MatchesCondition, insp.MatchesResponsible,
		nullStr(insp.DescriptionObs), nullStr(insp.SerialObs),
		nullStr(insp.RoomObsName), nullStr(insp.RoomObsBuilding),
		nullStr(insp.ConditionObs), nullStr(insp.ResponsibleObs),
		insp.TagPresent, nullStr(insp.TagCondition), nullStr(insp.Damage),
		nullStr(insp.Notes), divergent, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting inspection: %w", err)
	}
	return GetInspection(ctx, db, campaign.ID, asset.ID)
}

// GetInspection returns the inspection of one asset in one campaign.
func GetInspection(ctx context.Context, db *sql.DB, campaignID, assetID int64) (*model.Inspection, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+inspectionColumns+` FROM inspections i
		 WHERE i.campaign_id = ? AND i.asset_id = ?`, campaignID, assetID)
	insp, err := scanInspection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting inspection: %w", err)
	}
	return insp, nil
}

// DeleteInspection removes an inspection record.
func DeleteInspection(ctx context.Context, db *sql.DB, campaignID, assetID int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM inspections WHERE campaign_id = ? AND asset_id = ?`,
		campaignID, assetID)
	if err != nil {
		return fmt.Errorf("deleting inspection: %w", err)
	}
	return nil
}

// ListInspections returns all inspections of a campaign with asset context
// joined, ordered by asset tag.
func ListInspections(ctx context.Context, db *sql.DB, campaignID int64) ([]model.Inspection, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+inspectionColumns+`, a.tag, a.description, COALESCE(a.location, '')
		 FROM inspections i JOIN assets a ON a.id = i.asset_id
		 WHERE i.campaign_id = ? ORDER BY a.tag`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("listing inspections: %w", err)
	}
	defer rows.Close()

	var inspections []model.Inspection
	for rows.Next() {
		var tag, description, location string
		insp, err := scanInspection(rows, &tag, &description, &location)
		if err != nil {
			return nil, fmt.Errorf("scanning inspection: %w", err)
		}
		insp.AssetTag = tag
		insp.AssetDescription = description
		insp.AssetLocation = location
		inspections = append(inspections, *insp)
	}
	return inspections, rows.Err()
}

// InspectionMap returns a campaign's inspections keyed by asset ID, the shape
// the aggregator consumes.
func InspectionMap(ctx context.Context, db *sql.DB, campaignID int64) (map[int64]*model.Inspection, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+inspectionColumns+` FROM inspections i WHERE i.campaign_id = ?`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("loading inspections: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]*model.Inspection)
	for rows.Next() {
		insp, err := scanInspection(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning inspection: %w", err)
		}
		out[insp.AssetID] = insp
	}
	return out, rows.Err()
}

// SetInspectionPhoto stores the processed photo blob for an inspection.
func SetInspectionPhoto(ctx context.Context, db *sql.DB, id int64, photo []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE inspections SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		photo, mime, id)
	if err != nil {
		return fmt.Errorf("storing inspection photo: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("inspection %d not found", id)
	}
	return nil
}

// GetInspectionPhoto returns the stored photo and its MIME type, or nil when
// no photo was uploaded.
func GetInspectionPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM inspections WHERE id = ?`, id).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting inspection photo: %w", err)
	}
	return photo, mime.String, nil
}

// PhotoRef identifies one stored photo for the campaign archive.
type PhotoRef struct {
	Name  string
	Photo []byte
}

// ListInspectionPhotos returns every inspection photo of a campaign, named
// after the asset tag.
func ListInspectionPhotos(ctx context.Context, db *sql.DB, campaignID int64) ([]PhotoRef, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT a.tag, i.photo FROM inspections i JOIN assets a ON a.id = i.asset_id
		 WHERE i.campaign_id = ? AND i.photo IS NOT NULL ORDER BY a.tag`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("listing inspection photos: %w", err)
	}
	defer rows.Close()

	var refs []PhotoRef
	for rows.Next() {
		var ref PhotoRef
		if err := rows.Scan(&ref.Name, &ref.Photo); err != nil {
			return nil, fmt.Errorf("scanning photo: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
