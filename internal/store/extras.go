package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ifcecaucaia/einventario/internal/model"
)

const extraColumns = `id, campaign_id, description, room_obs_name, room_obs_building,
	serial_obs, condition_obs, responsible_obs, tag_present, tag_condition,
	notes, COALESCE(photo_mime, ''), created_by, created_at`

func scanExtra(row interface{ Scan(...any) error }) (*model.Extra, error) {
	e := &model.Extra{}
	var building, serial, condition, responsible, tagCondition, notes sql.NullString
	var createdBy sql.NullInt64
	err := row.Scan(&e.ID, &e.CampaignID, &e.Description, &e.RoomObsName, &building,
		&serial, &condition, &responsible, &e.TagPresent, &tagCondition,
		&notes, &e.PhotoMime, &createdBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.RoomObsBuilding = building.String
	e.SerialObs = serial.String
	e.ConditionObs = condition.String
	e.ResponsibleObs = responsible.String
	e.TagCondition = tagCondition.String
	e.Notes = notes.String
	if createdBy.Valid {
		id := createdBy.Int64
		e.CreatedBy = &id
	}
	return e, nil
}

// CreateExtra records an unregistered item found during a campaign.
func CreateExtra(ctx context.Context, db *sql.DB, e *model.Extra, userID int64) (*model.Extra, error) {
	if !model.ValidTagCondition(e.TagCondition) {
		return nil, fmt.Errorf("invalid tag condition %q", e.TagCondition)
	}
	result, err := db.ExecContext(ctx,
		`INSERT INTO extras (campaign_id, description, room_obs_name, room_obs_building,
			serial_obs, condition_obs, responsible_obs, tag_present, tag_condition,
			notes, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.CampaignID, e.Description, e.RoomObsName, nullStr(e.RoomObsBuilding),
		nullStr(e.SerialObs), nullStr(e.ConditionObs), nullStr(e.ResponsibleObs),
		e.TagPresent, nullStr(e.TagCondition), nullStr(e.Notes), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating extra: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting extra id: %w", err)
	}
	return GetExtra(ctx, db, id)
}

// GetExtra returns one unregistered item by ID.
func GetExtra(ctx context.Context, db *sql.DB, id int64) (*model.Extra, error) {
	row := db.QueryRowContext(ctx, `SELECT `+extraColumns+` FROM extras WHERE id = ?`, id)
	e, err := scanExtra(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting extra: %w", err)
	}
	return e, nil
}

// ListExtras returns a campaign's unregistered items, newest first.
func ListExtras(ctx context.Context, db *sql.DB, campaignID int64) ([]model.Extra, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+extraColumns+` FROM extras WHERE campaign_id = ? ORDER BY id DESC`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("listing extras: %w", err)
	}
	defer rows.Close()

	var extras []model.Extra
	for rows.Next() {
		e, err := scanExtra(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning extra: %w", err)
		}
		extras = append(extras, *e)
	}
	return extras, rows.Err()
}

// SetExtraPhoto stores the processed photo blob for an unregistered item.
func SetExtraPhoto(ctx context.Context, db *sql.DB, id int64, photo []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE extras SET photo = ?, photo_mime = ? WHERE id = ?`, photo, mime, id)
	if err != nil {
		return fmt.Errorf("storing extra photo: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("extra %d not found", id)
	}
	return nil
}

// GetExtraPhoto returns the stored photo and its MIME type.
func GetExtraPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM extras WHERE id = ?`, id).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting extra photo: %w", err)
	}
	return photo, mime.String, nil
}

// ListExtraPhotos returns every extra photo of a campaign, named after the
// extra's ID.
func ListExtraPhotos(ctx context.Context, db *sql.DB, campaignID int64) ([]PhotoRef, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, photo FROM extras
		 WHERE campaign_id = ? AND photo IS NOT NULL ORDER BY id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("listing extra photos: %w", err)
	}
	defer rows.Close()

	var refs []PhotoRef
	for rows.Next() {
		var id int64
		var photo []byte
		if err := rows.Scan(&id, &photo); err != nil {
			return nil, fmt.Errorf("scanning photo: %w", err)
		}
		refs = append(refs, PhotoRef{Name: fmt.Sprintf("%d", id), Photo: photo})
	}
	return refs, rows.Err()
}
