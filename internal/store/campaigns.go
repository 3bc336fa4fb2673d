package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ifcecaucaia/einventario/internal/model"
)

const campaignColumns = `id, year, active, include_books, starts_on, ends_on,
	created_by, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	c := &model.Campaign{}
	var startsOn, endsOn sql.NullTime
	var createdBy sql.NullInt64
	err := row.Scan(&c.ID, &c.Year, &c.Active, &c.IncludeBooks, &startsOn, &endsOn,
		&createdBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if startsOn.Valid {
		t := startsOn.Time
		c.StartsOn = &t
	}
	if endsOn.Valid {
		t := endsOn.Time
		c.EndsOn = &t
	}
	if createdBy.Valid {
		id := createdBy.Int64
		c.CreatedBy = &id
	}
	return c, nil
}

// CreateCampaign creates a campaign for a year. Campaigns start inactive;
// activation is a separate explicit step.
func CreateCampaign(ctx context.Context, db *sql.DB, c *model.Campaign) (*model.Campaign, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO campaigns (year, include_books, starts_on, ends_on, created_by)
		 VALUES (?, ?, ?, ?, ?)`,
		c.Year, c.IncludeBooks, nullTime(c.StartsOn), nullTime(c.EndsOn), c.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating campaign: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting campaign id: %w", err)
	}
	return GetCampaign(ctx, db, id)
}

// GetCampaign returns a campaign by ID.
func GetCampaign(ctx context.Context, db *sql.DB, id int64) (*model.Campaign, error) {
	row := db.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id)
	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting campaign: %w", err)
	}
	return c, nil
}

// GetActiveCampaign returns the single active campaign, or nil when none is
// active.
func GetActiveCampaign(ctx context.Context, db *sql.DB) (*model.Campaign, error) {
	row := db.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE active = 1`)
	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting active campaign: %w", err)
	}
	return c, nil
}

// ListCampaigns returns all campaigns, newest year first.
func ListCampaigns(ctx context.Context, db *sql.DB) ([]model.Campaign, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns ORDER BY year DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning campaign: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

// ActivateCampaign makes one campaign the active one. Deactivation and
// activation happen in a single transaction; the partial unique index on
// campaigns(active) backstops the invariant against concurrent activations.
func ActivateCampaign(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting activation: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE campaigns SET active = 0, updated_at = CURRENT_TIMESTAMP WHERE active = 1`); err != nil {
		return fmt.Errorf("deactivating campaigns: %w", err)
	}
	result, err := tx.ExecContext(ctx,
		`UPDATE campaigns SET active = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("activating campaign: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking activation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("campaign %d not found", id)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing activation: %w", err)
	}
	return nil
}
