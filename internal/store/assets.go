package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ifcecaucaia/einventario/internal/model"
)

const assetColumns = `id, tag, status, expense_code, account, description, responsible,
	sector, serial, location, condition, supplier, invoice, entered_at,
	acquisition_value, depreciated_value, created_at, updated_at`

func scanAsset(row interface{ Scan(...any) error }) (*model.Asset, error) {
	a := &model.Asset{}
	var status, expenseCode, account, responsible, sector, serial sql.NullString
	var location, condition, supplier, invoice sql.NullString
	var enteredAt sql.NullTime
	var acquisition, depreciated sql.NullString
	err := row.Scan(&a.ID, &a.Tag, &status, &expenseCode, &account, &a.Description,
		&responsible, &sector, &serial, &location, &condition, &supplier, &invoice,
		&enteredAt, &acquisition, &depreciated, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = status.String
	a.ExpenseCode = expenseCode.String
	a.Account = account.String
	a.Responsible = responsible.String
	a.Sector = sector.String
	a.Serial = serial.String
	a.Location = location.String
	a.Condition = condition.String
	a.Supplier = supplier.String
	a.Invoice = invoice.String
	if enteredAt.Valid {
		t := enteredAt.Time
		a.EnteredAt = &t
	}
	if acquisition.Valid && acquisition.String != "" {
		if v, err := decimal.NewFromString(acquisition.String); err == nil {
			a.AcquisitionValue = v
		}
	}
	if depreciated.Valid && depreciated.String != "" {
		if v, err := decimal.NewFromString(depreciated.String); err == nil {
			a.DepreciatedValue = v
		}
	}
	return a, nil
}

func nullStr(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// UpsertAsset creates or updates an asset keyed by its tag and reports
// whether a new row was created. Import runs feed every registry row
// through here.
func UpsertAsset(ctx context.Context, db *sql.DB, a *model.Asset) (created bool, err error) {
	var existing int64
	err = db.QueryRowContext(ctx, `SELECT id FROM assets WHERE tag = ?`, a.Tag).Scan(&existing)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("checking asset %q: %w", a.Tag, err)
	}
	created = err == sql.ErrNoRows

	_, err = db.ExecContext(ctx,
		`INSERT INTO assets (tag, status, expense_code, account, description, responsible,
			sector, serial, location, condition, supplier, invoice, entered_at,
			acquisition_value, depreciated_value)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(tag) DO UPDATE SET
			status = excluded.status,
			expense_code = excluded.expense_code,
			account = excluded.account,
			description = excluded.description,
			responsible = excluded.responsible,
			sector = excluded.sector,
			serial = excluded.serial,
			location = excluded.location,
			condition = excluded.condition,
			supplier = excluded.supplier,
			invoice = excluded.invoice,
			entered_at = excluded.entered_at,
			acquisition_value = excluded.acquisition_value,
			depreciated_value = excluded.depreciated_value,
			updated_at = CURRENT_TIMESTAMP`,
		a.Tag, nullStr(a.Status), nullStr(a.ExpenseCode), nullStr(a.Account),
		a.Description, nullStr(a.Responsible), nullStr(a.Sector), nullStr(a.Serial),
		nullStr(a.Location), nullStr(a.Condition), nullStr(a.Supplier),
		nullStr(a.Invoice), nullTime(a.EnteredAt),
		a.AcquisitionValue.String(), a.DepreciatedValue.String(),
	)
	if err != nil {
		return false, fmt.Errorf("upserting asset %q: %w", a.Tag, err)
	}
	return created, nil
}

// GetAsset returns an asset by ID.
func GetAsset(ctx context.Context, db *sql.DB, id int64) (*model.Asset, error) {
	row := db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	return a, nil
}

// GetAssetByTag returns an asset by its tag.
func GetAssetByTag(ctx context.Context, db *sql.DB, tag string) (*model.Asset, error) {
	row := db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE tag = ?`, tag)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset by tag: %w", err)
	}
	return a, nil
}

// AssetFilter narrows ListAssets. Building matches the trailing parenthesis
// group of the location; Query matches tag, description or serial.
type AssetFilter struct {
	Status   string
	Building string
	Query    string
	Limit    int
}

// ListAssets returns assets ordered by tag, optionally filtered.
func ListAssets(ctx context.Context, db *sql.DB, f AssetFilter) ([]model.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets`
	var conds []string
	var args []any
	if f.Status != "" {
		conds = append(conds, `LOWER(TRIM(status)) = LOWER(TRIM(?))`)
		args = append(args, f.Status)
	}
	if f.Building != "" {
		conds = append(conds, `location LIKE ?`)
		args = append(args, "%("+f.Building+")")
	}
	if f.Query != "" {
		conds = append(conds, `(tag LIKE ? OR description LIKE ? OR serial LIKE ?)`)
		q := "%" + f.Query + "%"
		args = append(args, q, q, q)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY tag`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}

// EligibleAssets returns the assets in scope for a campaign, applying the
// decommissioned and books exclusions in SQL so callers never see the rest.
func EligibleAssets(ctx context.Context, db *sql.DB, campaign *model.Campaign) ([]model.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets
		WHERE (status IS NULL OR LOWER(TRIM(status)) != ?)`
	args := []any{model.StatusDecommissioned}
	if !campaign.IncludeBooks {
		query += ` AND (expense_code IS NULL OR TRIM(expense_code) != ?)`
		args = append(args, model.ExpenseCodeBooks)
	}
	query += ` ORDER BY tag`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing eligible assets: %w", err)
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}
