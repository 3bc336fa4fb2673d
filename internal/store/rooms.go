package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ifcecaucaia/einventario/internal/model"
	"github.com/ifcecaucaia/einventario/internal/recon"
)

// UpsertRoom creates a room if the (name, building) pair is new and returns
// its row either way.
func UpsertRoom(ctx context.Context, db *sql.DB, name, building string) (*model.Room, error) {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO rooms (name, building) VALUES (?, ?)`,
		name, nullStr(building))
	if err != nil {
		return nil, fmt.Errorf("upserting room: %w", err)
	}

	r := &model.Room{}
	var b sql.NullString
	err = db.QueryRowContext(ctx,
		`SELECT id, name, building FROM rooms
		 WHERE name = ? AND COALESCE(building, '') = ?`,
		name, building).Scan(&r.ID, &r.Name, &b)
	if err != nil {
		return nil, fmt.Errorf("getting room: %w", err)
	}
	r.Building = b.String
	return r, nil
}

// ListRooms returns all rooms ordered by building then name.
func ListRooms(ctx context.Context, db *sql.DB) ([]model.Room, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, building FROM rooms
		 ORDER BY COALESCE(building, ''), name`)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer rows.Close()

	var rooms []model.Room
	for rows.Next() {
		var r model.Room
		var b sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &b); err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		r.Building = b.String
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

// SeedRoomsFromAssets derives the room catalog from the registry's location
// text, so inspectors can navigate imported buildings without manual setup.
// Returns the number of distinct locations processed.
func SeedRoomsFromAssets(ctx context.Context, db *sql.DB) (int, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT location FROM assets
		 WHERE location IS NOT NULL AND TRIM(location) != ''`)
	if err != nil {
		return 0, fmt.Errorf("reading asset locations: %w", err)
	}
	defer rows.Close()

	var locations []string
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return 0, fmt.Errorf("scanning location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, loc := range locations {
		name, building := recon.ParseLocation(loc)
		if name == "" {
			continue
		}
		if _, err := UpsertRoom(ctx, db, name, building); err != nil {
			return 0, err
		}
	}
	return len(locations), nil
}
