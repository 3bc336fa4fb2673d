package store

import (
	"context"
	"testing"

	"github.com/ifcecaucaia/einventario/internal/db"
	"github.com/ifcecaucaia/einventario/internal/model"
)

func TestUpsertRoomIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	r1, err := UpsertRoom(ctx, database, "SALA 10", "BLOCO A")
	if err != nil {
		t.Fatalf("UpsertRoom: %v", err)
	}
	r2, err := UpsertRoom(ctx, database, "SALA 10", "BLOCO A")
	if err != nil {
		t.Fatalf("second UpsertRoom: %v", err)
	}
	if r1.ID != r2.ID {
		t.Errorf("expected same room, got ids %d and %d", r1.ID, r2.ID)
	}

	// Same name in another building is a different room.
	r3, err := UpsertRoom(ctx, database, "SALA 10", "BLOCO B")
	if err != nil {
		t.Fatal(err)
	}
	if r3.ID == r1.ID {
		t.Error("rooms in different buildings must not collide")
	}

	rooms, err := ListRooms(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 2 {
		t.Errorf("expected 2 rooms, got %d", len(rooms))
	}
}

func TestSeedRoomsFromAssets(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seed := []model.Asset{
		{Tag: "1001", Description: "Mesa", Location: "SALA 10 (BLOCO A)"},
		{Tag: "1002", Description: "Cadeira", Location: "SALA 10 (BLOCO A)"},
		{Tag: "1003", Description: "Quadro", Location: "AUDITÓRIO"},
		{Tag: "1004", Description: "Bancada", Location: ""},
	}
	for i := range seed {
		if _, err := UpsertAsset(ctx, database, &seed[i]); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := SeedRoomsFromAssets(ctx, database); err != nil {
		t.Fatalf("SeedRoomsFromAssets: %v", err)
	}

	rooms, err := ListRooms(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 seeded rooms, got %+v", rooms)
	}
	if rooms[0].Name != "AUDITÓRIO" || rooms[0].Building != "" {
		t.Errorf("first room = %+v", rooms[0])
	}
	if rooms[1].Name != "SALA 10" || rooms[1].Building != "BLOCO A" {
		t.Errorf("second room = %+v", rooms[1])
	}
}
