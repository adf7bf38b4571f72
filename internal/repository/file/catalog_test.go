package file

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"busbooking/internal/domain"
)

const sampleCatalog = `legs:
  - id: m1
    bus_id: "13"
    origin: Uppuvellore
    destination: Takshashila University
    departure_time: "07:00 AM"
    price_per_seat: 10
    total_seats: 40
    booked_seats: [1, 2]
    stops: [Karattai, Chittoor Bus Stand]
  - bus_id: "13"
    origin: Takshashila University
    destination: Uppuvellore
    departure_time: "05:15 PM"
    price_per_seat: 10
    total_seats: 40
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestCatalogStore_Load(t *testing.T) {
	store := NewCatalogStore(writeCatalog(t, sampleCatalog))

	legs, err := store.LoadLegs(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(legs))
	}

	if legs[0].ID != "m1" || legs[0].AvailableSeats != 38 {
		t.Errorf("unexpected first leg %+v", legs[0])
	}
	if !reflect.DeepEqual(legs[0].IntermediateStops, []string{"Karattai", "Chittoor Bus Stand"}) {
		t.Errorf("unexpected stops %v", legs[0].IntermediateStops)
	}
	if legs[1].DepartureTime != domain.NewTimeOfDay(17, 15) {
		t.Errorf("expected 05:15 PM, got %s", legs[1].DepartureTime)
	}
	if legs[1].ID == "" {
		t.Error("expected an id for the leg without one")
	}

	again, err := store.LoadLegs(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again[1].ID != legs[1].ID {
		t.Errorf("generated id not stable: %s vs %s", legs[1].ID, again[1].ID)
	}
}

func TestCatalogStore_SaveRoundTrip(t *testing.T) {
	path := writeCatalog(t, sampleCatalog)
	store := NewCatalogStore(path)

	legs, err := store.LoadLegs(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	legs[0].BookedSeats = append(legs[0].BookedSeats, 9)
	legs = legs[:1]

	if err := store.SaveLegs(context.Background(), legs); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := store.LoadLegs(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded) != 1 || !reflect.DeepEqual(reloaded[0].BookedSeats, []domain.SeatID{1, 2, 9}) {
		t.Errorf("unexpected reloaded catalog %+v", reloaded)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected temp file cleaned up, found %d entries", len(entries))
	}
}

func TestCatalogStore_Errors(t *testing.T) {
	ctx := context.Background()

	if _, err := NewCatalogStore(filepath.Join(t.TempDir(), "missing.yaml")).LoadLegs(ctx); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := NewCatalogStore(writeCatalog(t, "legs: [")).LoadLegs(ctx); err == nil {
		t.Error("expected error for malformed file")
	}

	invalid := `legs:
  - bus_id: "13"
    origin: A
    destination: B
    departure_time: "07:00 AM"
    total_seats: 4
    booked_seats: [5]
`
	if _, err := NewCatalogStore(writeCatalog(t, invalid)).LoadLegs(ctx); err == nil {
		t.Error("expected error for booked seat outside the bus")
	}
}
