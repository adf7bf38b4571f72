package postgres

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"busbooking/internal/domain"
	"busbooking/internal/repository"
)

var legColumns = []string{"id", "bus_id", "origin", "destination", "departure_minute", "price_per_seat", "total_seats", "booked_seats", "stops", "image_ref"}

func TestCatalogRepository_LoadLegs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM route_legs ORDER BY position").
		WillReturnRows(sqlmock.NewRows(legColumns).
			AddRow("leg-1", "13", "Karattai", "Takshashila University", 430, 5, 40, "{3,7}", "{Chittoor}", nil).
			AddRow("leg-2", "14", "Uppuvellore", "Takshashila University", 425, 10, 4, "{}", "{}", "bus14.png"))

	legs, err := NewCatalogRepository(db).LoadLegs(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(legs))
	}

	first := legs[0]
	if first.DepartureTime != domain.NewTimeOfDay(7, 10) {
		t.Errorf("expected 07:10 AM, got %s", first.DepartureTime)
	}
	if !reflect.DeepEqual(first.BookedSeats, []domain.SeatID{3, 7}) || first.AvailableSeats != 38 {
		t.Errorf("unexpected seats %v / %d", first.BookedSeats, first.AvailableSeats)
	}
	if !reflect.DeepEqual(first.IntermediateStops, []string{"Chittoor"}) || first.ImageRef != "" {
		t.Errorf("unexpected stops/image %v %q", first.IntermediateStops, first.ImageRef)
	}
	if legs[1].BookedSeats != nil || legs[1].IntermediateStops != nil || legs[1].ImageRef != "bus14.png" {
		t.Errorf("unexpected second leg %+v", legs[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCatalogRepository_SaveLegs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	legs := []domain.RouteLeg{
		{ID: "leg-1", BusID: "13", Origin: "A", Destination: "B", DepartureTime: 430, PricePerSeat: 5, TotalSeats: 40, BookedSeats: []domain.SeatID{3}},
		{ID: "leg-2", BusID: "14", Origin: "C", Destination: "B", DepartureTime: 425, PricePerSeat: 10, TotalSeats: 4},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM route_legs").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO route_legs").
		WithArgs("leg-1", "13", "A", "B", 430, 5, 40, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO route_legs").
		WithArgs("leg-2", "14", "C", "B", 425, 10, 4, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := NewCatalogRepository(db).SaveLegs(context.Background(), legs); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCatalogRepository_SaveLegsRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM route_legs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO route_legs").WillReturnError(errors.New("check constraint violated"))
	mock.ExpectRollback()

	err = NewCatalogRepository(db).SaveLegs(context.Background(), []domain.RouteLeg{
		{ID: "leg-1", BusID: "13", Origin: "A", Destination: "B", TotalSeats: 40},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	record := &domain.BookingRecord{
		ID:              "BK-1",
		Leg:             domain.RouteLeg{ID: "leg-1", BusID: "13", Origin: "A", Destination: "B", TotalSeats: 40},
		Seats:           []domain.SeatID{3, 7},
		PassengerName:   "Asha",
		RiderCategory:   domain.RiderCategoryStudent,
		RiderIdentifier: "21BCE0001",
		BoardingPoint:   "A",
		TotalPrice:      10,
		CreatedAt:       time.Now(),
	}

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs("BK-1", "leg-1", sqlmock.AnyArg(), sqlmock.AnyArg(), "Asha", "student", "21BCE0001", "A",
			sqlmock.AnyArg(), sqlmock.AnyArg(), 10, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&pq.Error{Code: uniqueViolation})

	repo := NewBookingRepository(db)
	if err := repo.Create(context.Background(), record); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(context.Background(), record); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	created := time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)
	columns := []string{"id", "leg", "seats", "passenger_name", "rider_category", "rider_identifier", "boarding_point", "phone", "email", "total_price", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs("BK-1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"BK-1",
			[]byte(`{"id":"leg-1","bus_id":"13","origin":"A","destination":"B","departure_time":"07:10 AM","price_per_seat":5,"total_seats":40,"available_seats":38}`),
			"{3,7}", "Asha", "staff", "EMP-9", "A", nil, "asha@example.com", 10, created,
		))
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs("BK-404").
		WillReturnRows(sqlmock.NewRows(columns))

	repo := NewBookingRepository(db)
	record, err := repo.GetByID(context.Background(), "BK-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Leg.ID != "leg-1" || record.Leg.DepartureTime != domain.NewTimeOfDay(7, 10) {
		t.Errorf("unexpected leg %+v", record.Leg)
	}
	if !reflect.DeepEqual(record.Seats, []domain.SeatID{3, 7}) || record.RiderCategory != domain.RiderCategoryStaff {
		t.Errorf("unexpected record %+v", record)
	}
	if record.Phone != "" || record.Email != "asha@example.com" || !record.CreatedAt.Equal(created) {
		t.Errorf("unexpected contact fields %+v", record)
	}

	if _, err := repo.GetByID(context.Background(), "BK-404"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingRepository_ListReservedSeats(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT leg_id, seats FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"leg_id", "seats"}).
			AddRow("leg-1", "{1,2}").
			AddRow("leg-2", "{9}").
			AddRow("leg-1", "{5}"))

	reserved, err := NewBookingRepository(db).ListReservedSeats(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := map[string][]domain.SeatID{"leg-1": {1, 2, 5}, "leg-2": {9}}
	if !reflect.DeepEqual(reserved, want) {
		t.Errorf("expected %v, got %v", want, reserved)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
