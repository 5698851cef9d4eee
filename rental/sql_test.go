package rental

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var rentalColumns = []string{
	"id", "cart_id", "guest_name", "guest_phone", "photos", "status",
	"waiver_agreed", "waiver_signed_at", "revenue_cents", "deposit_status",
	"stripe_payment_intent_id", "created_at", "completed_at",
}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func rentalRow(id, cartID uuid.UUID, status Status) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(rentalColumns).AddRow(
		id, cartID, "Sam", "+15550100", []byte(`["a","b","c","d"]`), status,
		true, now, nil, DepositPending, nil, now, nil,
	)
}

func TestGetNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(get)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(rentalColumns))

	_, err := repo.Get(context.Background(), id)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateRevenueOtherHostLooksMissing(t *testing.T) {
	repo, mock := newMockRepository(t)
	id, otherHost := uuid.New(), uuid.New()

	// The ownership subquery matches nothing, so no row comes back.
	mock.ExpectQuery(regexp.QuoteMeta(updateRevenue)).
		WithArgs(int64(4200), id, otherHost).
		WillReturnRows(sqlmock.NewRows(rentalColumns))

	_, err := repo.UpdateRevenue(context.Background(), id, otherHost, 4200)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCompleteAppendsPhotoAndFlipsStatus(t *testing.T) {
	repo, mock := newMockRepository(t)
	id, cartID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(getForUpdate)).
		WithArgs(id, cartID).
		WillReturnRows(rentalRow(id, cartID, StatusActive))
	mock.ExpectQuery(regexp.QuoteMeta(complete)).
		WithArgs([]byte(`["a","b","c","d","https://evidence.test/checkout.jpg"]`), id).
		WillReturnRows(sqlmock.NewRows(rentalColumns).AddRow(
			id, cartID, "Sam", "+15550100",
			[]byte(`["a","b","c","d","https://evidence.test/checkout.jpg"]`),
			StatusCompleted, true, time.Now(), nil, DepositPending, nil,
			time.Now(), time.Now(),
		))
	mock.ExpectCommit()

	rt, err := repo.Complete(context.Background(), id, cartID, "https://evidence.test/checkout.jpg")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if rt.Status != StatusCompleted {
		t.Errorf("status = %q, expected completed", rt.Status)
	}
	if got := rt.Photos[len(rt.Photos)-1]; got != "https://evidence.test/checkout.jpg" {
		t.Errorf("checkout photo not last: %q", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCompleteTwiceRejected(t *testing.T) {
	repo, mock := newMockRepository(t)
	id, cartID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(getForUpdate)).
		WithArgs(id, cartID).
		WillReturnRows(rentalRow(id, cartID, StatusCompleted))
	mock.ExpectRollback()

	_, err := repo.Complete(context.Background(), id, cartID, "https://evidence.test/checkout.jpg")
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCompleteWrongCartLooksMissing(t *testing.T) {
	repo, mock := newMockRepository(t)
	id, otherCart := uuid.New(), uuid.New()

	// The rental exists but on a different cart, so the keyed select matches
	// nothing and the photo is never appended.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(getForUpdate)).
		WithArgs(id, otherCart).
		WillReturnRows(sqlmock.NewRows(rentalColumns))
	mock.ExpectRollback()

	_, err := repo.Complete(context.Background(), id, otherCart, "https://evidence.test/checkout.jpg")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCountByCartSince(t *testing.T) {
	repo, mock := newMockRepository(t)
	cartID := uuid.New()
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(countByCartSince)).
		WithArgs(cartID, since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.CountByCartSince(context.Background(), cartID, &since)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 7 {
		t.Errorf("count = %d, expected 7", n)
	}

	mock.ExpectQuery(regexp.QuoteMeta(countByCart)).
		WithArgs(cartID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err = repo.CountByCartSince(context.Background(), cartID, nil)
	if err != nil {
		t.Fatalf("count without since: %v", err)
	}
	if n != 12 {
		t.Errorf("count = %d, expected 12", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreatedTodayUsesCallerDayBounds(t *testing.T) {
	repo, mock := newMockRepository(t)

	// Late evening in a zone well behind UTC: the day's bounds must come from
	// the caller's location, not from whatever timezone the session runs in.
	honolulu := time.FixedZone("HST", -10*60*60)
	day := time.Date(2026, 8, 30, 23, 30, 0, 0, honolulu)
	start := time.Date(2026, 8, 30, 0, 0, 0, 0, honolulu)

	mock.ExpectQuery(regexp.QuoteMeta(createdToday)).
		WithArgs(start, start.AddDate(0, 0, 1)).
		WillReturnRows(rentalRow(uuid.New(), uuid.New(), StatusActive))

	rentals, err := repo.CreatedToday(context.Background(), day)
	if err != nil {
		t.Fatalf("created today: %v", err)
	}
	if len(rentals) != 1 {
		t.Errorf("got %d rentals, expected 1", len(rentals))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
