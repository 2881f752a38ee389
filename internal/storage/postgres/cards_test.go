package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"

	domainErrors "github.com/polkiloo/cardshop/internal/domain/errors"
	"github.com/polkiloo/cardshop/internal/domain/model"
)

var cardCols = []string{"id", "product_id", "code", "used", "order_id", "used_at", "created_at"}

func TestCardRepositoryClaim(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &cardRepository{storage: storage}

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("UPDATE cards SET used=TRUE").WithArgs("p1", "o1", now).WillReturnRows(
		pgxmockv3.NewRows(cardCols).AddRow("c1", "p1", "CODE-1", true, strPtr("o1"), &now, now))
	card, err := repo.Claim(context.Background(), "p1", "o1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !card.Used || card.OrderID == nil || *card.OrderID != "o1" || card.Code != "CODE-1" {
		t.Fatalf("unexpected card: %+v", card)
	}

	mock.ExpectQuery("UPDATE cards SET used=TRUE").WithArgs("p1", "o2", now).WillReturnError(pgx.ErrNoRows)
	if _, err := repo.Claim(context.Background(), "p1", "o2", now); !errors.Is(err, domainErrors.ErrOutOfStock) {
		t.Fatalf("expected out of stock, got %v", err)
	}

	mock.ExpectQuery("UPDATE cards SET used=TRUE").WithArgs("p1", "o3", now).WillReturnError(errors.New("claim"))
	if _, err := repo.Claim(context.Background(), "p1", "o3", now); err == nil || errors.Is(err, domainErrors.ErrOutOfStock) {
		t.Fatalf("expected raw error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestCardRepositoryRelease(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &cardRepository{storage: storage}

	orderID := strPtr("o1")

	mock.ExpectExec("UPDATE cards SET used=FALSE").WithArgs("c1", orderID).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if ok, err := repo.Release(context.Background(), "c1", orderID); err != nil || !ok {
		t.Fatalf("expected release, got ok=%v err=%v", ok, err)
	}

	mock.ExpectExec("UPDATE cards SET used=FALSE").WithArgs("c1", orderID).WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	if ok, err := repo.Release(context.Background(), "c1", orderID); err != nil || ok {
		t.Fatalf("expected idempotent no-op, got ok=%v err=%v", ok, err)
	}

	var orphan *string
	mock.ExpectExec("UPDATE cards SET used=FALSE").WithArgs("c2", orphan).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if ok, err := repo.Release(context.Background(), "c2", nil); err != nil || !ok {
		t.Fatalf("expected orphan release, got ok=%v err=%v", ok, err)
	}

	mock.ExpectExec("UPDATE cards SET used=FALSE").WithArgs("c3", orderID).WillReturnError(errors.New("exec"))
	if _, err := repo.Release(context.Background(), "c3", orderID); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestCardRepositoryQueries(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &cardRepository{storage: storage}

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM cards WHERE id=").WithArgs("c1").WillReturnRows(
		pgxmockv3.NewRows(cardCols).AddRow("c1", "p1", "CODE-1", false, nil, nil, now))
	card, err := repo.GetByID(context.Background(), "c1")
	if err != nil || card.Used || card.OrderID != nil {
		t.Fatalf("unexpected card: %+v err=%v", card, err)
	}

	mock.ExpectQuery("FROM cards WHERE id=").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("FROM cards WHERE order_id=").WithArgs("o1").WillReturnRows(
		pgxmockv3.NewRows(cardCols).AddRow("c1", "p1", "CODE-1", true, strPtr("o1"), &now, now))
	cards, err := repo.ListByOrder(context.Background(), "o1")
	if err != nil || len(cards) != 1 {
		t.Fatalf("unexpected cards: %+v err=%v", cards, err)
	}

	mock.ExpectQuery("SELECT COUNT").WithArgs("p1").WillReturnRows(pgxmockv3.NewRows([]string{"count"}).AddRow(int64(4)))
	if n, err := repo.CountUnused(context.Background(), "p1"); err != nil || n != 4 {
		t.Fatalf("unexpected unused count: %d err=%v", n, err)
	}

	mock.ExpectQuery("SELECT COUNT").WithArgs("p1").WillReturnError(errors.New("count"))
	if _, err := repo.CountUnused(context.Background(), "p1"); err == nil {
		t.Fatal("expected error")
	}

	mock.ExpectQuery("WHERE used=TRUE AND order_id IS NULL").WillReturnRows(
		pgxmockv3.NewRows(cardCols).AddRow("c9", "p1", "CODE-9", true, nil, &now, now))
	orphans, err := repo.ListOrphaned(context.Background())
	if err != nil || len(orphans) != 1 || orphans[0].ID != "c9" {
		t.Fatalf("unexpected orphans: %+v err=%v", orphans, err)
	}

	mock.ExpectQuery("FROM cards c JOIN orders o").WithArgs(model.OrderStatusExpired).WillReturnRows(
		pgxmockv3.NewRows(cardCols).AddRow("c5", "p1", "CODE-5", true, strPtr("o5"), &now, now))
	bound, err := repo.ListBoundToExpired(context.Background())
	if err != nil || len(bound) != 1 || *bound[0].OrderID != "o5" {
		t.Fatalf("unexpected bound cards: %+v err=%v", bound, err)
	}

	mock.ExpectQuery("FROM cards c JOIN orders o").WithArgs(model.OrderStatusExpired).WillReturnError(errors.New("join"))
	if _, err := repo.ListBoundToExpired(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	mock.ExpectQuery("COUNT.*FILTER").WillReturnRows(pgxmockv3.NewRows([]string{"total", "used"}).AddRow(int64(10), int64(3)))
	total, used, err := repo.Counts(context.Background())
	if err != nil || total != 10 || used != 3 {
		t.Fatalf("unexpected counts: %d/%d err=%v", total, used, err)
	}

	mock.ExpectQuery("COUNT.*FILTER").WillReturnError(errors.New("counts"))
	if _, _, err := repo.Counts(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestCardRepositoryListMultiplyBound(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &cardRepository{storage: storage}

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	later := now.Add(time.Minute)
	cols := append(append([]string{}, cardCols...), "status")

	mock.ExpectQuery("GROUP BY order_id HAVING").WillReturnRows(pgxmockv3.NewRows(cols).
		AddRow("c1", "p1", "A", true, strPtr("o1"), &now, now, model.OrderStatusDelivered).
		AddRow("c2", "p1", "B", true, strPtr("o1"), &now, later, model.OrderStatusDelivered).
		AddRow("c3", "p2", "C", true, strPtr("o2"), &now, now, model.OrderStatusPaid).
		AddRow("c4", "p2", "D", true, strPtr("o2"), &now, later, model.OrderStatusPaid))

	groups, err := repo.ListMultiplyBound(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected two groups, got %+v", groups)
	}
	if groups[0].OrderID != "o1" || len(groups[0].Cards) != 2 || groups[0].Status != model.OrderStatusDelivered {
		t.Fatalf("unexpected first group: %+v", groups[0])
	}
	if groups[1].OrderID != "o2" || groups[1].Cards[0].ID != "c3" || groups[1].Status != model.OrderStatusPaid {
		t.Fatalf("unexpected second group: %+v", groups[1])
	}

	mock.ExpectQuery("GROUP BY order_id HAVING").WillReturnError(errors.New("query"))
	if _, err := repo.ListMultiplyBound(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
