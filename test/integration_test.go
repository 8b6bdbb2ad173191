//go:build integration

package test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gamestore-labs/gamestore/internal/accounts"
	"github.com/gamestore-labs/gamestore/internal/cart"
	"github.com/gamestore-labs/gamestore/internal/domain"
	"github.com/gamestore-labs/gamestore/internal/messaging"
	"github.com/gamestore-labs/gamestore/internal/orders"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckoutFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	userID := SeedUser(t, db, "alice", "alice@example.com", "customer")
	gameA := SeedGame(t, db, "Hollow Depths", decimal.RequireFromString("10.00"), 5)
	gameB := SeedGame(t, db, "Starlane", decimal.RequireFromString("59.99"), 3)

	carts := cart.NewCartRepository(db)
	engine := orders.NewEngine(db, orders.NewOrderRepository(db), carts, nil, discardLogger())

	if _, err := carts.Add(ctx, userID, gameA, 2); err != nil {
		t.Fatalf("failed to add game A to cart: %v", err)
	}
	if _, err := carts.Add(ctx, userID, gameB, 1); err != nil {
		t.Fatalf("failed to add game B to cart: %v", err)
	}

	order, err := engine.Checkout(ctx, userID)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	wantTotal := decimal.RequireFromString("79.99")
	if !order.TotalPrice.Equal(wantTotal) {
		t.Fatalf("expected total %s, got %s", wantTotal, order.TotalPrice)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected status %s, got %s", domain.OrderStatusPending, order.Status)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(order.Items))
	}

	if got := StockOf(t, db, gameA); got != 3 {
		t.Fatalf("expected game A stock 3, got %d", got)
	}
	if got := StockOf(t, db, gameB); got != 2 {
		t.Fatalf("expected game B stock 2, got %d", got)
	}

	remaining, err := carts.Items(ctx, userID)
	if err != nil {
		t.Fatalf("failed to read cart: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected cart to be emptied, got %d lines", len(remaining))
	}

	fetched, err := engine.GetOrder(ctx, order.ID, userID, false)
	if err != nil {
		t.Fatalf("failed to fetch order back: %v", err)
	}
	if !fetched.TotalPrice.Equal(order.TotalPrice) {
		t.Fatalf("fetched total %s does not match created total %s", fetched.TotalPrice, order.TotalPrice)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	userID := SeedUser(t, db, "bob", "bob@example.com", "customer")

	carts := cart.NewCartRepository(db)
	engine := orders.NewEngine(db, orders.NewOrderRepository(db), carts, nil, discardLogger())

	if _, err := engine.Checkout(ctx, userID); !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	userID := SeedUser(t, db, "carol", "carol@example.com", "customer")
	gameA := SeedGame(t, db, "Plenty", decimal.RequireFromString("10.00"), 100)
	gameB := SeedGame(t, db, "Scarce", decimal.RequireFromString("20.00"), 1)

	carts := cart.NewCartRepository(db)
	engine := orders.NewEngine(db, orders.NewOrderRepository(db), carts, nil, discardLogger())

	_, err := engine.CreateOrder(ctx, userID, []domain.OrderLine{
		{GameID: gameA, Quantity: 5},
		{GameID: gameB, Quantity: 5},
	})

	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.GameID != gameB || stockErr.Requested != 5 || stockErr.Available != 1 {
		t.Fatalf("unexpected error details: %+v", stockErr)
	}

	// The first line's decrement must have been rolled back with the rest.
	if got := StockOf(t, db, gameA); got != 100 {
		t.Fatalf("expected game A stock restored to 100, got %d", got)
	}
	if got := StockOf(t, db, gameB); got != 1 {
		t.Fatalf("expected game B stock unchanged at 1, got %d", got)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no orders persisted, got %d", count)
	}
}

func TestCreateOrderUnknownGame(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	userID := SeedUser(t, db, "dave", "dave@example.com", "customer")

	engine := orders.NewEngine(db, orders.NewOrderRepository(db), cart.NewCartRepository(db), nil, discardLogger())

	_, err := engine.CreateOrder(ctx, userID, []domain.OrderLine{{GameID: 424242, Quantity: 1}})

	var notFound *domain.GameNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected GameNotFoundError, got %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no orders persisted, got %d", count)
	}
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	userID := SeedUser(t, db, "eve", "eve@example.com", "customer")
	gameID := SeedGame(t, db, "Limited Run", decimal.RequireFromString("30.00"), 5)

	engine := orders.NewEngine(db, orders.NewOrderRepository(db), cart.NewCartRepository(db), nil, discardLogger())

	const attempts = 10
	errs := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.CreateOrder(ctx, userID, []domain.OrderLine{{GameID: gameID, Quantity: 1}})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, rejected int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			var stockErr *domain.InsufficientStockError
			if !errors.As(err, &stockErr) {
				t.Fatalf("unexpected error: %v", err)
			}
			rejected++
		}
	}

	if succeeded != 5 || rejected != 5 {
		t.Fatalf("expected 5 successes and 5 rejections, got %d/%d", succeeded, rejected)
	}
	if got := StockOf(t, db, gameID); got != 0 {
		t.Fatalf("expected final stock 0, got %d", got)
	}
}

func TestPaymentFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	userID := SeedUser(t, db, "frank", "frank@example.com", "customer")
	gameID := SeedGame(t, db, "Paid In Full", decimal.RequireFromString("25.50"), 10)

	engine := orders.NewEngine(db, orders.NewOrderRepository(db), cart.NewCartRepository(db), nil, discardLogger())
	recorder := orders.NewPaymentRecorder(db, nil, discardLogger())

	order, err := engine.CreateOrder(ctx, userID, []domain.OrderLine{{GameID: gameID, Quantity: 2}})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	payment, err := recorder.RecordPayment(ctx, order.ID, order.TotalPrice, "credit_card", userID, false)
	if err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	if payment.PaymentStatus != domain.PaymentStatusSuccess {
		t.Fatalf("expected payment status %s, got %s", domain.PaymentStatusSuccess, payment.PaymentStatus)
	}
	if payment.TransactionID == "" {
		t.Fatal("expected a transaction id")
	}

	paid, err := engine.GetOrder(ctx, order.ID, userID, false)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if paid.Status != domain.OrderStatusPaid {
		t.Fatalf("expected order status %s, got %s", domain.OrderStatusPaid, paid.Status)
	}

	_, err = recorder.RecordPayment(ctx, order.ID, order.TotalPrice, "credit_card", userID, false)
	if !errors.Is(err, domain.ErrOrderAlreadyPaid) {
		t.Fatalf("expected ErrOrderAlreadyPaid on second payment, got %v", err)
	}
}

func TestPaymentAmountMismatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	userID := SeedUser(t, db, "grace", "grace@example.com", "customer")
	gameID := SeedGame(t, db, "Exact Change", decimal.RequireFromString("19.99"), 10)

	engine := orders.NewEngine(db, orders.NewOrderRepository(db), cart.NewCartRepository(db), nil, discardLogger())
	recorder := orders.NewPaymentRecorder(db, nil, discardLogger())

	order, err := engine.CreateOrder(ctx, userID, []domain.OrderLine{{GameID: gameID, Quantity: 1}})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	_, err = recorder.RecordPayment(ctx, order.ID, decimal.RequireFromString("5.00"), "credit_card", userID, false)

	var mismatch *domain.AmountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected AmountMismatchError, got %v", err)
	}
	if !mismatch.Expected.Equal(order.TotalPrice) {
		t.Fatalf("expected mismatch to report %s, got %s", order.TotalPrice, mismatch.Expected)
	}

	// A rejected payment changes nothing.
	after, err := engine.GetOrder(ctx, order.ID, userID, false)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if after.Status != domain.OrderStatusPending {
		t.Fatalf("expected order still pending, got %s", after.Status)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM payments`).Scan(&count); err != nil {
		t.Fatalf("failed to count payments: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no payment rows, got %d", count)
	}
}

func TestOrderOwnership(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	owner := SeedUser(t, db, "heidi", "heidi@example.com", "customer")
	other := SeedUser(t, db, "ivan", "ivan@example.com", "customer")
	admin := SeedUser(t, db, "judy", "judy@example.com", "admin")
	gameID := SeedGame(t, db, "Private Stash", decimal.RequireFromString("10.00"), 10)

	engine := orders.NewEngine(db, orders.NewOrderRepository(db), cart.NewCartRepository(db), nil, discardLogger())

	order, err := engine.CreateOrder(ctx, owner, []domain.OrderLine{{GameID: gameID, Quantity: 1}})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	if _, err := engine.GetOrder(ctx, order.ID, other, false); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another customer, got %v", err)
	}
	if _, err := engine.GetOrder(ctx, order.ID, admin, true); err != nil {
		t.Fatalf("expected admin access, got %v", err)
	}
	if _, err := engine.GetOrder(ctx, "00000000-0000-0000-0000-000000000000", owner, false); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestFirstUserBecomesAdmin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	repo := accounts.NewUserRepository(db)
	policy := accounts.FirstUserAdminPolicy{}

	first, err := repo.Create(ctx, "first", "first@example.com", "hash", policy)
	if err != nil {
		t.Fatalf("failed to create first user: %v", err)
	}
	if first.Role != domain.RoleAdmin {
		t.Fatalf("expected first user role %s, got %s", domain.RoleAdmin, first.Role)
	}

	second, err := repo.Create(ctx, "second", "second@example.com", "hash", policy)
	if err != nil {
		t.Fatalf("failed to create second user: %v", err)
	}
	if second.Role != domain.RoleCustomer {
		t.Fatalf("expected second user role %s, got %s", domain.RoleCustomer, second.Role)
	}
}

func TestConcurrentSignupsOneAdmin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	repo := accounts.NewUserRepository(db)
	policy := accounts.FirstUserAdminPolicy{}

	const signups = 8
	var wg sync.WaitGroup
	errs := make(chan error, signups)

	for i := 0; i < signups; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			name := string(rune('a' + n))
			_, err := repo.Create(ctx, "user-"+name, "user-"+name+"@example.com", "hash", policy)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("signup failed: %v", err)
		}
	}

	var admins int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE role = 'admin'`).Scan(&admins); err != nil {
		t.Fatalf("failed to count admins: %v", err)
	}
	if admins != 1 {
		t.Fatalf("expected exactly 1 admin, got %d", admins)
	}
}

func TestDuplicateAccount(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	repo := accounts.NewUserRepository(db)
	policy := accounts.StaticRolePolicy{Role: domain.RoleCustomer}

	if _, err := repo.Create(ctx, "kim", "kim@example.com", "hash", policy); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	_, err := repo.Create(ctx, "kim2", "kim@example.com", "hash", policy)
	var dup *domain.DuplicateAccountError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateAccountError for reused email, got %v", err)
	}
	if dup.Field != "email" {
		t.Fatalf("expected duplicate field email, got %s", dup.Field)
	}

	_, err = repo.Create(ctx, "kim", "other@example.com", "hash", policy)
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateAccountError for reused username, got %v", err)
	}
	if dup.Field != "username" {
		t.Fatalf("expected duplicate field username, got %s", dup.Field)
	}
}

func TestOrderEventsRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	producer := messaging.NewProducer(brokers, domain.TopicOrderPlaced)
	defer func() { _ = producer.Close() }()

	event := domain.OrderPlacedEvent{
		OrderID:    "order-1",
		UserID:     7,
		TotalPrice: decimal.RequireFromString("42.00"),
		Timestamp:  time.Now().UTC(),
	}
	if err := producer.Publish(ctx, event.OrderID, event); err != nil {
		t.Fatalf("failed to publish event: %v", err)
	}

	consumer := messaging.NewConsumer(brokers, domain.TopicOrderPlaced, "test-group")
	defer func() { _ = consumer.Close() }()

	consumeCtx, stop := context.WithTimeout(ctx, 60*time.Second)
	defer stop()

	received := make(chan domain.OrderPlacedEvent, 1)
	err := consumer.Consume(consumeCtx, func(_ context.Context, payload []byte) error {
		var got domain.OrderPlacedEvent
		if err := json.Unmarshal(payload, &got); err != nil {
			return err
		}
		received <- got
		stop()
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("consumer failed: %v", err)
	}

	select {
	case got := <-received:
		if got.OrderID != event.OrderID {
			t.Fatalf("expected order id %s, got %s", event.OrderID, got.OrderID)
		}
		if !got.TotalPrice.Equal(event.TotalPrice) {
			t.Fatalf("expected total %s, got %s", event.TotalPrice, got.TotalPrice)
		}
	default:
		t.Fatal("no event received before timeout")
	}
}
