package persistence_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ignatzorin/freight-backend/internal/db"
	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/infrastructure/payment"
	"github.com/ignatzorin/freight-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/freight-backend/internal/logger"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
	"github.com/ignatzorin/freight-backend/internal/pkg/keylock"
	"github.com/ignatzorin/freight-backend/internal/usecase/ledger"
	"github.com/ignatzorin/freight-backend/internal/usecase/quote"
)

// StoreIntegrationTestSuite гоняет адаптеры на настоящем PostgreSQL в контейнере.
type StoreIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *sqlx.DB
	store     *persistence.Store
}

func (s *StoreIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()
	logger.Discard()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("freight"),
		postgres.WithUsername("freight"),
		postgres.WithPassword("freight"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2)),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	conn, err := db.NewPostgres(ctx, dsn, db.DefaultPoolConfig())
	s.Require().NoError(err)
	s.db = conn
	s.Require().NoError(db.RunMigrations(ctx, conn, "../../../migrations"))
	// Повторный запуск ничего не делает.
	s.Require().NoError(db.RunMigrations(ctx, conn, "../../../migrations"))

	s.store = persistence.NewStore(conn)
}

func (s *StoreIntegrationTestSuite) SetupTest() {
	_, err := s.db.Exec(`TRUNCATE TABLE payments, withdrawal_requests, bank_accounts, transactions, wallets, quotes, bookings`)
	s.Require().NoError(err)
}

func (s *StoreIntegrationTestSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

func (s *StoreIntegrationTestSuite) newBooking(shipperID uuid.UUID) *entity.Booking {
	b, err := entity.NewBooking(shipperID,
		json.RawMessage(`{"description":"steel coils","weight_kg":20000}`),
		json.RawMessage(`{"address":"Rotterdam"}`),
		json.RawMessage(`{"address":"Duisburg"}`))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Bookings().Create(context.Background(), b))
	return b
}

func (s *StoreIntegrationTestSuite) TestBooking_RoundTripAndCompareAndSwap() {
	ctx := context.Background()
	b := s.newBooking(uuid.New())

	stored, err := s.store.Bookings().FindByID(ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(valueobject.BookingStatusPendingQuote, stored.Status)
	s.Nil(stored.CarrierID)
	s.JSONEq(string(b.Cargo), string(stored.Cargo))

	s.Require().NoError(stored.Match(uuid.New(), 250_000))
	swapped, err := s.store.Bookings().CompareAndSwap(ctx, stored, valueobject.BookingStatusPendingQuote, valueobject.BookingStatusQuoted)
	s.Require().NoError(err)
	s.True(swapped)

	// Второй CAS с тем же ожиданием уже не проходит.
	swapped, err = s.store.Bookings().CompareAndSwap(ctx, stored, valueobject.BookingStatusPendingQuote)
	s.Require().NoError(err)
	s.False(swapped)

	booked, err := s.store.Bookings().FindByID(ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(valueobject.BookingStatusBooked, booked.Status)
	s.Require().NotNil(booked.AgreedPrice)
	s.Equal(valueobject.Money(250_000), *booked.AgreedPrice)

	paid := false
	list, err := s.store.Bookings().List(ctx, repository.BookingFilter{
		Statuses: []valueobject.BookingStatus{valueobject.BookingStatusBooked},
		Paid:     &paid,
		Limit:    10,
	})
	s.Require().NoError(err)
	s.Len(list, 1)

	_, err = s.store.Bookings().FindByID(ctx, uuid.New())
	s.True(apperror.IsNotFound(err))
}

func (s *StoreIntegrationTestSuite) TestWallet_TransactionRollsBackOnDuplicate() {
	ctx := context.Background()
	owner := uuid.New()
	ref := uuid.New()

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		w, err := repos.Wallets().GetOrCreateForUpdate(ctx, owner)
		if err != nil {
			return err
		}
		return ledger.Post(ctx, repos, w, entity.NewTransaction(w.ID, valueobject.TransactionTypeEarningPending, 1_000, ref))
	})
	s.Require().NoError(err)

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		w, err := repos.Wallets().GetOrCreateForUpdate(ctx, owner)
		if err != nil {
			return err
		}
		return ledger.Post(ctx, repos, w, entity.NewTransaction(w.ID, valueobject.TransactionTypeEarningPending, 1_000, ref))
	})
	s.True(apperror.IsDuplicate(err))

	w, err := s.store.Wallets().FindByOwner(ctx, owner)
	s.Require().NoError(err)
	s.Equal(valueobject.Money(1_000), w.Pending)

	txs, err := s.store.Transactions().ListAllByWallet(ctx, w.ID)
	s.Require().NoError(err)
	s.Len(txs, 1)
}

func (s *StoreIntegrationTestSuite) TestWallet_NegativeBalanceRejectedByDatabase() {
	ctx := context.Background()
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		w, err := repos.Wallets().GetOrCreateForUpdate(ctx, uuid.New())
		if err != nil {
			return err
		}
		w.Available = -1
		return repos.Wallets().UpdateBalances(ctx, w)
	})
	s.True(apperror.Is(err, apperror.ErrCodeDatabaseError))
}

func (s *StoreIntegrationTestSuite) TestQuote_SecondAcceptedRejectedByIndex() {
	ctx := context.Background()
	b := s.newBooking(uuid.New())

	first, err := entity.NewQuote(b.ID, uuid.New(), 100_000, "")
	s.Require().NoError(err)
	second, err := entity.NewQuote(b.ID, uuid.New(), 90_000, "tail lift")
	s.Require().NoError(err)
	s.Require().NoError(s.store.Quotes().Create(ctx, first))
	s.Require().NoError(s.store.Quotes().Create(ctx, second))

	s.Require().NoError(first.Accept())
	s.Require().NoError(s.store.Quotes().Update(ctx, first))
	s.Require().NoError(second.Accept())
	s.True(apperror.IsDuplicate(s.store.Quotes().Update(ctx, second)))

	shipperQuotes, err := s.store.Quotes().List(ctx, repository.QuoteFilter{ShipperID: &b.ShipperID})
	s.Require().NoError(err)
	s.Len(shipperQuotes, 2)

	count, err := s.store.Quotes().CountByBooking(ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *StoreIntegrationTestSuite) TestAcceptQuote_ConcurrentOnPostgres() {
	ctx := context.Background()
	b := s.newBooking(uuid.New())
	submit := quote.NewSubmitQuoteUseCase(s.store, nil)
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		q, err := submit.Execute(ctx, quote.SubmitQuoteInput{
			BookingID: b.ID,
			Actor:     valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleCarrier},
			Amount:    int64(100_000 + i),
		})
		s.Require().NoError(err)
		ids = append(ids, q.ID)
	}

	accept := quote.NewAcceptQuoteUseCase(s.store.Quotes(), s.store.Bookings(), s.store, keylock.NewLocalLocker(), nil)
	admin := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleAdmin}

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			if _, err := accept.Execute(ctx, id, admin); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()
	s.Equal(1, winners)

	accepted := valueobject.QuoteStatusAccepted
	list, err := s.store.Quotes().List(ctx, repository.QuoteFilter{BookingID: &b.ID, Status: &accepted})
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *StoreIntegrationTestSuite) TestPaymentAndRelease_EndToEnd() {
	ctx := context.Background()
	locker := keylock.NewLocalLocker()
	shipper := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleShipper}
	carrierID := uuid.New()

	b := s.newBooking(shipper.ID)
	s.Require().NoError(b.Match(carrierID, 1_000_000))
	swapped, err := s.store.Bookings().CompareAndSwap(ctx, b, valueobject.BookingStatusPendingQuote)
	s.Require().NoError(err)
	s.Require().True(swapped)

	pay := ledger.NewProcessPaymentUseCase(s.store, locker, payment.NewSandboxGateway("decline-"), nil)
	input := ledger.ProcessPaymentInput{BookingID: b.ID, Method: "card", Reference: "ch_pg", Actor: shipper}
	result, err := pay.Execute(ctx, input)
	s.Require().NoError(err)
	s.Equal(valueobject.Money(150_000), result.Settlement.PlatformFee)

	again, err := pay.Execute(ctx, input)
	s.Require().NoError(err)
	s.True(again.AlreadySettled)
	s.Require().NotNil(again.Payment)
	s.Equal("ch_pg", again.Payment.Reference)

	admin := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleAdmin}
	current, err := s.store.Bookings().FindByID(ctx, b.ID)
	s.Require().NoError(err)
	for _, status := range []valueobject.BookingStatus{
		valueobject.BookingStatusInTransit, valueobject.BookingStatusDelivered, valueobject.BookingStatusCompleted,
	} {
		prior := current.Status
		s.Require().NoError(current.Transition(status, admin))
		swapped, err := s.store.Bookings().CompareAndSwap(ctx, current, prior)
		s.Require().NoError(err)
		s.Require().True(swapped)
	}

	release := ledger.NewReleaseEscrowUseCase(s.store, locker, nil)
	_, err = release.Execute(ctx, b.ID)
	s.Require().NoError(err)
	second, err := release.Execute(ctx, b.ID)
	s.Require().NoError(err)
	s.True(second.AlreadyReleased)

	w, err := s.store.Wallets().FindByOwner(ctx, carrierID)
	s.Require().NoError(err)
	s.Equal(entity.Balances{Available: 1_000_000}, w.Balances)

	report, err := ledger.NewReconcileUseCase(s.store).Execute(ctx)
	s.Require().NoError(err)
	s.True(report.Consistent())
	s.Equal(2, report.Wallets)
}

func TestStoreIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration: требуется Docker")
	}
	suite.Run(t, new(StoreIntegrationTestSuite))
}
