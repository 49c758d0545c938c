package quote_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
	"github.com/ignatzorin/freight-backend/internal/pkg/keylock"
	"github.com/ignatzorin/freight-backend/internal/usecase/quote"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events map[uuid.UUID][]string
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(map[uuid.UUID][]string)}
}

func (p *recordingPublisher) Publish(userID uuid.UUID, name string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[userID] = append(p.events[userID], name)
}

func (p *recordingPublisher) For(userID uuid.UUID) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[userID]
}

// staleBookings отдаёт заранее сохранённую копию заявки, как будто её прочитали до чужого коммита.
type staleBookings struct {
	repository.BookingRepository
	stale *entity.Booking
}

func (s *staleBookings) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	copied := *s.stale
	return &copied, nil
}

func newBooking(t *testing.T, store *memory.Store, shipperID uuid.UUID) *entity.Booking {
	t.Helper()
	b, err := entity.NewBooking(shipperID,
		json.RawMessage(`{"description":"steel coils"}`),
		json.RawMessage(`{"city":"Chelyabinsk"}`),
		json.RawMessage(`{"city":"Perm"}`))
	require.NoError(t, err)
	require.NoError(t, store.Bookings().Create(context.Background(), b))
	return b
}

func carrier() valueobject.Actor { return valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleCarrier} }
func admin() valueobject.Actor   { return valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleAdmin} }

func submitQuotes(t *testing.T, store *memory.Store, bookingID uuid.UUID, amounts ...int64) []*entity.Quote {
	t.Helper()
	uc := quote.NewSubmitQuoteUseCase(store, nil)
	quotes := make([]*entity.Quote, 0, len(amounts))
	for _, amount := range amounts {
		q, err := uc.Execute(context.Background(), quote.SubmitQuoteInput{BookingID: bookingID, Actor: carrier(), Amount: amount})
		require.NoError(t, err)
		quotes = append(quotes, q)
	}
	return quotes
}

func TestSubmitQuoteUseCase_FirstQuoteMovesBookingToQuoted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	shipperID := uuid.New()
	b := newBooking(t, store, shipperID)
	publisher := newRecordingPublisher()
	uc := quote.NewSubmitQuoteUseCase(store, publisher)

	q, err := uc.Execute(ctx, quote.SubmitQuoteInput{BookingID: b.ID, Actor: carrier(), Amount: 95_000, Notes: "тент 20т"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.QuoteStatusPending, q.Status)

	stored, err := store.Bookings().FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.BookingStatusQuoted, stored.Status)

	_, err = uc.Execute(ctx, quote.SubmitQuoteInput{BookingID: b.ID, Actor: carrier(), Amount: 99_000})
	require.NoError(t, err)

	count, err := store.Quotes().CountByBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"quote.submitted", "quote.submitted"}, publisher.For(shipperID))
}

func TestSubmitQuoteUseCase_Errors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	b := newBooking(t, store, uuid.New())
	uc := quote.NewSubmitQuoteUseCase(store, nil)

	_, err := uc.Execute(ctx, quote.SubmitQuoteInput{BookingID: b.ID, Actor: admin(), Amount: 100})
	assert.True(t, apperror.Is(err, apperror.ErrCodeUnauthorized))

	_, err = uc.Execute(ctx, quote.SubmitQuoteInput{BookingID: b.ID, Actor: carrier(), Amount: 0})
	assert.True(t, apperror.IsValidation(err))

	_, err = uc.Execute(ctx, quote.SubmitQuoteInput{BookingID: b.ID, Actor: carrier(), Amount: 7_000_000_000_000_000})
	assert.True(t, apperror.IsValidation(err))

	_, err = uc.Execute(ctx, quote.SubmitQuoteInput{BookingID: uuid.New(), Actor: carrier(), Amount: 100})
	assert.True(t, apperror.IsNotFound(err))

	quotes := submitQuotes(t, store, b.ID, 100)
	_, err = quote.NewAcceptQuoteUseCase(store.Quotes(), store.Bookings(), store, keylock.NewLocalLocker(), nil).Execute(ctx, quotes[0].ID, admin())
	require.NoError(t, err)

	_, err = uc.Execute(ctx, quote.SubmitQuoteInput{BookingID: b.ID, Actor: carrier(), Amount: 100})
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidState))
}

func TestAcceptQuoteUseCase_Exclusivity(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	shipperID := uuid.New()
	b := newBooking(t, store, shipperID)
	quotes := submitQuotes(t, store, b.ID, 120_000, 100_000, 110_000, 105_000)
	publisher := newRecordingPublisher()

	uc := quote.NewAcceptQuoteUseCase(store.Quotes(), store.Bookings(), store, keylock.NewLocalLocker(), publisher)
	result, err := uc.Execute(ctx, quotes[1].ID, admin())
	require.NoError(t, err)
	assert.Len(t, result.Rejected, 3)

	stored, err := store.Bookings().FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.BookingStatusBooked, stored.Status)
	require.NotNil(t, stored.CarrierID)
	assert.Equal(t, quotes[1].CarrierID, *stored.CarrierID)
	assert.Equal(t, valueobject.Money(100_000), stored.Price())

	all, err := store.Quotes().List(ctx, repository.QuoteFilter{BookingID: &b.ID})
	require.NoError(t, err)
	accepted, rejected := 0, 0
	for _, q := range all {
		switch q.Status {
		case valueobject.QuoteStatusAccepted:
			accepted++
			assert.Equal(t, quotes[1].ID, q.ID)
		case valueobject.QuoteStatusRejected:
			rejected++
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 3, rejected)

	assert.Contains(t, publisher.For(quotes[1].CarrierID), "quote.accepted")
	assert.Contains(t, publisher.For(quotes[0].CarrierID), "quote.rejected")
	assert.Contains(t, publisher.For(shipperID), "booking.status_changed")
}

func TestAcceptQuoteUseCase_AlreadyMatched(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	b := newBooking(t, store, uuid.New())
	quotes := submitQuotes(t, store, b.ID, 100_000, 90_000)
	uc := quote.NewAcceptQuoteUseCase(store.Quotes(), store.Bookings(), store, keylock.NewLocalLocker(), nil)

	_, err := uc.Execute(ctx, quotes[0].ID, admin())
	require.NoError(t, err)

	_, err = uc.Execute(ctx, quotes[1].ID, admin())
	assert.True(t, apperror.Is(err, apperror.ErrCodeAlreadyMatched))
}

func TestAcceptQuoteUseCase_OnlyAdmin(t *testing.T) {
	store := memory.NewStore()
	b := newBooking(t, store, uuid.New())
	quotes := submitQuotes(t, store, b.ID, 100)

	uc := quote.NewAcceptQuoteUseCase(store.Quotes(), store.Bookings(), store, keylock.NewLocalLocker(), nil)
	_, err := uc.Execute(context.Background(), quotes[0].ID, carrier())
	assert.True(t, apperror.Is(err, apperror.ErrCodeUnauthorized))

	_, err = uc.Execute(context.Background(), uuid.New(), admin())
	assert.True(t, apperror.IsNotFound(err))
}

func TestAcceptQuoteUseCase_StaleReadReturnsConflict(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	b := newBooking(t, store, uuid.New())
	quotes := submitQuotes(t, store, b.ID, 100_000, 90_000)

	stale, err := store.Bookings().FindByID(ctx, b.ID)
	require.NoError(t, err)

	_, err = quote.NewAcceptQuoteUseCase(store.Quotes(), store.Bookings(), store, keylock.NewLocalLocker(), nil).Execute(ctx, quotes[0].ID, admin())
	require.NoError(t, err)

	// Второй администратор прочитал заявку до коммита первого.
	loser := quote.NewAcceptQuoteUseCase(store.Quotes(), &staleBookings{BookingRepository: store.Bookings(), stale: stale}, store, keylock.NewLocalLocker(), nil)
	_, err = loser.Execute(ctx, quotes[1].ID, admin())
	assert.True(t, apperror.IsConflict(err))

	stored, err := store.Bookings().FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, quotes[0].CarrierID, *stored.CarrierID)
}

func TestAcceptQuoteUseCase_ConcurrentAcceptsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	b := newBooking(t, store, uuid.New())
	quotes := submitQuotes(t, store, b.ID, 100_000, 101_000, 102_000, 103_000, 104_000, 105_000, 106_000, 107_000)
	uc := quote.NewAcceptQuoteUseCase(store.Quotes(), store.Bookings(), store, keylock.NewLocalLocker(), nil)

	var wg sync.WaitGroup
	errs := make([]error, len(quotes))
	for i, q := range quotes {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = uc.Execute(ctx, id, admin())
		}(i, q.ID)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		code := apperror.CodeOf(err)
		assert.Contains(t, []apperror.ErrorCode{apperror.ErrCodeConflict, apperror.ErrCodeAlreadyMatched}, code)
	}
	assert.Equal(t, 1, winners)

	accepted := valueobject.QuoteStatusAccepted
	list, err := store.Quotes().List(ctx, repository.QuoteFilter{BookingID: &b.ID, Status: &accepted})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListQuotesUseCase_Visibility(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	shipperID := uuid.New()
	own := newBooking(t, store, shipperID)
	other := newBooking(t, store, uuid.New())

	c := carrier()
	submit := quote.NewSubmitQuoteUseCase(store, nil)
	_, err := submit.Execute(ctx, quote.SubmitQuoteInput{BookingID: own.ID, Actor: c, Amount: 500})
	require.NoError(t, err)
	_, err = submit.Execute(ctx, quote.SubmitQuoteInput{BookingID: other.ID, Actor: c, Amount: 600})
	require.NoError(t, err)
	submitQuotes(t, store, own.ID, 700)

	uc := quote.NewListQuotesUseCase(store.Quotes())

	list, err := uc.Execute(ctx, quote.ListQuotesInput{Actor: c})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = uc.Execute(ctx, quote.ListQuotesInput{Actor: valueobject.Actor{ID: shipperID, Role: valueobject.RoleShipper}})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = uc.Execute(ctx, quote.ListQuotesInput{Actor: admin(), BookingID: &other.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = uc.Execute(ctx, quote.ListQuotesInput{Actor: admin(), Status: "maybe"})
	assert.True(t, apperror.IsValidation(err))
}
