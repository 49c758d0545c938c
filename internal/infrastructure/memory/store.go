// Package memory: хранилище в памяти процесса (STORAGE_DRIVER=memory и тесты).
// Транзакции сериализуются общим мьютексом и откатываются восстановлением снимка.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
)

type table[T any] struct {
	rows  map[uuid.UUID]T
	order []uuid.UUID
}

func newTable[T any]() table[T] {
	return table[T]{rows: make(map[uuid.UUID]T)}
}

func (t *table[T]) put(id uuid.UUID, row T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *table[T]) get(id uuid.UUID) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

// all возвращает строки в порядке вставки.
func (t *table[T]) all() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *table[T]) clone() table[T] {
	rows := make(map[uuid.UUID]T, len(t.rows))
	for id, row := range t.rows {
		rows[id] = row
	}
	return table[T]{rows: rows, order: append([]uuid.UUID(nil), t.order...)}
}

type state struct {
	bookings     table[entity.Booking]
	quotes       table[entity.Quote]
	wallets      table[entity.Wallet]
	transactions []entity.Transaction
	withdrawals  table[entity.WithdrawalRequest]
	bankAccounts table[entity.BankAccount]
	payments     table[entity.Payment]
}

func newState() *state {
	return &state{
		bookings:     newTable[entity.Booking](),
		quotes:       newTable[entity.Quote](),
		wallets:      newTable[entity.Wallet](),
		withdrawals:  newTable[entity.WithdrawalRequest](),
		bankAccounts: newTable[entity.BankAccount](),
		payments:     newTable[entity.Payment](),
	}
}

func (s *state) clone() state {
	return state{
		bookings:     s.bookings.clone(),
		quotes:       s.quotes.clone(),
		wallets:      s.wallets.clone(),
		transactions: append([]entity.Transaction(nil), s.transactions...),
		withdrawals:  s.withdrawals.clone(),
		bankAccounts: s.bankAccounts.clone(),
		payments:     s.payments.clone(),
	}
}

// Store реализует repository.Store.
type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) repos(mu *sync.Mutex) *repos {
	return &repos{st: s.st, mu: mu}
}

func (s *Store) Bookings() repository.BookingRepository         { return s.repos(&s.mu).Bookings() }
func (s *Store) Quotes() repository.QuoteRepository             { return s.repos(&s.mu).Quotes() }
func (s *Store) Wallets() repository.WalletRepository           { return s.repos(&s.mu).Wallets() }
func (s *Store) Transactions() repository.TransactionRepository { return s.repos(&s.mu).Transactions() }
func (s *Store) Withdrawals() repository.WithdrawalRepository   { return s.repos(&s.mu).Withdrawals() }
func (s *Store) BankAccounts() repository.BankAccountRepository { return s.repos(&s.mu).BankAccounts() }
func (s *Store) Payments() repository.PaymentRepository         { return s.repos(&s.mu).Payments() }

// WithinTx держит мьютекс хранилища на всё время fn. Репозитории внутри fn
// работают без собственной блокировки, поэтому вызывать методы Store из fn нельзя.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(ctx, s.repos(nil)); err != nil {
		*s.st = snapshot
		return err
	}
	return nil
}

// repos: набор репозиториев над общим состоянием. mu == nil внутри транзакции.
type repos struct {
	st *state
	mu *sync.Mutex
}

func (r *repos) lock() func() {
	if r.mu == nil {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *repos) Bookings() repository.BookingRepository         { return &bookingRepo{r} }
func (r *repos) Quotes() repository.QuoteRepository             { return &quoteRepo{r} }
func (r *repos) Wallets() repository.WalletRepository           { return &walletRepo{r} }
func (r *repos) Transactions() repository.TransactionRepository { return &transactionRepo{r} }
func (r *repos) Withdrawals() repository.WithdrawalRepository   { return &withdrawalRepo{r} }
func (r *repos) BankAccounts() repository.BankAccountRepository { return &bankAccountRepo{r} }
func (r *repos) Payments() repository.PaymentRepository         { return &paymentRepo{r} }

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func reversed[T any](items []T) []T {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items
}
