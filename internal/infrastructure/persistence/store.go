// Package persistence: репозитории поверх PostgreSQL (sqlx + lib/pq).
package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/repository/common"
)

// Store раздаёт репозитории на пуле соединений и открывает транзакции.
type Store struct {
	db *sqlx.DB
	repos
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, repos: repos{q: db}}
}

// WithinTx открывает транзакцию и передаёт в fn репозитории, привязанные к ней.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return common.WithTransaction(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(ctx, repos{q: tx})
	})
}

// repos работает и с *sqlx.DB, и с *sqlx.Tx.
type repos struct {
	q sqlx.ExtContext
}

func (r repos) Bookings() repository.BookingRepository         { return &BookingRepository{q: r.q} }
func (r repos) Quotes() repository.QuoteRepository             { return &QuoteRepository{q: r.q} }
func (r repos) Wallets() repository.WalletRepository           { return &WalletRepository{q: r.q} }
func (r repos) Transactions() repository.TransactionRepository { return &TransactionRepository{q: r.q} }
func (r repos) Withdrawals() repository.WithdrawalRepository   { return &WithdrawalRepository{q: r.q} }
func (r repos) BankAccounts() repository.BankAccountRepository { return &BankAccountRepository{q: r.q} }
func (r repos) Payments() repository.PaymentRepository         { return &PaymentRepository{q: r.q} }
