package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

type withdrawalRepo struct{ *repos }

func (r *withdrawalRepo) Create(ctx context.Context, request *entity.WithdrawalRequest) error {
	defer r.lock()()
	r.st.withdrawals.put(request.ID, *request)
	return nil
}

func (r *withdrawalRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.WithdrawalRequest, error) {
	defer r.lock()()
	row, ok := r.st.withdrawals.get(id)
	if !ok {
		return nil, apperror.ErrWithdrawalNotFound
	}
	return &row, nil
}

func (r *withdrawalRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.WithdrawalRequest, error) {
	return r.FindByID(ctx, id)
}

func (r *withdrawalRepo) Resolve(ctx context.Context, request *entity.WithdrawalRequest) (bool, error) {
	defer r.lock()()
	current, ok := r.st.withdrawals.get(request.ID)
	if !ok {
		return false, apperror.ErrWithdrawalNotFound
	}
	if current.Status != valueobject.WithdrawalStatusPending {
		return false, nil
	}
	r.st.withdrawals.put(request.ID, *request)
	return true, nil
}

func (r *withdrawalRepo) List(ctx context.Context, filter repository.WithdrawalFilter) ([]*entity.WithdrawalRequest, error) {
	defer r.lock()()
	var out []*entity.WithdrawalRequest
	for _, row := range reversed(r.st.withdrawals.all()) {
		if filter.WalletID != nil && row.WalletID != *filter.WalletID {
			continue
		}
		if filter.Status != nil && row.Status != *filter.Status {
			continue
		}
		w := row
		out = append(out, &w)
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}

type bankAccountRepo struct{ *repos }

func (r *bankAccountRepo) Create(ctx context.Context, account *entity.BankAccount) error {
	defer r.lock()()
	r.st.bankAccounts.put(account.ID, *account)
	return nil
}

func (r *bankAccountRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.BankAccount, error) {
	defer r.lock()()
	row, ok := r.st.bankAccounts.get(id)
	if !ok {
		return nil, apperror.ErrBankAccountNotFound
	}
	return &row, nil
}

func (r *bankAccountRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.BankAccount, error) {
	defer r.lock()()
	var out []*entity.BankAccount
	for _, row := range r.st.bankAccounts.all() {
		if row.OwnerID == ownerID {
			a := row
			out = append(out, &a)
		}
	}
	return out, nil
}

func (r *bankAccountRepo) ClearPrimary(ctx context.Context, ownerID uuid.UUID) error {
	defer r.lock()()
	for _, row := range r.st.bankAccounts.all() {
		if row.OwnerID == ownerID && row.IsPrimary {
			row.IsPrimary = false
			r.st.bankAccounts.put(row.ID, row)
		}
	}
	return nil
}

type paymentRepo struct{ *repos }

func (r *paymentRepo) Create(ctx context.Context, payment *entity.Payment) error {
	defer r.lock()()
	for _, row := range r.st.payments.all() {
		if row.BookingID == payment.BookingID {
			return apperror.ErrDuplicateOperation
		}
	}
	r.st.payments.put(payment.ID, *payment)
	return nil
}

func (r *paymentRepo) FindByBooking(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	defer r.lock()()
	for _, row := range r.st.payments.all() {
		if row.BookingID == bookingID {
			p := row
			return &p, nil
		}
	}
	return nil, apperror.ErrPaymentNotFound
}

func (r *paymentRepo) List(ctx context.Context, shipperID *uuid.UUID, limit, offset int) ([]*entity.Payment, error) {
	defer r.lock()()
	var out []*entity.Payment
	for _, row := range reversed(r.st.payments.all()) {
		if shipperID != nil && row.ShipperID != *shipperID {
			continue
		}
		p := row
		out = append(out, &p)
	}
	return paginate(out, limit, offset), nil
}
