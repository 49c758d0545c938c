package bankaccount_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
	"github.com/ignatzorin/freight-backend/internal/pkg/secretbox"
	"github.com/ignatzorin/freight-backend/internal/usecase/bankaccount"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newBox(t *testing.T) *secretbox.Box {
	t.Helper()
	box, err := secretbox.New(testKey)
	require.NoError(t, err)
	return box
}

func TestAddBankAccount_PrimaryHandling(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	box := newBox(t)
	add := bankaccount.NewAddBankAccountUseCase(store, box)
	carrier := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleCarrier}

	first, err := add.Execute(ctx, bankaccount.AddBankAccountInput{
		Actor: carrier, HolderName: "Anna Smirnova", BankName: "Tinkoff",
		AccountNumber: "4081 7810 0000 1234", RoutingNumber: "044525974",
	})
	require.NoError(t, err)
	assert.True(t, first.IsPrimary, "первый счёт становится основным")
	assert.Equal(t, "****1234", first.MaskedNumber())

	second, err := add.Execute(ctx, bankaccount.AddBankAccountInput{
		Actor: carrier, HolderName: "Anna Smirnova", BankName: "Alfa",
		AccountNumber: "40817810000000005678", RoutingNumber: "044525593", IsPrimary: true,
	})
	require.NoError(t, err)
	assert.True(t, second.IsPrimary)

	_, err = add.Execute(ctx, bankaccount.AddBankAccountInput{
		Actor: carrier, HolderName: "Anna Smirnova", BankName: "VTB",
		AccountNumber: "40817810000000009999", RoutingNumber: "044525187",
	})
	require.NoError(t, err)

	list, err := bankaccount.NewListBankAccountsUseCase(store.BankAccounts(), box).Execute(ctx, carrier.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)

	primaries := 0
	for _, account := range list {
		if account.IsPrimary {
			primaries++
			assert.Equal(t, second.ID, account.ID)
		}
	}
	assert.Equal(t, 1, primaries)
	assert.Equal(t, "4081781000001234", list[0].AccountNumber)
}

func TestAddBankAccount_NumberSealedAtRest(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	box := newBox(t)
	escort := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleEscort}

	account, err := bankaccount.NewAddBankAccountUseCase(store, box).Execute(ctx, bankaccount.AddBankAccountInput{
		Actor: escort, HolderName: "Oleg Kim", BankName: "Sber",
		AccountNumber: "40817810099910004312", RoutingNumber: "044525225",
	})
	require.NoError(t, err)

	stored, err := store.BankAccounts().FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.NotEqual(t, account.AccountNumber, stored.AccountNumber)
	assert.False(t, strings.Contains(stored.AccountNumber, "4312"))

	opened, err := box.Open(stored.AccountNumber)
	require.NoError(t, err)
	assert.Equal(t, "40817810099910004312", opened)
}

func TestAddBankAccount_Errors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	add := bankaccount.NewAddBankAccountUseCase(store, newBox(t))

	shipper := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleShipper}
	_, err := add.Execute(ctx, bankaccount.AddBankAccountInput{
		Actor: shipper, HolderName: "A", BankName: "B", AccountNumber: "12345678", RoutingNumber: "1",
	})
	assert.True(t, apperror.Is(err, apperror.ErrCodeUnauthorized))

	carrier := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleCarrier}
	_, err = add.Execute(ctx, bankaccount.AddBankAccountInput{
		Actor: carrier, HolderName: "A", BankName: "B", AccountNumber: "12ab", RoutingNumber: "1",
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = add.Execute(ctx, bankaccount.AddBankAccountInput{
		Actor: carrier, BankName: "B", AccountNumber: "12345678", RoutingNumber: "1",
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestListBankAccounts_TamperedNumber(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	box := newBox(t)
	carrier := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleCarrier}

	account, err := bankaccount.NewAddBankAccountUseCase(store, box).Execute(ctx, bankaccount.AddBankAccountInput{
		Actor: carrier, HolderName: "A", BankName: "B", AccountNumber: "12345678", RoutingNumber: "1",
	})
	require.NoError(t, err)

	// Подменяем зашифрованный номер напрямую в хранилище.
	account.AccountNumber = "not-base64!"
	require.NoError(t, store.BankAccounts().Create(ctx, account))

	_, err = bankaccount.NewListBankAccountsUseCase(store.BankAccounts(), box).Execute(ctx, carrier.ID)
	assert.True(t, apperror.Is(err, apperror.ErrCodeInternal))
}
