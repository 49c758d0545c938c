package valueobject

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

type Role string

const (
	RoleShipper Role = "shipper"
	RoleCarrier Role = "carrier"
	RoleDriver  Role = "driver"
	RoleEscort  Role = "escort"
	RoleAdmin   Role = "admin"
	// RoleSystem: внутренние переходы (первое предложение, матчинг, оплата).
	// Через HTTP такую роль получить нельзя.
	RoleSystem Role = "system"
)

func NewRole(role string) (Role, error) {
	switch r := Role(role); r {
	case RoleShipper, RoleCarrier, RoleDriver, RoleEscort, RoleAdmin:
		return r, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "некорректная роль пользователя")
}

// CanOwnWallet: роли, которым начисляются заработки и разрешён вывод.
func (r Role) CanOwnWallet() bool {
	return r == RoleCarrier || r == RoleEscort
}

// Actor: идентичность вызывающего, которую поставляет слой аутентификации.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// SystemActor используется для внутренних переходов состояния.
var SystemActor = Actor{Role: RoleSystem}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) Is(role Role) bool {
	return a.Role == role
}
