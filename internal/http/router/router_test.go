package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/ignatzorin/freight-backend/internal/app"
	"github.com/ignatzorin/freight-backend/internal/config"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/http/router"
	memstore "github.com/ignatzorin/freight-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/freight-backend/internal/infrastructure/payment"
	"github.com/ignatzorin/freight-backend/internal/logger"
	"github.com/ignatzorin/freight-backend/internal/metrics"
	"github.com/ignatzorin/freight-backend/internal/pkg/keylock"
	"github.com/ignatzorin/freight-backend/internal/pkg/secretbox"
	"github.com/ignatzorin/freight-backend/internal/service"
)

const testBankKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type APISuite struct {
	suite.Suite
	engine *gin.Engine
	tokens *service.TokenManager

	shipper uuid.UUID
	carrier uuid.UUID
	rival   uuid.UUID
	admin   uuid.UUID
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	logger.Discard()
	metrics.Register()

	sealer, err := secretbox.New(testBankKey)
	s.Require().NoError(err)

	s.tokens = service.NewTokenManager("router-test-secret", time.Hour)
	application := app.New(app.Deps{
		Store:   memstore.NewStore(),
		Locker:  keylock.NewLocalLocker(),
		Gateway: payment.NewSandboxGateway("decline-"),
		Sealer:  sealer,
		Tokens:  s.tokens,
	})
	cfg := &config.Config{Env: "test", RateLimitLimit: 1000, RateLimitPeriod: time.Minute}
	s.engine = router.SetupRouter(cfg, application.Handlers, s.tokens, memory.NewStore())

	s.shipper, s.carrier, s.rival, s.admin = uuid.New(), uuid.New(), uuid.New(), uuid.New()
}

func (s *APISuite) token(userID uuid.UUID, role valueobject.Role) string {
	token, _, err := s.tokens.IssueAccess(userID, role)
	s.Require().NoError(err)
	return token
}

func (s *APISuite) do(method, path, token string, body any) (int, envelope) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](s *APISuite, raw json.RawMessage) T {
	var v T
	s.Require().NoError(json.Unmarshal(raw, &v))
	return v
}

type idResp struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

func (s *APISuite) createBooking(shipperToken string) uuid.UUID {
	code, env := s.do(http.MethodPost, "/api/bookings", shipperToken, map[string]any{
		"cargo":    map[string]any{"weight_kg": 12000, "type": "pallets"},
		"pickup":   map[string]any{"city": "Kazan"},
		"delivery": map[string]any{"city": "Moscow"},
	})
	s.Require().Equal(http.StatusCreated, code)
	b := decode[idResp](s, env.Data)
	s.Equal("pending_quote", b.Status)
	return b.ID
}

func (s *APISuite) TestAuthAndValidation() {
	code, env := s.do(http.MethodGet, "/api/bookings", "", nil)
	s.Equal(http.StatusUnauthorized, code)
	s.False(env.Success)
	s.Equal("UNAUTHORIZED", env.Error.Code)

	code, _ = s.do(http.MethodGet, "/api/bookings", "garbage", nil)
	s.Equal(http.StatusUnauthorized, code)

	shipper := s.token(s.shipper, valueobject.RoleShipper)
	code, env = s.do(http.MethodGet, "/api/bookings/not-a-uuid", shipper, nil)
	s.Equal(http.StatusBadRequest, code)
	s.Equal("BAD_REQUEST", env.Error.Code)

	code, env = s.do(http.MethodGet, "/api/bookings/"+uuid.NewString(), shipper, nil)
	s.Equal(http.StatusNotFound, code)
	s.Equal("NOT_FOUND", env.Error.Code)

	code, _ = s.do(http.MethodPost, "/api/bookings", shipper, map[string]any{"cargo": map[string]any{}})
	s.Equal(http.StatusBadRequest, code)

	code, env = s.do(http.MethodGet, "/api/admin/ledger/reconcile", shipper, nil)
	s.Equal(http.StatusForbidden, code)
	s.Equal("FORBIDDEN", env.Error.Code)

	code, _ = s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, code)

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "freight_http_request_duration_seconds")
}

func (s *APISuite) TestBookingToWithdrawal() {
	shipper := s.token(s.shipper, valueobject.RoleShipper)
	carrier := s.token(s.carrier, valueobject.RoleCarrier)
	rival := s.token(s.rival, valueobject.RoleCarrier)
	admin := s.token(s.admin, valueobject.RoleAdmin)

	bookingID := s.createBooking(shipper)
	bookingPath := "/api/bookings/" + bookingID.String()

	// Открытые заявки видны перевозчикам.
	code, env := s.do(http.MethodGet, "/api/bookings/open", carrier, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Len(decode[[]idResp](s, env.Data), 1)

	code, env = s.do(http.MethodPost, bookingPath+"/quotes", carrier, map[string]any{"amount": 1_000_000, "notes": "тент 20т"})
	s.Require().Equal(http.StatusCreated, code)
	winning := decode[idResp](s, env.Data)

	code, _ = s.do(http.MethodPost, bookingPath+"/quotes", rival, map[string]any{"amount": 1_200_000})
	s.Require().Equal(http.StatusCreated, code)

	code, env = s.do(http.MethodGet, "/api/quotes?booking_id="+bookingID.String(), shipper, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Len(decode[[]idResp](s, env.Data), 2)

	// Выбор перевозчика: только администратор.
	code, _ = s.do(http.MethodPost, "/api/admin/quotes/"+winning.ID.String()+"/accept", shipper, nil)
	s.Equal(http.StatusForbidden, code)

	code, env = s.do(http.MethodPost, "/api/admin/quotes/"+winning.ID.String()+"/accept", admin, nil)
	s.Require().Equal(http.StatusOK, code)
	accepted := decode[struct {
		Booking  idResp   `json:"booking"`
		Quote    idResp   `json:"quote"`
		Rejected []idResp `json:"rejected"`
	}](s, env.Data)
	s.Equal("booked", accepted.Booking.Status)
	s.Equal("accepted", accepted.Quote.Status)
	s.Require().Len(accepted.Rejected, 1)
	s.Equal("rejected", accepted.Rejected[0].Status)

	code, env = s.do(http.MethodPost, "/api/admin/quotes/"+winning.ID.String()+"/accept", admin, nil)
	s.Equal(http.StatusConflict, code)
	s.Equal("ALREADY_MATCHED", env.Error.Code)

	type settlement struct {
		BookingAmount int64 `json:"booking_amount"`
		PlatformFee   int64 `json:"platform_fee"`
		Total         int64 `json:"total"`
	}
	code, env = s.do(http.MethodGet, bookingPath+"/settlement", shipper, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(settlement{BookingAmount: 1_000_000, PlatformFee: 150_000, Total: 1_150_000}, decode[settlement](s, env.Data))

	code, env = s.do(http.MethodGet, "/api/payments/awaiting", shipper, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Len(decode[[]json.RawMessage](s, env.Data), 1)

	// Отклонённая оплата ничего не меняет.
	code, env = s.do(http.MethodPost, bookingPath+"/payment", shipper, map[string]any{"method": "card", "reference": "decline-1"})
	s.Equal(http.StatusPaymentRequired, code)
	s.Equal("PAYMENT_FAILED", env.Error.Code)

	code, env = s.do(http.MethodPost, bookingPath+"/payment", shipper, map[string]any{"method": "card", "reference": "ch_1"})
	s.Require().Equal(http.StatusCreated, code)
	paid := decode[struct {
		Settlement     settlement `json:"settlement"`
		AlreadySettled bool       `json:"already_settled"`
	}](s, env.Data)
	s.False(paid.AlreadySettled)
	s.Equal(int64(1_150_000), paid.Settlement.Total)

	code, env = s.do(http.MethodPost, bookingPath+"/payment", shipper, map[string]any{"method": "card", "reference": "ch_2"})
	s.Require().Equal(http.StatusOK, code)
	s.True(decode[struct {
		AlreadySettled bool `json:"already_settled"`
	}](s, env.Data).AlreadySettled)

	type balances struct {
		Available int64 `json:"available"`
		Pending   int64 `json:"pending"`
		Locked    int64 `json:"locked"`
	}
	code, env = s.do(http.MethodGet, "/api/wallet", carrier, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(balances{Pending: 1_000_000}, decode[balances](s, env.Data))

	// Оплата после старта перевозки отменить заявку не позволяет.
	code, env = s.do(http.MethodPut, bookingPath+"/status", shipper, map[string]any{"status": "cancelled"})
	s.Equal(http.StatusConflict, code)
	s.Equal("INVALID_TRANSITION", env.Error.Code)

	for _, status := range []string{"in_transit", "delivered", "completed"} {
		code, env = s.do(http.MethodPut, bookingPath+"/status", carrier, map[string]any{"status": status})
		s.Require().Equal(http.StatusOK, code, status)
		s.Equal(status, decode[idResp](s, env.Data).Status)
	}

	code, env = s.do(http.MethodGet, "/api/wallet", carrier, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(balances{Available: 1_000_000}, decode[balances](s, env.Data))

	// Повторный выпуск через админский маршрут: эхо без изменений.
	code, env = s.do(http.MethodPost, "/api/admin/bookings/"+bookingID.String()+"/release", admin, nil)
	s.Require().Equal(http.StatusOK, code)
	s.True(decode[struct {
		AlreadyReleased bool `json:"already_released"`
	}](s, env.Data).AlreadyReleased)

	code, env = s.do(http.MethodGet, "/api/wallet/transactions", carrier, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Len(decode[[]json.RawMessage](s, env.Data), 2)

	code, env = s.do(http.MethodPost, "/api/bank-accounts", carrier, map[string]any{
		"holder_name":    "ООО Перевозчик",
		"bank_name":      "Test Bank",
		"account_number": "4081 7810 0000 1234",
		"routing_number": "044525225",
		"is_primary":     true,
	})
	s.Require().Equal(http.StatusCreated, code)
	account := decode[struct {
		ID            uuid.UUID `json:"id"`
		AccountNumber string    `json:"account_number"`
	}](s, env.Data)
	s.Equal("****1234", account.AccountNumber)

	code, env = s.do(http.MethodPost, "/api/withdrawals", carrier, map[string]any{"amount": 5_000_000, "bank_account_id": account.ID})
	s.Equal(http.StatusUnprocessableEntity, code)
	s.Equal("INSUFFICIENT_FUNDS", env.Error.Code)

	code, env = s.do(http.MethodPost, "/api/withdrawals", carrier, map[string]any{"amount": 600_000, "bank_account_id": account.ID})
	s.Require().Equal(http.StatusCreated, code)
	request := decode[idResp](s, env.Data)
	s.Equal("pending", request.Status)

	code, env = s.do(http.MethodGet, "/api/wallet", carrier, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(balances{Available: 400_000, Locked: 600_000}, decode[balances](s, env.Data))

	code, env = s.do(http.MethodGet, "/api/admin/withdrawals?status=pending", admin, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Len(decode[[]idResp](s, env.Data), 1)

	code, env = s.do(http.MethodPost, "/api/admin/withdrawals/"+request.ID.String()+"/approve", admin, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("completed", decode[idResp](s, env.Data).Status)

	code, env = s.do(http.MethodPost, "/api/admin/withdrawals/"+request.ID.String()+"/reject", admin, map[string]any{"reason": "поздно"})
	s.Equal(http.StatusConflict, code)
	s.Equal("INVALID_STATE", env.Error.Code)

	code, env = s.do(http.MethodGet, "/api/wallet", carrier, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(balances{Available: 400_000}, decode[balances](s, env.Data))

	code, env = s.do(http.MethodGet, "/api/admin/wallets/00000000-0000-0000-0000-000000000001", admin, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(balances{Available: 150_000}, decode[balances](s, env.Data))

	code, env = s.do(http.MethodGet, "/api/admin/ledger/reconcile", admin, nil)
	s.Require().Equal(http.StatusOK, code)
	report := decode[struct {
		Wallets    int  `json:"wallets"`
		Consistent bool `json:"consistent"`
	}](s, env.Data)
	s.Equal(2, report.Wallets)
	s.True(report.Consistent)
}

func TestRouter_MoneyRoutesRateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger.Discard()

	sealer, err := secretbox.New(testBankKey)
	require.NoError(t, err)
	tokens := service.NewTokenManager("router-test-secret", time.Hour)
	application := app.New(app.Deps{
		Store:   memstore.NewStore(),
		Locker:  keylock.NewLocalLocker(),
		Gateway: payment.NewSandboxGateway("decline-"),
		Sealer:  sealer,
		Tokens:  tokens,
	})
	cfg := &config.Config{Env: "test", RateLimitLimit: 2, RateLimitPeriod: time.Minute}
	engine := router.SetupRouter(cfg, application.Handlers, tokens, memory.NewStore())

	token, _, err := tokens.IssueAccess(uuid.New(), valueobject.RoleCarrier)
	require.NoError(t, err)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/withdrawals", bytes.NewBufferString(`{}`))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusBadRequest, post().Code)
	assert.Equal(t, http.StatusBadRequest, post().Code)
	w := post()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))

	// Чтение не ограничивается.
	req := httptest.NewRequest(http.MethodGet, "/api/withdrawals", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
