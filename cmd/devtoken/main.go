// Команда devtoken выпускает access токен для локальной разработки и ручных проверок API.
//
//	go run ./cmd/devtoken -role carrier -user 6f1c...
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/config"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/service"
)

func main() {
	roleFlag := flag.String("role", "shipper", "роль: shipper, carrier, driver, escort, admin")
	userFlag := flag.String("user", "", "uuid пользователя (по умолчанию случайный)")
	ttlFlag := flag.Duration("ttl", 24*time.Hour, "время жизни токена")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("devtoken: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("devtoken: выпуск токенов в production запрещён")
	}

	role, err := valueobject.NewRole(*roleFlag)
	if err != nil {
		log.Fatalf("devtoken: %v", err)
	}
	userID := uuid.New()
	if *userFlag != "" {
		if userID, err = uuid.Parse(*userFlag); err != nil {
			log.Fatalf("devtoken: некорректный uuid: %v", err)
		}
	}

	token, exp, err := service.NewTokenManager(cfg.JWTSecret, *ttlFlag).IssueAccess(userID, role)
	if err != nil {
		log.Fatalf("devtoken: %v", err)
	}
	fmt.Printf("user_id=%s\nrole=%s\nexpires_at=%s\ntoken=%s\n", userID, role, exp.Format(time.RFC3339), token)
}
