package main

import (
	"context"
	"log"

	"taskboard/internal/app"
	"taskboard/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("загрузка конфигурации: %v", err)
	}

	ctx := context.Background()

	a := app.New(cfg)
	if err := a.Init(ctx); err != nil {
		log.Fatalf("инициализация приложения: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("работа приложения: %v", err)
	}
}
