package main

import (
	"github.com/bp848/prod-bperp/internal/app"
	"github.com/bp848/prod-bperp/internal/bootstrap"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := bootstrap.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := app.RunConsumer(); err != nil {
		logger.Fatal("notification consumer failed", zap.Error(err))
	}
}
