package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "agency-pipeline/internal/adapters/web"
	"agency-pipeline/internal/ai"
	"agency-pipeline/internal/app"
	"agency-pipeline/internal/core"
	"agency-pipeline/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	notifications := core.NewNotificationService(pool)
	pipeline := core.NewPipelineService(pool)
	deals := core.NewDealService(pool, notifications)
	payments := core.NewPaymentService(pool)
	clients := core.NewClientService(pool)
	ledger := core.NewLedgerService(pool)
	reports := core.NewReportingService(pool)
	team := core.NewTeamService(pool)
	activity := core.NewActivityService(pool)

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set")
	}
	agent := ai.NewAgent(apiKey)

	svc := app.NewAppService(pool, pipeline, deals, payments, clients, ledger, reports, team, notifications, activity, agent)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
