package main

import (
	"net/http"
	"os"

	"coscribe/config/database"
	"coscribe/internal/document/repository"
	"coscribe/pkg/logger"
	"coscribe/router"
	"coscribe/socket"

	"github.com/joho/godotenv"
)

func main() {
	logger.Init()

	if err := godotenv.Load(); err != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}

	db := database.Connect()
	defer db.Close()

	hub := socket.NewHub(repository.NewDocumentRepository(db))
	go hub.Run()
	go hub.PersistWorker()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Sugar.Infof("Backend listening on :%s", port)
	if err := http.ListenAndServe(":"+port, router.Setup(db, hub)); err != nil {
		logger.Sugar.Fatalf("Server exited: %v", err)
	}
}
