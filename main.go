package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sowmiyavani28/Flight-Analytics-App/api"
	"github.com/sowmiyavani28/Flight-Analytics-App/collector"
	"github.com/sowmiyavani28/Flight-Analytics-App/db"
	jsonfetcher "github.com/sowmiyavani28/Flight-Analytics-App/services/json_fetcher"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	store, err := openStore()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	apiKey := os.Getenv("RAPID_API_KEY")
	if apiKey == "" {
		log.Fatal("RAPID_API_KEY is not set")
	}
	apiHost := os.Getenv("API_HOST")
	if apiHost == "" {
		apiHost = "aerodatabox.p.rapidapi.com"
	}
	fetcher := jsonfetcher.New(apiHost, apiKey)

	var airports []string
	if raw := os.Getenv("AIRPORTS"); raw != "" {
		for _, code := range strings.Split(raw, ",") {
			if code = strings.TrimSpace(code); code != "" {
				airports = append(airports, strings.ToUpper(code))
			}
		}
	}

	// Get update interval from environment variable (default to 1 hour)
	updateInterval := 3600
	if intervalStr := os.Getenv("UPDATE_INTERVAL"); intervalStr != "" {
		if interval, err := strconv.Atoi(intervalStr); err == nil {
			updateInterval = interval
		}
	}

	c := collector.New(store, fetcher, airports)
	ticker := time.NewTicker(time.Duration(updateInterval) * time.Second)
	defer ticker.Stop()

	router := api.NewRouter(store, c)

	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	// Start the API server in a goroutine
	go func() {
		log.Printf("Starting API server on %s", listenAddr)
		if err := http.ListenAndServe(listenAddr, router); err != nil {
			log.Fatalf("Failed to start API server: %v", err)
		}
	}()

	log.Printf("Starting flight data collector (update interval: %d seconds)", updateInterval)

	// Initial collection
	if err := c.Run(ctx, collectionDate()); err != nil {
		log.Printf("Error collecting data: %v", err)
	}

	// Continuous collection
	for range ticker.C {
		if err := c.Run(ctx, collectionDate()); err != nil {
			log.Printf("Error collecting data: %v", err)
		}
	}
}

// collectionDate is today in UTC, overridable with ETL_DATE (YYYY-MM-DD)
// for backfills.
func collectionDate() time.Time {
	if raw := os.Getenv("ETL_DATE"); raw != "" {
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			return d
		}
		log.Printf("Warning: ignoring invalid ETL_DATE %q", raw)
	}
	return time.Now().UTC()
}

// openStore picks the database backend from DB_DRIVER: "postgres"
// (default) or "sqlite".
func openStore() (db.Store, error) {
	switch driver := os.Getenv("DB_DRIVER"); driver {
	case "", "postgres":
		connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			envOr("DB_HOST", "localhost"),
			envOr("DB_PORT", "5432"),
			envOr("DB_USER", "postgres"),
			os.Getenv("DB_PASSWORD"),
			envOr("DB_NAME", "flights"),
		)
		return db.NewPostgresStore(connStr)
	case "sqlite":
		return db.NewSQLiteStore(envOr("SQLITE_PATH", "flights.db"))
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
