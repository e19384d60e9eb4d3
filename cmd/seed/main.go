package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"

	"marketplace/internal/config"
	"marketplace/internal/db"
	"marketplace/internal/repository"
	"marketplace/internal/service"
)

const defaultFixture = "fixtures/seed.json"

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	source := flag.String("fixture", defaultFixture, "fixture file path or http(s) URL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	gormDB, err := db.NewMySQL(cfg.MySQL.DSN, gormlogger.Warn)
	if err != nil {
		logger.Fatalf("connect to database: %v", err)
	}
	if err := db.Migrate(gormDB, false); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}
	logger.Info("database ready")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger.Infof("loading fixture from %s", *source)
	fixture, err := loadFixture(ctx, *source)
	if err != nil {
		logger.Fatalf("load fixture: %v", err)
	}
	logger.Infof("fixture has %d users", len(fixture))

	seeder := service.NewSeedService(
		repository.NewUserRepository(gormDB),
		repository.NewListingRepository(gormDB),
		logger,
	)
	result, err := seeder.Seed(ctx, fixture)
	if err != nil {
		logger.Fatalf("seed: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"users_created":    result.UsersCreated,
		"listings_created": result.ListingsCreated,
		"skipped":          result.Skipped,
	}).Info("seed completed")
}

// loadFixture reads the fixture from a local file or fetches it over HTTP.
func loadFixture(ctx context.Context, source string) ([]service.SeedUser, error) {
	var body io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch fixture: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fixture returned status code: %d", resp.StatusCode)
		}
		body = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open fixture: %w", err)
		}
		body = f
	}
	defer body.Close()

	var users []service.SeedUser
	if err := json.NewDecoder(body).Decode(&users); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return users, nil
}
