package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"course-access-platform/internal/config"
	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/domain/ports/repository"
	pg "course-access-platform/internal/infra/db/postgres"
	"course-access-platform/internal/infra/logging"
	red "course-access-platform/internal/infra/redis"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Connect Postgres
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// Writes go through the cache decorator so stale catalog entries are dropped.
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	catalog := pg.NewCatalogRepoCacheDecorator(pg.NewCatalogRepo(pool), redisClient, cfg.Redis.TTL, logger)

	seed := []struct {
		ID       string
		Category model.Category
		Name     string
		Price    int64
	}{
		{"polity-101", model.CategoryAspirants, "Indian Polity Foundations", 499},
		{"history-101", model.CategoryAspirants, "Modern Indian History", 499},
		{"csat-101", model.CategoryAspirants, "CSAT Essentials", 499},
		{"excel-101", model.CategoryWorkingProfessionals, "Spreadsheets at Work", 499},
		{"pm-101", model.CategoryWorkingProfessionals, "Project Management Basics", 599},
		{"digital-101", model.CategorySeniorCitizen, "Digital Payments Made Simple", 299},
		{"health-101", model.CategorySeniorCitizen, "Everyday Health Literacy", 0},
	}

	for _, s := range seed {
		existing, err := catalog.FindCourse(ctx, repository.NoTX, s.Category, s.ID)
		if err == nil && existing != nil {
			fmt.Printf("exists: %s/%s (%s)\n", s.Category, s.ID, existing.Name)
			continue
		}
		c, err := model.NewCourse(s.ID, s.Category, s.Name, s.Price)
		if err != nil {
			log.Fatalf("course %q: %v", s.ID, err)
		}
		if err := catalog.SaveCourse(ctx, repository.NoTX, c); err != nil {
			log.Fatalf("save course %q: %v", s.ID, err)
		}
		fmt.Printf("seeded: %s/%s (%s, price=%d)\n", c.Category, c.ID, c.Name, c.Price)
	}

	fmt.Println("Seeding complete.")
}
