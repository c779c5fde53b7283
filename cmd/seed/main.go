package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"news-site-backend/internal/config"
	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/repository"
	pg "news-site-backend/internal/infra/db/postgres"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planRepo := pg.NewPlanRepo(pool)

	// If plans already exist, do nothing
	plans, err := planRepo.ListActive(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (days=%d, price=%s %s)\n", p.Name, p.DurationDays, p.Price.StringFixed(2), p.Currency)
		}
		return
	}

	seed := []struct {
		Name  string
		Days  int
		Price string
	}{
		{"Monthly", 30, "9.99"},
		{"Quarterly", 90, "24.99"},
		{"Annual", 365, "89.99"},
	}

	for _, s := range seed {
		price, err := decimal.NewFromString(s.Price)
		if err != nil {
			log.Fatalf("parse price %q: %v", s.Price, err)
		}
		plan, err := model.NewSubscriptionPlan(uuid.NewString(), s.Name, s.Days, price, "USD")
		if err != nil {
			log.Fatalf("build plan %q: %v", s.Name, err)
		}
		if err := planRepo.Save(ctx, repository.NoTX, plan); err != nil {
			log.Fatalf("save plan %q: %v", s.Name, err)
		}
		fmt.Printf("seeded plan %s (days=%d, price=%s USD)\n", plan.Name, plan.DurationDays, plan.Price.StringFixed(2))
	}
}
