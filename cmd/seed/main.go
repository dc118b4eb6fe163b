// Seeds a handful of demo activation codes for local testing. Issuance in
// production happens upstream; this is only a stand-in for that pipeline.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"edu-content-subscription/internal/config"
	"edu-content-subscription/internal/domain"
	"edu-content-subscription/internal/domain/model"
	pg "edu-content-subscription/internal/infra/db/postgres"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
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

	repo := pg.NewActivationCodeRepo(pool)

	seed := []struct {
		Code     string
		Category model.PlanCategory
		Period   model.PlanPeriod
	}{
		{"DEMO-GEN-M-0001", model.PlanCategoryGeneral, model.PlanPeriodMonthly},
		{"DEMO-GEN-Q-0001", model.PlanCategoryGeneral, model.PlanPeriodQuarterly},
		{"DEMO-GEN-Y-0001", model.PlanCategoryGeneral, model.PlanPeriodYearly},
		{"DEMO-SUB-M-0001", model.PlanCategorySingleSubject, model.PlanPeriodMonthly},
		{"DEMO-SUB-Y-0001", model.PlanCategorySingleSubject, model.PlanPeriodYearly},
	}

	validFrom := time.Now()
	validUntil := validFrom.AddDate(1, 0, 0)

	seeded := 0
	for _, s := range seed {
		if _, err := repo.FindByCode(ctx, nil, s.Code); err == nil {
			fmt.Printf("exists: %s\n", s.Code)
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			log.Fatalf("lookup %q: %v", s.Code, err)
		}

		code, err := model.NewActivationCode(uuid.NewString(), s.Code, "demo "+s.Code, s.Category, s.Period, validFrom, validUntil)
		if err != nil {
			log.Fatalf("build %q: %v", s.Code, err)
		}
		if err := repo.Save(ctx, nil, code); err != nil {
			log.Fatalf("save %q: %v", s.Code, err)
		}
		fmt.Printf("seeded: %s (%s_%s, until %s)\n", s.Code, s.Category, s.Period, validUntil.Format("2006-01-02"))
		seeded++
	}

	fmt.Printf("done, %d new codes.\n", seeded)
}
