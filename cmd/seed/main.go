package main

import (
	"flag"
	"log"

	"ai-chat-session-be/internal/config"
	"ai-chat-session-be/internal/model"
	"ai-chat-session-be/internal/service"
	"ai-chat-session-be/pkg/database"

	"github.com/fatih/color"
	"gorm.io/gorm/clause"
)

// seed writes one session_config row per catalog plan. Existing limits are kept
// unless -overwrite is given, so budgets tuned in production survive a re-seed.
func main() {
	overwrite := flag.Bool("overwrite", false, "replace token limits that already exist")
	flag.Parse()

	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Seeding session quota configuration...")

	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "plan_id"}, {Name: "model_name"}},
		DoNothing: true,
	}
	if *overwrite {
		onConflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "plan_id"}, {Name: "model_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"token_limit_per_hour", "updated_at"}),
		}
	}

	failed := 0
	for _, plan := range service.DefaultPlans() {
		row := model.SessionConfig{
			PlanId:            plan.Id,
			ModelName:         plan.ModelName,
			TokenLimitPerHour: plan.DefaultTokenLimit,
		}
		res := db.Clauses(onConflict).Create(&row)
		switch {
		case res.Error != nil:
			failed++
			color.Red("Failed %s (%s): %v", plan.Id, plan.ModelName, res.Error)
		case res.RowsAffected == 0:
			color.Yellow("Kept existing limit for %s (%s)", plan.Id, plan.ModelName)
		default:
			color.Green("Seeded %s (%s): %d tokens", plan.Id, plan.ModelName, plan.DefaultTokenLimit)
		}
	}

	if failed > 0 {
		log.Fatalf("Seeding finished with %d failures", failed)
	}
	color.Green("Session quota seeding completed!")
}
