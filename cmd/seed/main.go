package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/jetemi/ng-pycon/internal/config"
	"github.com/jetemi/ng-pycon/internal/models"
	ticket_db "github.com/jetemi/ng-pycon/internal/tickets/db"
)

// Seeds the ticket catalogue and launch coupons for the configured
// conference year. Existing rows are left alone, so re-running is safe;
// set SEED_RESET=true to drop and recreate the ticketing tables first.
func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using environment variables")
	}
	cfg := config.Load()

	sqldb, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	if reset, _ := strconv.ParseBool(os.Getenv("SEED_RESET")); reset {
		log.Println("Dropping ticketing tables...")
		dropTables(ctx, db)
		log.Println("Creating ticketing tables...")
		createTables(ctx, db)
	}

	repo := ticket_db.New(db)
	year := cfg.Conference.Year

	log.Printf("Seeding ticket catalogue for %d...", year)
	seedTicketTypes(ctx, repo, year)
	seedCoupons(ctx, repo, year)

	log.Println("✅ Done.")
}

func dropTables(ctx context.Context, db *bun.DB) {
	tables := []interface{}{
		(*models.Attendee)(nil),
		(*models.Order)(nil),
		(*models.OrderGroup)(nil),
		(*models.Coupon)(nil),
		(*models.TicketType)(nil),
	}
	for _, m := range tables {
		_, _ = db.NewDropTable().Model(m).IfExists().Cascade().Exec(ctx)
	}
}

func createTables(ctx context.Context, db *bun.DB) {
	tables := []interface{}{
		(*models.TicketType)(nil),
		(*models.Coupon)(nil),
		(*models.OrderGroup)(nil),
		(*models.Order)(nil),
		(*models.Attendee)(nil),
	}
	for _, m := range tables {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			log.Fatalf("❌ Failed to create table for %T: %v", m, err)
		}
	}
}

func seedTicketTypes(ctx context.Context, repo *ticket_db.DB, year int) {
	catalogue := []models.TicketType{
		{
			Name:           "Student",
			Description:    "For full-time students with a valid student ID.",
			Price:          10000,
			EarlyBirdPrice: 7500,
			EarlyBirdCount: 50,
			RegularCount:   200,
			DisplayOrder:   1,
		},
		{
			Name:           "Professional",
			Description:    "Standard conference ticket for individuals.",
			Price:          30000,
			EarlyBirdPrice: 20000,
			EarlyBirdCount: 100,
			RegularCount:   400,
			DisplayOrder:   2,
		},
		{
			Name:         "Corporate",
			Description:  "For attendees sponsored by their organization.",
			Price:        100000,
			RegularCount: 100,
			DisplayOrder: 3,
		},
	}

	for _, tt := range catalogue {
		existing, err := repo.GetTicketTypeByName(ctx, tt.Name, year)
		if err != nil {
			log.Fatalf("❌ Failed to look up ticket type %s: %v", tt.Name, err)
		}
		if existing != nil {
			log.Printf("Ticket type %s already present, skipping", tt.Name)
			continue
		}

		tt.ID = uuid.NewString()
		tt.ConferenceYear = year
		tt.IsActive = true
		tt.CreatedAt = time.Now()
		if err := repo.CreateTicketType(ctx, &tt); err != nil {
			log.Fatalf("❌ Failed to create ticket type %s: %v", tt.Name, err)
		}
		log.Printf("Created ticket type %s", tt.Name)
	}
}

func seedCoupons(ctx context.Context, repo *ticket_db.DB, year int) {
	coupons := []models.Coupon{
		{Code: "EARLYBIRD10", Percentage: 10, MaxUsage: 50},
		{Code: "SPEAKER", Percentage: 100, MaxUsage: 20},
	}

	for _, c := range coupons {
		existing, err := repo.GetCouponByCode(ctx, c.Code, year)
		if err != nil {
			log.Fatalf("❌ Failed to look up coupon %s: %v", c.Code, err)
		}
		if existing != nil {
			log.Printf("Coupon %s already present, skipping", c.Code)
			continue
		}

		c.ID = uuid.NewString()
		c.ConferenceYear = year
		c.CreatedAt = time.Now()
		if err := repo.CreateCoupon(ctx, &c); err != nil {
			log.Fatalf("❌ Failed to create coupon %s: %v", c.Code, err)
		}
		log.Printf("Created coupon %s", c.Code)
	}
}
