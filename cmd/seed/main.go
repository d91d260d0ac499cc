// Package main provides a CLI tool for seeding a demo shop with stock.
package main

import (
	"context"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"stocky/internal/app"
	"stocky/internal/config"
	"stocky/internal/core/apperror"
	appctx "stocky/internal/core/context"
	"stocky/internal/core/types"
	"stocky/internal/domain/auth"
	"stocky/internal/domain/billing"
	"stocky/internal/domain/medicine"
	"stocky/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "seed"
	}

	ctx := appctx.WithTrace(context.Background(), appctx.NewTraceContext())

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to connect", "error", err)
	}
	defer a.Close()

	session, err := seedOwner(ctx, a, log)
	if err != nil {
		log.Fatalw("failed to seed owner", "error", err)
	}

	owner := session.User.ID.String()
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: owner, ShopID: owner, Email: session.User.Email})

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, a, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedOwner(ctx context.Context, a *app.App, log *logger.Logger) (*auth.Session, error) {
	email := getEnv("OWNER_EMAIL", "owner@stocky.local")
	password := getEnv("OWNER_PASSWORD", "Owner123!")

	session, err := a.Auth.Register(ctx, auth.RegisterRequest{
		Email:     email,
		Password:  password,
		ShopName:  getEnv("SHOP_NAME", "Demo Pharmacy"),
		OwnerName: "Demo Owner",
	})
	if apperror.HasCode(err, apperror.CodeConflict) {
		log.Infow("owner already exists", "email", email)
		return a.Auth.Login(ctx, auth.Credentials{Email: email, Password: password})
	}
	if err != nil {
		return nil, err
	}
	log.Infow("owner created", "email", email, "user_id", session.User.ID)
	return session, nil
}

func seedDemoData(ctx context.Context, a *app.App, log *logger.Logger) error {
	log.Info("seeding demo data...")

	today := types.Today(time.Now(), a.Config.Location)

	type batch struct {
		name, composition, batchNo string
		kind                       medicine.UnitKind
		perPack, packs             int
		expiresIn                  int
		mrp, cost                  string
	}
	batches := []batch{
		{"Paracetamol 500", "Paracetamol 500mg", "PCM2401", medicine.KindStrip, 10, 40, 400, "25.00", "16.50"},
		{"Azithromycin 250", "Azithromycin 250mg", "AZ2311", medicine.KindStrip, 6, 4, 20, "110.00", "78.00"},
		{"Cough Syrup 100ml", "Dextromethorphan", "CS2302", medicine.KindUnit, 1, 12, -5, "95.00", "60.00"},
		{"Cetirizine 10", "Cetirizine 10mg", "CTZ2405", medicine.KindStrip, 10, 3, 200, "18.00", "9.00"},
		{"ORS Sachet", "Oral rehydration salts", "ORS2409", medicine.KindUnit, 1, 80, 500, "21.00", "14.00"},
	}

	var first *medicine.Medicine
	for _, b := range batches {
		m := &medicine.Medicine{
			Name:            b.name,
			Composition:     b.composition,
			BatchNumber:     b.batchNo,
			UnitKind:        b.kind,
			UnitsPerPackage: b.perPack,
			PackageStock:    b.packs,
			ExpiryDate:      types.AddDays(today, b.expiresIn),
			MRP:             types.MustMoney(b.mrp),
			PurchasePrice:   types.MustMoney(b.cost),
		}
		if err := a.Medicines.Create(ctx, m); err != nil {
			return fmt.Errorf("create %s: %w", b.name, err)
		}
		if first == nil {
			first = m
		}
		log.Infow("medicine seeded", "name", m.Name, "expiry", types.FormatDate(m.ExpiryDate))
	}

	bill, err := a.Billing.Create(ctx, billing.CreateInput{
		CustomerName: "Walk-in",
		PaymentMode:  string(billing.PaymentCash),
		Lines: []billing.LineInput{
			{MedicineID: first.ID, Quantity: 2, SellingPrice: first.MRP},
		},
	})
	if err != nil {
		return fmt.Errorf("create demo bill: %w", err)
	}
	log.Infow("bill seeded", "invoice_number", bill.InvoiceNumber, "total", bill.TotalAmount.StringFixed(2))
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
