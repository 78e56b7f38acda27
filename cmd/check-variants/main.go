package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/BariBariGood/custom-checkout-app/internal/config"
	"github.com/BariBariGood/custom-checkout-app/internal/repository/postgres"
	"github.com/BariBariGood/custom-checkout-app/internal/security"
	"github.com/BariBariGood/custom-checkout-app/internal/service"
	"github.com/BariBariGood/custom-checkout-app/internal/shopify"
)

// Checks variant slot usage for a product against a stored shop session.
// Usage: check-variants <shop> <product-id>
func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "Usage: check-variants <shop> <product-id>")
		os.Exit(1)
	}
	shop := shopify.NormalizeShop(os.Args[1])
	productID := os.Args[2]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	var encKey []byte
	if cfg.TokenEncKey != "" {
		encKey, err = security.LoadKey(cfg.TokenEncKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid TOKEN_ENC_KEY_B64: %v\n", err)
			os.Exit(1)
		}
	}

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, encKey, logger)

	ctx := context.Background()
	sess, err := repos.Session.GetByShop(ctx, shop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "No session for shop %s: %v\n", shop, err)
		os.Exit(1)
	}

	client := shopify.NewClient(cfg.Shopify.APIVersion, logger)
	provisioner := service.NewProvisioner(client, nil, cfg.Variants, logger)

	report, err := provisioner.CheckCapacity(ctx, *sess, productID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Capacity check failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(map[string]interface{}{
		"productTitle":       report.ProductTitle,
		"variantsCount":      report.Snapshot.CurrentCount,
		"maxVariants":        report.Snapshot.Ceiling,
		"isApproachingLimit": report.Snapshot.IsApproachingLimit(),
		"cleanupThreshold":   report.Snapshot.Threshold,
	}, "", "  ")
	fmt.Println(string(out))
}
