package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/AzielCF/az-estate/core/database"
	estateRepo "github.com/AzielCF/az-estate/estate/repository"
	"github.com/AzielCF/az-estate/pkg/phone"
	"github.com/AzielCF/az-estate/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the estate schema",
	RunE:  migrate,
}

func init() {
	migrateCmd.Flags().Bool("seed-demo", false, "fill an empty database with a demo landlord, facility manager and tenant")
	migrateCmd.Flags().String("demo-tenant", "08011111111", "phone of the demo tenant")
	migrateCmd.Flags().String("demo-manager", "08022222222", "phone of the demo facility manager")
	migrateCmd.Flags().String("demo-landlord", "08033333333", "phone of the demo landlord")
	rootCmd.AddCommand(migrateCmd)
}

func migrate(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := utils.CreateFolder(cfg.App.StoragePath); err != nil {
		return err
	}
	db, err := database.NewDatabase(cfg.Database, cfg.App.Debug)
	if err != nil {
		return err
	}
	defer database.Close(db)

	logrus.Infof("[MIGRATION] Migrating %s database %s...", cfg.Database.Driver, cfg.Database.Name)
	if err := estateRepo.InitSchema(ctx, db); err != nil {
		return fmt.Errorf("failed to migrate estate schema: %w", err)
	}
	logrus.Info("[MIGRATION] Schema is up to date.")

	seed, _ := cmd.Flags().GetBool("seed-demo")
	if !seed {
		return nil
	}

	normalizer := phone.NewNormalizer(cfg.Messaging.CountryCode)
	tenant, _ := cmd.Flags().GetString("demo-tenant")
	manager, _ := cmd.Flags().GetString("demo-manager")
	landlord, _ := cmd.Flags().GetString("demo-landlord")

	data, err := estateRepo.SeedDemo(ctx, db, estateRepo.DemoPhones{
		Tenant:          normalizer.Normalize(tenant),
		FacilityManager: normalizer.Normalize(manager),
		Landlord:        normalizer.Normalize(landlord),
	})
	if err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}
	logrus.Infof("[MIGRATION] Demo data ready: tenant %s, facility manager %s, landlord %s, %d properties",
		data.Tenant.Phone, data.Manager.Phone, data.Landlord.Phone, len(data.Properties))
	return nil
}
