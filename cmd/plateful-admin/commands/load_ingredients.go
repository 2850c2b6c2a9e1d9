package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plateful/backend/config"
	"github.com/plateful/backend/internal/model"
)

var ingredientsFile string

var loadIngredientsCmd = &cobra.Command{
	Use:   "load-ingredients",
	Short: "Bulk-load the ingredient catalog from a CSV file",
	Long: `Reads "name,measurement_unit" rows from a CSV reference file and
inserts them as Ingredients. Rows already present (same name and unit)
are skipped.

Example:
  plateful-admin load-ingredients --file data/ingredients.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoadIngredients()
	},
}

func init() {
	rootCmd.AddCommand(loadIngredientsCmd)

	loadIngredientsCmd.Flags().StringVarP(&ingredientsFile, "file", "f", "data/ingredients.csv", "CSV file to load")
}

func runLoadIngredients() error {
	db, err := openDB()
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(&model.Ingredient{}); err != nil {
		return fmt.Errorf("failed to migrate ingredients table: %w", err)
	}

	file, err := os.Open(ingredientsFile)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", ingredientsFile, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	var loaded, skipped int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV: %w", err)
		}
		if len(record) < 2 {
			return fmt.Errorf("malformed row %v: expected name,measurement_unit", record)
		}

		var count int64
		if err := db.Model(&model.Ingredient{}).
			Where("name = ? AND measurement_unit = ?", record[0], record[1]).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			skipped++
			continue
		}

		ingredient := model.Ingredient{
			Name:            record[0],
			MeasurementUnit: record[1],
		}
		if err := db.Create(&ingredient).Error; err != nil {
			return fmt.Errorf("failed to insert %q: %w", record[0], err)
		}
		loaded++
	}

	log.Info().Int("loaded", loaded).Int("skipped", skipped).Msg("ingredient import finished")
	return nil
}

func openDB() (*gorm.DB, error) {
	connStr := dsn
	if connStr == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, err
		}
		connStr = cfg.DSN()
	}
	return gorm.Open(postgres.Open(connStr), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
}
