package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trial-hand/models"
)

func TestMigrateCreatesFullSchema(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db, zap.NewNop()))

	for _, table := range []string{
		"trials", "trial_descriptions", "trial_eligibility",
		"trial_arms_interventions", "trial_outcomes", "trial_locations",
		"trial_contacts", "trial_conditions", "trial_keywords",
		"trial_interventions", "maintenance_logs",
	} {
		assert.True(t, db.Migrator().HasTable(table), "table %s", table)
	}

	assert.True(t, db.Migrator().HasColumn(&models.Trial{}, "nct_id"))
	assert.True(t, db.Migrator().HasColumn(&models.Trial{}, "is_fda_regulated_drug"))
	assert.True(t, db.Migrator().HasColumn(&models.TrialEligibility{}, "healthy_volunteers"))
	assert.True(t, db.Migrator().HasIndex(&models.Trial{}, "idx_trials_status"))
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db, zap.NewNop()))
	require.NoError(t, Migrate(db, zap.NewNop()))
}
