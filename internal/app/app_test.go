package app

import (
	"testing"

	"traincape_lms_backend/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestShouldMigrateInDebugMode(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Mode = "debug"
	assert.True(t, shouldMigrate(cfg))
}

func TestShouldMigrateInReleaseModeOnlyWhenForced(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Mode = "release"
	assert.False(t, shouldMigrate(cfg))

	cfg.ForceMigrate = true
	assert.True(t, shouldMigrate(cfg))
}
