package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 15*time.Minute, cfg.Cache.PrerequisiteTTL)
	assert.Equal(t, "General Education", cfg.Academic.UniversalDepartment)
	assert.Equal(t, 6, cfg.Academic.AgendaDefaultDays)
	assert.Equal(t, 120, cfg.Academic.AgendaMaxDays)
	assert.Nil(t, cfg.JWT.Audience)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_AUDIENCE", "campus-web, campus-cli ,")
	t.Setenv("PREREQUISITE_CACHE_TTL", "not-a-duration")
	t.Setenv("AGENDA_MAX_DAYS", "-3")
	t.Setenv("ENABLE_CACHE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"campus-web", "campus-cli"}, cfg.JWT.Audience)
	assert.Equal(t, 15*time.Minute, cfg.Cache.PrerequisiteTTL)
	assert.Equal(t, 120, cfg.Academic.AgendaMaxDays)
	assert.True(t, cfg.Cache.Enabled)
}

func TestAcademicLocation(t *testing.T) {
	assert.Equal(t, time.UTC, AcademicConfig{}.Location())
	assert.Equal(t, time.UTC, AcademicConfig{TimeZone: "Mars/Olympus"}.Location())
}
