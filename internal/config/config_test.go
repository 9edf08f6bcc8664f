package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, 500, cfg.WeeklyPrice)
	assert.Equal(t, 1500, cfg.MonthlyPrice)
	assert.Equal(t, 30*time.Second, cfg.ChapaTimeout)
	assert.Equal(t, "properties", cfg.DynamoTables.Properties)
	assert.True(t, cfg.SchedulerEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FEATURED_WEEKLY_PRICE", "650")
	t.Setenv("CHAPA_TIMEOUT", "5s")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("PUBLIC_BASE_URL", "https://rent.example.com/")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg := Load()
	assert.Equal(t, 650, cfg.WeeklyPrice)
	assert.Equal(t, 5*time.Second, cfg.ChapaTimeout)
	assert.False(t, cfg.SchedulerEnabled)
	assert.Equal(t, "https://rent.example.com", cfg.PublicBaseURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("FEATURED_MONTHLY_PRICE", "lots")
	t.Setenv("JOB_TIMEOUT", "soon")
	cfg := Load()
	assert.Equal(t, 1500, cfg.MonthlyPrice)
	assert.Equal(t, 5*time.Minute, cfg.JobTimeout)
}
