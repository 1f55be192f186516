package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-ingestor/internal/infrastructure/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Cache:   config.CacheConfig{Enabled: true, Backend: "memory", MaxSize: 10, TTL: time.Hour, CleanupInterval: time.Minute},
		Scraper: config.ScraperConfig{Timeout: time.Second, AllowedHosts: []string{"budgetbytes.com"}},
		Queue:   config.QueueConfig{MaxSize: 2},
	}
}

func TestNew_WithoutDatabase(t *testing.T) {
	strict := true
	a, err := New(context.Background(), testConfig(), Options{Strict: &strict})
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.True(t, a.Parser.Strict())
	assert.NotNil(t, a.Processor)
	assert.Nil(t, a.Repo)
	assert.True(t, a.Scraper.IsAllowedHost("https://www.budgetbytes.com/onion-rice/"))

	svc := a.Services(nil)
	assert.Nil(t, svc.Lookup)
	assert.Nil(t, svc.DBPing)
	assert.NotNil(t, svc.Cuisine)
	assert.NotNil(t, svc.Macros)
}

func TestNew_NoStoreSkipsDatabase(t *testing.T) {
	cfg := testConfig()
	cfg.Database.URL = "postgres://unreachable:5432/none"
	cfg.Database.MigrateOnStart = true

	a, err := New(context.Background(), cfg, Options{NoStore: true})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	assert.Nil(t, a.Repo)
	assert.False(t, a.Parser.Strict())
}

func TestNew_UnknownCacheBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Backend = "memcached"

	_, err := New(context.Background(), cfg, Options{})
	assert.Error(t, err)
}
