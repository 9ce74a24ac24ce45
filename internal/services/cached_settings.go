package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"tasklist/backend/internal/cache"
)

const settingsCacheTTL = 15 * time.Minute

// CachedSettingsService reads settings through the cache and drops the
// entry whenever settings change. Cache failures fall back to the store.
type CachedSettingsService struct {
	settings *SettingsService
	cache    cache.Cache
	logger   *zap.Logger
}

func NewCachedSettingsService(settings *SettingsService, c cache.Cache, logger *zap.Logger) *CachedSettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSettingsService{settings: settings, cache: c, logger: logger}
}

func settingsCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("settings:%s", userID.String())
}

func (s *CachedSettingsService) Get(ctx context.Context, userID uuid.UUID) (*Settings, error) {
	key := settingsCacheKey(userID)

	var cached Settings
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("settings cache read failed", zap.String("key", key), zap.Error(err))
	}

	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, settings, settingsCacheTTL); err != nil {
		s.logger.Warn("settings cache write failed", zap.String("key", key), zap.Error(err))
	}
	return settings, nil
}

func (s *CachedSettingsService) Update(ctx context.Context, userID uuid.UUID, upd SettingsUpdate) (*Settings, error) {
	settings, err := s.settings.Update(ctx, userID, upd)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Delete(ctx, settingsCacheKey(userID)); err != nil {
		s.logger.Warn("settings cache invalidation failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return settings, nil
}
