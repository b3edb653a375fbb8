package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/permission"
	"github.com/example/equipment-reservation/internal/persistence"
)

const (
	// MsgInvalidTimezone is reported when a timezone setting names no known zone.
	MsgInvalidTimezone = "Invalid Timezone"

	settingCacheSize = 256
)

// SettingService reads and writes system settings. Reads are served from an
// expiring LRU cache that Set invalidates.
type SettingService struct {
	serviceBase
	settings        persistence.SettingRepository
	cache           *expirable.LRU[string, domain.SystemSetting]
	defaultLocation *time.Location
}

// NewSettingService constructs a setting service. A non-positive cacheTTL
// disables caching; a nil defaultLocation means UTC.
func NewSettingService(settings persistence.SettingRepository, cacheTTL time.Duration, defaultLocation *time.Location, idGenerator func() string, now func() time.Time) *SettingService {
	return NewSettingServiceWithLogger(settings, cacheTTL, defaultLocation, idGenerator, now, nil)
}

// NewSettingServiceWithLogger constructs a setting service with a specified logger.
func NewSettingServiceWithLogger(settings persistence.SettingRepository, cacheTTL time.Duration, defaultLocation *time.Location, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SettingService {
	if defaultLocation == nil {
		defaultLocation = time.UTC
	}
	svc := &SettingService{
		serviceBase:     newServiceBase("SettingService", idGenerator, now, logger),
		settings:        settings,
		defaultLocation: defaultLocation,
	}
	if cacheTTL > 0 {
		svc.cache = expirable.NewLRU[string, domain.SystemSetting](settingCacheSize, nil, cacheTTL)
	}
	return svc
}

func (s *SettingService) ready() error {
	if s == nil {
		return fmt.Errorf("SettingService is nil")
	}
	if s.settings == nil {
		return fmt.Errorf("setting repository not configured")
	}
	return nil
}

// Get returns the setting stored under key.
func (s *SettingService) Get(ctx context.Context, principal Principal, key string) (domain.SystemSetting, error) {
	if err := s.ready(); err != nil {
		return domain.SystemSetting{}, err
	}
	if err := authorize(principal, true); err != nil {
		return domain.SystemSetting{}, err
	}
	return s.lookup(ctx, key)
}

// List returns every setting ordered by key.
func (s *SettingService) List(ctx context.Context, principal Principal) ([]domain.SystemSetting, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := authorize(principal, true); err != nil {
		return nil, err
	}
	settings, err := s.settings.FindAll(ctx)
	return settings, mapRepoError("list settings", err)
}

// Set stores value under key. Only administrators may change settings.
func (s *SettingService) Set(ctx context.Context, params SetSettingParams) (setting domain.SystemSetting, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Set", time.Now())
	logger := s.loggerWith(ctx, "Set",
		"principal_id", params.Principal.UserID,
		"key", params.Key,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to store setting", "setting stored")
	}()

	updatedBy := params.Principal.UserID
	setting, err = domain.NewSystemSetting(domain.SettingInput{
		ID:        s.idGenerator(),
		Key:       params.Key,
		Value:     params.Value,
		UpdatedAt: s.now(),
		UpdatedBy: &updatedBy,
	})
	if err != nil {
		return
	}
	if setting.Key() == domain.SettingTimezone {
		if _, locErr := time.LoadLocation(setting.Value()); locErr != nil || setting.Value() == "" {
			err = validationFailure("value", MsgInvalidTimezone)
			return
		}
	}
	if err = authorize(params.Principal, permission.CanManageSettings(params.Principal)); err != nil {
		return
	}

	if err = mapRepoError("save setting", s.settings.Save(ctx, setting)); err != nil {
		return
	}
	if s.cache != nil {
		s.cache.Remove(setting.Key())
	}
	return
}

// Timezone returns the display timezone. It falls back to the configured
// default when no valid timezone setting is stored or the store fails.
func (s *SettingService) Timezone(ctx context.Context) *time.Location {
	if s == nil {
		return time.UTC
	}
	if s.settings == nil {
		return s.defaultLocation
	}
	setting, err := s.lookup(ctx, domain.SettingTimezone)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.loggerWith(ctx, "Timezone").WarnContext(ctx, "falling back to default timezone",
				"error", err, "error_kind", ErrorKind(err))
		}
		return s.defaultLocation
	}
	loc, err := time.LoadLocation(setting.Value())
	if err != nil || setting.Value() == "" {
		return s.defaultLocation
	}
	return loc
}

func (s *SettingService) lookup(ctx context.Context, key string) (domain.SystemSetting, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}
	setting, found, err := s.settings.FindByKey(ctx, key)
	if err != nil {
		return domain.SystemSetting{}, mapRepoError("find setting", err)
	}
	if !found {
		return domain.SystemSetting{}, ErrNotFound
	}
	if s.cache != nil {
		s.cache.Add(key, setting)
	}
	return setting, nil
}
