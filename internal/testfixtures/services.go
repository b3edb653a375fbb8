package testfixtures

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/example/equipment-reservation/internal/application"
	"github.com/example/equipment-reservation/internal/persistence"
	"github.com/example/equipment-reservation/internal/persistence/memory"
)

// FastArgon2idParams keeps password hashing cheap in tests.
var FastArgon2idParams = application.Argon2idParams{
	Memory:      64,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// ServiceFactory assists tests with constructing application services over
// one set of repositories using deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock        *Clock
	IDGenerator  *IDGenerator
	Repositories persistence.Repositories
	Hasher       application.PasswordHasher
	Logger       *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory backed by an in-memory store.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:        NewClock(time.Time{}),
		IDGenerator:  NewIDGenerator("id"),
		Repositories: memory.New().Repositories(),
		Hasher:       application.NewArgon2idHasher(FastArgon2idParams),
		Logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithRepositories replaces the in-memory store.
func WithRepositories(repos persistence.Repositories) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Repositories = repos
	}
}

// WithLogger routes service logs to logger.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// SeedUser stores a user fixture and returns it.
func (f *ServiceFactory) SeedUser(tb testing.TB, opts ...UserOption) UserFixture {
	tb.Helper()
	fixture := NewUserFixture(opts...)
	if err := f.Repositories.Users.Save(context.Background(), fixture.Domain()); err != nil {
		tb.Fatalf("failed to seed user: %v", err)
	}
	return fixture
}

func (f *ServiceFactory) NewLocationService() *application.LocationService {
	r := f.Repositories
	return application.NewLocationServiceWithLogger(r.Buildings, r.Floors, r.Rooms, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

func (f *ServiceFactory) NewEquipmentService() *application.EquipmentService {
	r := f.Repositories
	return application.NewEquipmentServiceWithLogger(r.Equipment, r.Users, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

func (f *ServiceFactory) NewCategoryService() *application.CategoryService {
	return application.NewCategoryServiceWithLogger(f.Repositories.Categories, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

func (f *ServiceFactory) NewReservationService() *application.ReservationService {
	r := f.Repositories
	return application.NewReservationServiceWithLogger(r.Reservations, r.Equipment, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

func (f *ServiceFactory) NewMaintenanceService() *application.MaintenanceService {
	r := f.Repositories
	return application.NewMaintenanceServiceWithLogger(r.Maintenance, r.Equipment, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

func (f *ServiceFactory) NewCommentService() *application.CommentService {
	r := f.Repositories
	return application.NewCommentServiceWithLogger(r.Comments, r.Equipment, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

func (f *ServiceFactory) NewUserService() *application.UserService {
	return application.NewUserServiceWithLogger(f.Repositories.Users, f.Hasher, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewAuthService builds an auth service issuing tokens with tokens.
func (f *ServiceFactory) NewAuthService(tokens application.TokenIssuer) *application.AuthService {
	return application.NewAuthServiceWithLogger(f.Repositories.Users, f.Hasher, tokens, f.Clock.NowFunc(), f.Logger)
}

// NewSettingService builds a setting service caching reads for cacheTTL.
func (f *ServiceFactory) NewSettingService(cacheTTL time.Duration, defaultLocation *time.Location) *application.SettingService {
	return application.NewSettingServiceWithLogger(f.Repositories.Settings, cacheTTL, defaultLocation, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}
