package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/testfixtures"
)

// env bundles a service factory with one user per role.
type env struct {
	*testfixtures.ServiceFactory
	admin   testfixtures.UserFixture
	editor  testfixtures.UserFixture
	general testfixtures.UserFixture
	other   testfixtures.UserFixture
}

func newEnv(t *testing.T) *env {
	t.Helper()
	factory := testfixtures.NewServiceFactory()
	return &env{
		ServiceFactory: factory,
		admin:          factory.SeedUser(t, testfixtures.WithUserRole(domain.RoleAdmin)),
		editor:         factory.SeedUser(t, testfixtures.WithUserRole(domain.RoleEditor)),
		general:        factory.SeedUser(t),
		other:          factory.SeedUser(t),
	}
}

func (e *env) seedEquipment(t *testing.T, opts ...testfixtures.EquipmentOption) domain.Equipment {
	t.Helper()
	equipment := testfixtures.NewEquipment(opts...)
	require.NoError(t, e.Repositories.Equipment.Save(context.Background(), equipment))
	return equipment
}

func at(hour, minute int) time.Time {
	return time.Date(2024, time.January, 1, hour, minute, 0, 0, time.UTC)
}

// recordingMetrics captures what services report.
type recordingMetrics struct {
	mu         sync.Mutex
	operations map[string]int
	conflicts  int
	observed   []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{operations: make(map[string]int)}
}

func (m *recordingMetrics) ObserveOperation(service, operation string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observed = append(m.observed, service+"."+operation)
}

func (m *recordingMetrics) ReservationOperation(operation, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[operation+"/"+result]++
}

func (m *recordingMetrics) ReservationConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}
