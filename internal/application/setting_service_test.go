package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/equipment-reservation/internal/application"
	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/testfixtures"
)

func TestSettingService(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	svc := e.NewSettingService(time.Minute, tokyo)

	assert.Equal(t, tokyo, svc.Timezone(ctx), "default applies until a timezone is stored")

	_, err = svc.Set(ctx, application.SetSettingParams{Principal: e.editor.Principal(), Key: domain.SettingTimezone, Value: "UTC"})
	assert.ErrorIs(t, err, application.ErrForbidden)

	_, err = svc.Set(ctx, application.SetSettingParams{Principal: e.admin.Principal(), Key: domain.SettingTimezone, Value: "Mars/Olympus"})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, application.MsgInvalidTimezone, vErr.Message)

	stored, err := svc.Set(ctx, application.SetSettingParams{Principal: e.admin.Principal(), Key: domain.SettingTimezone, Value: "Europe/Berlin"})
	require.NoError(t, err)
	by, ok := stored.UpdatedBy()
	assert.True(t, ok)
	assert.Equal(t, e.admin.Input.ID, by)
	assert.Equal(t, "Europe/Berlin", svc.Timezone(ctx).String())

	got, err := svc.Get(ctx, e.general.Principal(), domain.SettingTimezone)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", got.Value())

	_, err = svc.Get(ctx, e.general.Principal(), "missing")
	assert.ErrorIs(t, err, application.ErrNotFound)

	listed, err := svc.List(ctx, e.general.Principal())
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestSettingService_CacheIsInvalidatedOnSet(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := e.NewSettingService(time.Hour, nil)

	require.NoError(t, e.Repositories.Settings.Save(ctx, testfixtures.NewSetting("banner", "hello", testfixtures.ReferenceTime())))
	got, err := svc.Get(ctx, e.general.Principal(), "banner")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Value())

	require.NoError(t, e.Repositories.Settings.Save(ctx, testfixtures.NewSetting("banner", "changed behind the cache", testfixtures.ReferenceTime())))
	got, err = svc.Get(ctx, e.general.Principal(), "banner")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Value(), "served from cache")

	_, err = svc.Set(ctx, application.SetSettingParams{Principal: e.admin.Principal(), Key: "banner", Value: "updated"})
	require.NoError(t, err)
	got, err = svc.Get(ctx, e.general.Principal(), "banner")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Value())

	assert.Equal(t, time.UTC, svc.Timezone(ctx))
}
