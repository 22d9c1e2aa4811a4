package version_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopcast/loopcast/internal/api/models"
	"github.com/loopcast/loopcast/internal/version"
)

func newTestService(t *testing.T) *version.Service {
	t.Helper()
	return version.NewService(version.ServiceConfig{
		Repository: version.NewInMemoryRepository(),
		Logger:     zerolog.Nop(),
	})
}

func strPtr(s string) *string { return &s }

func androidRelease(model string) models.VersionCreateRequest {
	return models.VersionCreateRequest{
		DeviceModel: model,
		Android:     strPtr("4.2.0"),
		AndroidURL:  strPtr("https://builds.loopcast.io/" + model + "/4.2.0.apk"),
	}
}

func TestService_Create(t *testing.T) {
	svc := newTestService(t)

	v, err := svc.Create(context.Background(), models.VersionCreateRequest{
		DeviceModel: "loopcast-mini",
		Android:     strPtr("4.2.0"),
		AndroidURL:  strPtr("https://builds.loopcast.io/mini/4.2.0.apk"),
		IOS:         strPtr("4.2.1"),
		IOSURL:      strPtr("https://builds.loopcast.io/mini/4.2.1.ipa"),
	})
	require.NoError(t, err)

	assert.NotZero(t, v.ID)
	assert.Equal(t, "loopcast-mini", v.DeviceModel)
	require.NotNil(t, v.Android)
	assert.Equal(t, "4.2.0", *v.Android)
	require.NotNil(t, v.IOSURL)
	assert.Equal(t, "https://builds.loopcast.io/mini/4.2.1.ipa", *v.IOSURL)
	assert.NotZero(t, v.CreatedAt)
}

func TestService_Create_SinglePlatform(t *testing.T) {
	svc := newTestService(t)

	v, err := svc.Create(context.Background(), androidRelease("loopcast-mini"))
	require.NoError(t, err)

	assert.NotNil(t, v.Android)
	assert.Nil(t, v.IOS)
	assert.Nil(t, v.IOSURL)
}

func TestService_Create_DuplicateModel(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, androidRelease("loopcast-mini"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, androidRelease("loopcast-mini"))
	assert.ErrorIs(t, err, version.ErrVersionExists)
}

func TestService_Create_Validation(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name  string
		req   models.VersionCreateRequest
		field string
	}{
		{
			"missing model",
			models.VersionCreateRequest{Android: strPtr("1.0"), AndroidURL: strPtr("https://x.example/a.apk")},
			"deviceModel",
		},
		{
			"no platform",
			models.VersionCreateRequest{DeviceModel: "m"},
			"android",
		},
		{
			"android without url",
			models.VersionCreateRequest{DeviceModel: "m", Android: strPtr("1.0")},
			"androidUrl",
		},
		{
			"ios url without build name",
			models.VersionCreateRequest{
				DeviceModel: "m",
				Android:     strPtr("1.0"),
				AndroidURL:  strPtr("https://x.example/a.apk"),
				IOSURL:      strPtr("https://x.example/a.ipa"),
			},
			"ios",
		},
		{
			"relative url",
			models.VersionCreateRequest{DeviceModel: "m", Android: strPtr("1.0"), AndroidURL: strPtr("/a.apk")},
			"androidUrl",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)

			var verr *version.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Errors[0].Field)
		})
	}
}

func TestService_ResolveName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, androidRelease("loopcast-mini"))
	require.NoError(t, err)

	id, err := svc.ResolveName(ctx, "loopcast-mini")
	require.NoError(t, err)
	assert.Equal(t, created.ID, id)

	_, err = svc.ResolveName(ctx, "unknown-model")
	assert.ErrorIs(t, err, version.ErrVersionNotFound)
}

func TestService_Delete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, androidRelease("loopcast-mini"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), version.ErrVersionNotFound)
}
