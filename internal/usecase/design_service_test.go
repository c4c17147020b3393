package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decorlens/backend/internal/domain"
)

func newTestDesignService(cache domain.CacheRepository, generators ...domain.ImageGenerator) (*DesignService, *MockImageStore) {
	store := NewMockImageStore()
	service := NewDesignService(generators, store, cache, DesignServiceConfig{
		PublicBaseURL: "http://localhost:8000/",
	}, nil)
	return service, store
}

func validGenerateRequest(provider string) *domain.GenerateRequest {
	return &domain.GenerateRequest{
		Image:    pngBytes(),
		Filename: "room.png",
		RoomType: "Living Room",
		Style:    "Modern",
		Budget:   300000,
		Provider: provider,
	}
}

func TestDesignService_Generate_Success(t *testing.T) {
	generator := NewMockGenerator("offline")
	service, store := newTestDesignService(nil, generator)

	response, err := service.Generate(context.Background(), validGenerateRequest("offline"))

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/generated/offline_output.png", response.ImageURL)
	assert.Equal(t, "offline", response.ProviderUsed)
	assert.Equal(t, int64(250000), response.EstimatedCost)
	assert.Equal(t, int64(300000), response.Budget)
	assert.Equal(t, domain.BudgetWithin, response.Status)
	assert.False(t, response.Cached)
	assert.GreaterOrEqual(t, response.TotalTimeSec, response.TimeTakenSec)

	assert.Equal(t, 1, generator.calls)
	assert.Contains(t, generator.lastInput.Prompt, "living room")
	assert.Contains(t, generator.lastInput.Prompt, "modern style")
	assert.NotEmpty(t, generator.lastInput.NegativePrompt)
	assert.Contains(t, store.uploads, "uploads/room.png")
	assert.Contains(t, store.generated, "offline_output.png")
}

func TestDesignService_Generate_OverBudget(t *testing.T) {
	service, _ := newTestDesignService(nil, NewMockGenerator("offline"))

	request := validGenerateRequest("offline")
	request.Style = "Professional"
	request.Budget = 100000

	response, err := service.Generate(context.Background(), request)

	require.NoError(t, err)
	assert.Equal(t, int64(300000), response.EstimatedCost)
	assert.Equal(t, domain.BudgetOver, response.Status)
}

func TestDesignService_Generate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *domain.GenerateRequest)
		wantErr error
	}{
		{
			name:    "unknown provider",
			mutate:  func(r *domain.GenerateRequest) { r.Provider = "midjourney" },
			wantErr: domain.ErrInvalidProvider,
		},
		{
			name:    "empty image",
			mutate:  func(r *domain.GenerateRequest) { r.Image = nil },
			wantErr: domain.ErrInvalidImage,
		},
		{
			name:    "missing style",
			mutate:  func(r *domain.GenerateRequest) { r.Style = " " },
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "missing room type",
			mutate:  func(r *domain.GenerateRequest) { r.RoomType = "" },
			wantErr: domain.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := NewMockGenerator("offline")
			service, _ := newTestDesignService(nil, generator, NewMockGenerator("replicate"))

			request := validGenerateRequest("offline")
			tt.mutate(request)

			response, err := service.Generate(context.Background(), request)

			assert.Nil(t, response)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, domain.IsClientError(err))
			assert.Equal(t, 0, generator.calls)
		})
	}
}

func TestDesignService_Generate_UnknownProviderListsValid(t *testing.T) {
	service, _ := newTestDesignService(nil, NewMockGenerator("replicate"), NewMockGenerator("offline"))

	_, err := service.Generate(context.Background(), validGenerateRequest("dalle"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), `"dalle"`)
	assert.Contains(t, err.Error(), "offline, replicate")
}

func TestDesignService_Generate_NilRequest(t *testing.T) {
	service, _ := newTestDesignService(nil, NewMockGenerator("offline"))

	_, err := service.Generate(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestDesignService_Generate_ProviderFailure(t *testing.T) {
	generator := NewMockGenerator("replicate")
	generator.err = errors.New("replicate returned status 502")
	service, store := newTestDesignService(nil, generator)

	_, err := service.Generate(context.Background(), validGenerateRequest("replicate"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.False(t, domain.IsClientError(err))
	assert.Contains(t, err.Error(), "status 502")
	assert.Empty(t, store.generated)
}

func TestDesignService_Generate_MissingCredentialIsClientError(t *testing.T) {
	generator := NewMockGenerator("hf")
	generator.err = fmt.Errorf("%w: set DECORLENS_HF_API_TOKEN", domain.ErrMissingCredential)
	service, _ := newTestDesignService(nil, generator)

	_, err := service.Generate(context.Background(), validGenerateRequest("hf"))

	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.NotErrorIs(t, err, domain.ErrProviderFailure)
	assert.True(t, domain.IsClientError(err))
}

func TestDesignService_Generate_StorageFailure(t *testing.T) {
	service, store := newTestDesignService(nil, NewMockGenerator("offline"))
	store.saveError = errors.New("disk full")

	_, err := service.Generate(context.Background(), validGenerateRequest("offline"))

	assert.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.False(t, domain.IsClientError(err))
}

func TestDesignService_Generate_UndecodableImage(t *testing.T) {
	generator := NewMockGenerator("offline")
	service, store := newTestDesignService(nil, generator)
	store.prepareError = errors.New("image: unknown format")

	_, err := service.Generate(context.Background(), validGenerateRequest("offline"))

	assert.ErrorIs(t, err, domain.ErrInvalidImage)
	assert.Equal(t, 0, generator.calls)
}

func TestDesignService_Generate_CacheHit(t *testing.T) {
	cache := NewMockCacheRepository()
	generator := NewMockGenerator("offline")
	service, store := newTestDesignService(cache, generator)

	first, err := service.Generate(context.Background(), validGenerateRequest("offline"))
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.True(t, cache.setCalled)

	key := "generation:" + store.hash + "_modern_living room_offline"
	assert.Equal(t, "offline_output.png", cache.data[key])

	second, err := service.Generate(context.Background(), validGenerateRequest("offline"))
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.ImageURL, second.ImageURL)
	assert.Equal(t, first.EstimatedCost, second.EstimatedCost)
	assert.Equal(t, 1, generator.calls, "cache hit must not call the generator")
}

func TestDesignService_Generate_CacheEntryWithoutFile(t *testing.T) {
	cache := NewMockCacheRepository()
	generator := NewMockGenerator("offline")
	service, store := newTestDesignService(cache, generator)

	cache.data["generation:"+store.hash+"_modern_living room_offline"] = "deleted.png"

	response, err := service.Generate(context.Background(), validGenerateRequest("offline"))

	require.NoError(t, err)
	assert.False(t, response.Cached)
	assert.Equal(t, 1, generator.calls)
}

func TestDesignService_Generate_CacheErrorsAreNotFatal(t *testing.T) {
	cache := NewMockCacheRepository()
	cache.getError = domain.ErrCacheUnavailable
	cache.setError = domain.ErrCacheUnavailable
	generator := NewMockGenerator("offline")
	service, _ := newTestDesignService(cache, generator)

	response, err := service.Generate(context.Background(), validGenerateRequest("offline"))

	require.NoError(t, err)
	assert.False(t, response.Cached)
	assert.True(t, cache.getCalled)
	assert.Equal(t, 1, generator.calls)
}

func TestDesignService_ProvidersAndStatus(t *testing.T) {
	hf := NewMockGenerator("hf")
	hf.configured = false
	service, _ := newTestDesignService(nil, NewMockGenerator("replicate"), hf, NewMockGenerator("offline"))

	assert.Equal(t, []string{"hf", "offline", "replicate"}, service.Providers())
	assert.Equal(t, map[string]bool{"hf": false, "offline": true, "replicate": true}, service.ProviderStatus())
}
