package dynamic

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productDefinition() *ModelDefinition {
	return &ModelDefinition{
		AppName: "shop",
		Name:    "Product",
		Fields: []FieldDefinition{
			{Name: "title", Type: FieldString, MaxLength: 100},
		},
	}
}

func TestRegistryGetOrBuild(t *testing.T) {
	r := NewRegistry()
	builds := 0

	h, err := r.GetOrBuild("shop.Product", func() (*ModelDefinition, error) {
		builds++
		return productDefinition(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "shop_product", h.Table)
	assert.Equal(t, 1, builds)

	// Second call hits the cache.
	again, err := r.GetOrBuild("shop.Product", func() (*ModelDefinition, error) {
		builds++
		return productDefinition(), nil
	})
	require.NoError(t, err)
	assert.Same(t, h, again)
	assert.Equal(t, 1, builds)
}

func TestRegistryBuildErrorNotCached(t *testing.T) {
	r := NewRegistry()

	_, err := r.GetOrBuild("shop.Broken", func() (*ModelDefinition, error) {
		return nil, errors.New("definition missing")
	})
	require.Error(t, err)

	_, ok := r.Get("shop.Broken")
	assert.False(t, ok, "failed builds must not be cached")
}

func TestRegistryRejectsInvalidDefinition(t *testing.T) {
	r := NewRegistry()
	_, err := r.GetOrBuild("shop.Bad", func() (*ModelDefinition, error) {
		return &ModelDefinition{Name: "Bad"}, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no fields")
}

func TestRegistryEvict(t *testing.T) {
	r := NewRegistry()
	_, err := r.GetOrBuild("shop.Product", func() (*ModelDefinition, error) {
		return productDefinition(), nil
	})
	require.NoError(t, err)

	r.Evict("shop.Product")
	_, ok := r.Get("shop.Product")
	assert.False(t, ok)

	// Evicting an absent entry is fine.
	r.Evict("shop.Nope")
	assert.Empty(t, r.Names())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	builds := 0

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.GetOrBuild("shop.Product", func() (*ModelDefinition, error) {
				builds++
				return productDefinition(), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, builds, "concurrent callers must share a single build")
	assert.Equal(t, []string{"shop.Product"}, r.Names())
}
