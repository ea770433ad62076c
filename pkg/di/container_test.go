package di

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-association-cache/cache"
	"github.com/goliatone/go-association-cache/entity"
	"github.com/goliatone/go-association-cache/pkg/testsupport"
)

func TestNewContainer(t *testing.T) {
	config := cache.Config{
		Backend:            cache.BackendSturdyc,
		Capacity:           1000,
		NumShards:          16,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
		Enabled:            true,
	}

	container, err := NewContainer(config, testsupport.OpenSeeded(t), WithSwitch(cache.NewSwitch(false)))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}

	if container.Store() == nil {
		t.Error("Container should have a non-nil store")
	}
	if container.BatchLoader() == nil || container.Associations() == nil {
		t.Error("Container should wire a batch loader and an association registry")
	}
	if container.Codec().Types() != container.Types() {
		t.Error("codec should resolve types through the container registry")
	}

	storedConfig := container.Config()
	if storedConfig.Capacity != config.Capacity {
		t.Errorf("Expected capacity %d, got %d", config.Capacity, storedConfig.Capacity)
	}
	if storedConfig.TTL != config.TTL {
		t.Errorf("Expected TTL %v, got %v", config.TTL, storedConfig.TTL)
	}
}

func TestNewContainerWithDefaults(t *testing.T) {
	container, err := NewContainerWithDefaults(testsupport.OpenSeeded(t), WithSwitch(cache.NewSwitch(false)))
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}

	config := container.Config()
	defaultConfig := cache.DefaultConfig()
	if config.Backend != defaultConfig.Backend {
		t.Errorf("Expected default backend %q, got %q", defaultConfig.Backend, config.Backend)
	}
	if !container.Switch().Active() {
		t.Error("Expected default config to enable caching")
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	invalidConfig := cache.Config{
		Backend:            cache.BackendSturdyc,
		Capacity:           0,
		NumShards:          16,
		TTL:                time.Minute,
		EvictionPercentage: 10,
	}

	container, err := NewContainer(invalidConfig, testsupport.OpenSeeded(t), WithSwitch(cache.NewSwitch(false)))
	if err == nil {
		t.Fatal("NewContainer() should fail with invalid config")
	}
	if container != nil {
		t.Error("NewContainer() should return nil container on error")
	}
}

func TestNewContainer_EnabledSeedsSwitch(t *testing.T) {
	sw := cache.NewSwitch(true)
	config := cache.DefaultConfig()
	config.Enabled = false

	if _, err := NewContainer(config, testsupport.OpenSeeded(t), WithSwitch(sw)); err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	if sw.Active() {
		t.Error("Expected Enabled=false to turn the switch off")
	}
}

func TestNewContainer_SwitchesAreIndependent(t *testing.T) {
	enabled := cache.DefaultConfig()
	disabled := cache.DefaultConfig()
	disabled.Enabled = false

	first, err := NewContainer(enabled, testsupport.OpenSeeded(t))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	second, err := NewContainer(disabled, testsupport.OpenSeeded(t))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}

	if first.Switch() == second.Switch() {
		t.Fatal("Expected each container to own its switch")
	}
	if first.Switch() == cache.Default() {
		t.Error("Expected a private switch unless the process-wide one is supplied")
	}
	if !first.Switch().Active() {
		t.Error("Expected the first container to stay enabled after the second was built")
	}
	if second.Switch().Active() {
		t.Error("Expected the second container to be disabled")
	}
}

func TestNewContainer_ProcessSwitch(t *testing.T) {
	restore := cache.Default().Disable()
	t.Cleanup(restore)

	container, err := NewContainerWithDefaults(testsupport.OpenSeeded(t), WithSwitch(cache.Default()))
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}
	if container.Switch() != cache.Default() {
		t.Error("Expected the supplied process-wide switch")
	}
	if !cache.Active() {
		t.Error("Expected the process-wide switch to be on")
	}
}

func TestContainerSingletonBehavior(t *testing.T) {
	types := entity.NewTypes()
	testsupport.RegisterTypes(types)

	container, err := NewContainerWithDefaults(testsupport.OpenSeeded(t), WithTypes(types), WithSwitch(cache.NewSwitch(false)))
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}

	if container.Store() != container.Store() {
		t.Error("Store() should return the same instance")
	}
	if container.BatchLoader().Store() != container.Store() {
		t.Error("BatchLoader should use the container store")
	}
	if container.Types() != types {
		t.Error("Types() should return the supplied registry")
	}
}

func TestContainerCollector(t *testing.T) {
	container, err := NewContainerWithDefaults(testsupport.OpenSeeded(t), WithSwitch(cache.NewSwitch(true)))
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}

	if err := container.Store().Put(context.Background(), "User::1", "carrot"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	expected := `
# HELP app_association_cache_entries Entries currently held by the association cache.
# TYPE app_association_cache_entries gauge
app_association_cache_entries 1
`
	if err := testutil.CollectAndCompare(container.Collector("app"), strings.NewReader(expected), "app_association_cache_entries"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}
