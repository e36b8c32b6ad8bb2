package core

import (
	"fmt"
	"sync"
)

var (
	registry      = make(map[DatasetKey]Dataset)
	registryOrder []DatasetKey
	registryMu    sync.RWMutex
)

func init() {
	Register(ProductCatalog)
	Register(ECommerce)
}

// Register adds a dataset definition to the registry.
// Panics if a dataset with the same key is already registered.
func Register(ds Dataset) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[ds.Key]; exists {
		panic(fmt.Sprintf("dataset already registered: %s", ds.Key))
	}
	if ds.Valid == nil {
		panic(fmt.Sprintf("dataset %s has no validity predicate", ds.Key))
	}

	registry[ds.Key] = ds
	registryOrder = append(registryOrder, ds.Key)
}

// Lookup returns a dataset definition by key.
func Lookup(key DatasetKey) (Dataset, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ds, ok := registry[key]
	return ds, ok
}

// ParseDatasetKey resolves a path or flag value to a registered dataset.
func ParseDatasetKey(s string) (DatasetKey, error) {
	key := DatasetKey(s)
	if _, ok := Lookup(key); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDataset, s)
	}
	return key, nil
}

// Datasets returns all registered datasets in registration order.
func Datasets() []Dataset {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Dataset, 0, len(registryOrder))
	for _, key := range registryOrder {
		result = append(result, registry[key])
	}
	return result
}

// DatasetCount returns the number of registered datasets.
func DatasetCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}
