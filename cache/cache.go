// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cache provides a cache manager for any type that implements the cache.Interface.
// The orm uses it to keep parsed entity definitions, so the reflection on the
// struct only happens once per type.
package cache

import (
	"fmt"
	"time"

	"github.com/patrickascher/norm/registry"
)

// Defaults
const (
	// DefaultExpiration of the cache provider.
	DefaultExpiration = 0
	// NoExpiration for the cache item.
	NoExpiration = -1
)

// registryPrefix for the providers registry name.
const registryPrefix = "cache_"

// All predefined providers are listed here.
const (
	MEMORY = "memory"
)

type providerFn func(opt interface{}) (Interface, error)

// managerCache of initialized providers.
var managerCache = make(map[string]Manager)

// Interface description for cache providers.
type Interface interface {
	// Get returns an Item by its name.
	// Error must return if it does not exist.
	Get(name string) (Item, error)
	// All cached items.
	// Must return nil if the cache is empty.
	All() ([]Item, error)
	// Set an item by its name, value and lifetime.
	// If cache.NoExpiration is set, the item should not get deleted.
	Set(name string, value interface{}, exp time.Duration) error
	// Delete a value by its name.
	// Error must return if it does not exist.
	Delete(name string) error
	// DeleteAll items.
	DeleteAll() error
	// GC will be called once as goroutine.
	// If the cache backend has its own garbage collector (redis, memcached, ...) just return void in this method.
	GC()
}

// Item interface for the cached object.
type Item interface {
	Name() string
	Value() interface{}
	Created() time.Time
	Expiration() time.Duration
}

// Manager for cache operations.
type Manager interface {
	Get(name string) (Item, error)
	All() ([]Item, error)
	Set(name string, value interface{}, exp time.Duration) error
	Exist(name string) bool
	Delete(name string) error
	DeleteAll() error

	SetDefaultExpiration(duration time.Duration)
}

// New returns a specific cache provider by its name and given options.
// For the specific provider options please check out the provider details.
// If the provider is not registered an error will return.
// The provider initialization only happens once (calling the GC() function), after that a reference will return.
func New(provider string, options interface{}) (Manager, error) {

	provider = registryPrefix + provider
	// if a provider is already initialized, a manager reference will return.
	if p, exists := managerCache[provider]; exists {
		return p, nil
	}

	// get the registry entry.
	instanceFn, err := registry.Get(provider)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	// add to the provider cache to avoid re-initialization.
	p, err := instanceFn.(providerFn)(options)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	managerCache[provider] = newManager(p)

	// call the garbage collector.
	go p.GC()

	return managerCache[provider], nil
}

// Register a new cache provider by name.
func Register(name string, provider providerFn) error {
	return registry.Set(registryPrefix+name, provider)
}

// manager wraps the provider with a default expiration.
type manager struct {
	defaultExpiration time.Duration
	provider          Interface
}

// newManager returns a Manager with initialized data.
func newManager(provider Interface) Manager {
	return &manager{
		defaultExpiration: 1 * time.Hour,
		provider:          provider,
	}
}

// SetDefaultExpiration for cache items.
func (m *manager) SetDefaultExpiration(exp time.Duration) {
	m.defaultExpiration = exp
}

// Get returns an Item by its name.
// Error will return if it does not exist.
func (m *manager) Get(name string) (Item, error) {
	i, err := m.provider.Get(name)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return i, nil
}

// All cached items.
func (m *manager) All() ([]Item, error) {
	items, err := m.provider.All()
	if err != nil {
		// wrapping the provider err for a better stack
		return nil, fmt.Errorf("cache: %w", err)
	}
	return items, nil
}

// Set an item by its name, value and lifetime.
// If a value should not get deleted by the garbage collector, cache.NoExpiration can be used as time.Duration.
// If the default expiration should be used, use cache.DefaultExpiration.
func (m *manager) Set(name string, value interface{}, exp time.Duration) error {
	// check if the default expiration was set.
	if exp == DefaultExpiration {
		exp = m.defaultExpiration
	}
	err := m.provider.Set(name, value, exp)
	if err != nil {
		// wrapping the provider err for a better stack
		err = fmt.Errorf("cache: %w", err)
	}
	return err
}

// Exist wraps the Get() function but returns a boolean instead an error.
func (m *manager) Exist(name string) bool {
	_, err := m.Get(name)
	return err == nil
}

// Delete a value by its name.
// Error will return if it does not exist.
func (m *manager) Delete(name string) error {
	err := m.provider.Delete(name)
	if err != nil {
		// wrapping the provider err for a better stack
		err = fmt.Errorf("cache: %w", err)
	}
	return err
}

// DeleteAll items.
func (m *manager) DeleteAll() error {
	err := m.provider.DeleteAll()
	if err != nil {
		// wrapping the provider err for a better stack
		err = fmt.Errorf("cache: %w", err)
	}
	return err
}
