// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package registry provides a simple container for values in the application space.
// It is used to register providers (dialects, logger backends, query strategies)
// under a prefixed name so that packages can be decoupled from each other.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Error messages
var (
	ErrUnknownEntry       = "registry: unknown registry name %#v, maybe you forgot to set it"
	ErrMandatoryArguments = errors.New("registry: one or more arguments have a zero-value")
	ErrAlreadyExists      = "registry: %v is already registered"
)

var (
	mu       sync.RWMutex
	registry = make(map[string]interface{})
)

// Set a value by name.
// The name and value argument must have a non-zero value, and the registered name must be unique.
func Set(name string, value interface{}) error {
	if value == nil || name == "" {
		return ErrMandatoryArguments
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		return fmt.Errorf(ErrAlreadyExists, name)
	}
	registry[name] = value
	return nil
}

// Get returns the value by the registered name.
// If the registry name does not exist, an error will return.
func Get(name string) (interface{}, error) {
	mu.RLock()
	defer mu.RUnlock()
	value, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf(ErrUnknownEntry, name)
	}
	return value, nil
}

// Exists checks if the name is already registered.
func Exists(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[name]
	return ok
}

// Prefix returns all entries which name start with this prefix.
// If none was found, nil will return.
func Prefix(prefix string) []interface{} {
	mu.RLock()
	defer mu.RUnlock()
	var rv []interface{}
	for n, v := range registry {
		if strings.HasPrefix(n, prefix) {
			rv = append(rv, v)
		}
	}
	return rv
}
