// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package entity

import (
	"fmt"

	"github.com/patrickascher/norm/registry"
)

// registry prefix for strategies.
const registryStrategyPrefix = "strategy_"

// defaultStrategy used by the crud functions.
// The eager strategy is registered by the query package.
const defaultStrategy = "eager"

// Strategy decouples the entity crud functions from the sql layer.
// The query package registers the eager implementation.
type Strategy interface {
	// Insert the instance, data holds the serialized physical column values.
	// The primary key and database generated columns must be set on v.
	Insert(d *Definition, v Interface, data map[string]interface{}) error
	// Update the instance by its primary key.
	Update(d *Definition, v Interface, data map[string]interface{}) error
	// Delete the instance by its primary key.
	// Soft-delete entities are marked as deleted instead.
	Delete(d *Definition, v Interface) error
	// Load one instance by its primary key, including soft-deleted rows.
	Load(d *Definition, id int64) (Interface, error)
}

// RegisterStrategy registers a load/write strategy by name.
func RegisterStrategy(name string, s Strategy) error {
	return registry.Set(registryStrategyPrefix+name, s)
}

// strategyByName returns a registered strategy.
func strategyByName(name string) (Strategy, error) {
	s, err := registry.Get(registryStrategyPrefix + name)
	if err != nil {
		return nil, fmt.Errorf("entity: %w", err)
	}
	return s.(Strategy), nil
}
