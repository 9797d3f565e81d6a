// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package entity

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Error messages.
var (
	ErrNoPrimary  = "entity: %s has no primary key set"
	ErrValidation = "entity: %s is not valid: %w"
	ErrNotLazy    = "entity: field %#v of %s holds no lazy reference"
)

// validate checks the `validate` struct tags (github.com/go-playground/validator).
var validate = validator.New()

// IsValid runs the declared validations of the entity struct.
func IsValid(v Interface) error {
	d, err := DefinitionOf(v)
	if err != nil {
		return err
	}
	if err := validate.Struct(v); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return err
		}
		return fmt.Errorf(ErrValidation, d.Name, err)
	}
	return nil
}

// Create validates and inserts the instance.
// The primary key and database generated columns are set after the call.
// Versioned entities soft-delete the previous version and get the next
// version counter.
func Create(v Interface) error {
	d, err := DefinitionOf(v)
	if err != nil {
		return err
	}
	if err := IsValid(v); err != nil {
		return err
	}

	data, err := ProcessData(d, v)
	if err != nil {
		return err
	}

	s, err := strategyByName(defaultStrategy)
	if err != nil {
		return err
	}
	return s.Insert(d, v, data)
}

// Update validates and writes the instance by its primary key.
// If columns are given, only those logical columns are written.
func Update(v Interface, columns ...string) error {
	d, err := DefinitionOf(v)
	if err != nil {
		return err
	}
	if v.PrimaryKey() == 0 {
		return fmt.Errorf(ErrNoPrimary, d.Name)
	}
	if err := IsValid(v); err != nil {
		return err
	}
	if err := d.EnsureWritable(columns); err != nil {
		return err
	}

	data, err := ProcessData(d, v, columns...)
	if err != nil {
		return err
	}

	s, err := strategyByName(defaultStrategy)
	if err != nil {
		return err
	}
	return s.Update(d, v, data)
}

// Delete removes the instance by its primary key.
// Soft-delete entities are marked with deleted_at instead of being removed.
func Delete(v Interface) error {
	d, err := DefinitionOf(v)
	if err != nil {
		return err
	}
	if v.PrimaryKey() == 0 {
		return fmt.Errorf(ErrNoPrimary, d.Name)
	}

	s, err := strategyByName(defaultStrategy)
	if err != nil {
		return err
	}
	return s.Delete(d, v)
}

// Load resolves a lazy relation field into instances.
// Relations which were not joined in a query only carry their fk ids, the
// first access has to load them explicitly.
func Load(v Interface, field string) error {
	d, err := DefinitionOf(v)
	if err != nil {
		return err
	}
	col, err := d.Column(field)
	if err != nil {
		return err
	}

	ref, ok := v.LazyRefs()[col.Field]
	if !ok {
		return fmt.Errorf(ErrNotLazy, field, d.Name)
	}

	s, err := strategyByName(defaultStrategy)
	if err != nil {
		return err
	}

	instances := make([]Interface, 0, len(ref.IDs))
	for i, id := range ref.IDs {
		targetDef, err := d.referenceDefinition(col, ref, i)
		if err != nil {
			return err
		}
		instance, err := s.Load(targetDef, id)
		if err != nil {
			return err
		}
		instances = append(instances, instance)
	}

	if err := d.AssignReference(v, col, instances); err != nil {
		return err
	}

	if b, ok := baseOf(v); ok {
		b.DeleteLazyRef(col.Field)
	}
	return nil
}
