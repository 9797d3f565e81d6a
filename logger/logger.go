// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package logger provides a small logging facade.
// Providers are registered by name and wrap an existing go logger, so the
// backend can be swapped without touching the database or query code.
// Fields and a timer can be added to an entry, which is used to log the
// duration of executed sql statements.
package logger

import (
	"errors"
	"fmt"
	"time"

	"github.com/patrickascher/norm/registry"
)

// ErrProvider - Error message.
var ErrProvider = errors.New("logger: provider does not implement logger.Manager")

// registryPrefix for the registry package.
const registryPrefix = "logger_"

// Level - the higher the more critical
const (
	DEBUG Level = iota
	INFO
	WARNING
	ERROR
)

// Level type
type Level int32

// String converts the level code.
func (lvl Level) String() string {
	switch lvl {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	default:
		return "unknown level"
	}
}

// Provider interface.
type Provider interface {
	Log(Entry)
}

// Manager interface.
type Manager interface {
	Debug(string)
	Info(msg string)
	Warning(msg string)
	Error(msg string)

	New() Manager
	WithFields(Fields) Manager
	WithTimer() Manager

	SetLogLevel(Level)
}

// Fields can be used to add more details to a log message.
type Fields map[string]interface{}

// Map converts the Fields to a map[string]interface{}.
// This can be handy for some providers.
func (f Fields) Map() map[string]interface{} {
	return f
}

// Entry struct holds all information for the log message.
type Entry struct {
	Level     Level
	Timestamp time.Time
	Message   string
	Fields    Fields
}

// manager struct holds the provider and fields information.
// timer will be used for duration calculation.
type manager struct {
	provider Provider
	fields   Fields

	timer time.Time
	lvl   Level
}

// Register a new logger provider by name.
func Register(name string, provider Provider) error {
	return registry.Set(registryPrefix+name, &manager{provider: provider})
}

// Get a logger by the registered name.
// Default log level is DEBUG.
func Get(name string) (Manager, error) {
	manager, err := registry.Get(registryPrefix + name)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	// check if interface is implemented, because user could have registered it directly (registry.Set()).
	if m, ok := manager.(Manager); ok {
		return m, nil
	}

	return nil, ErrProvider
}

// SetLogLevel will define the log level.
// Only messages equal or greater levels will be logged.
func (m *manager) SetLogLevel(b Level) {
	m.lvl = b
}

// New creates a new instance.
// This can be useful if a different log level is needed than global defined.
func (m manager) New() Manager {
	manager := manager{lvl: m.lvl, provider: m.provider, fields: m.fields}
	return &manager
}

// WithTimer will add the field "duration" to the Entry.
// It will create a new instance.
func (m manager) WithTimer() Manager {
	instance := m.New().(*manager)
	instance.timer = time.Now()
	return instance
}

// WithFields will create a new Manager with the given fields.
// It will create a new instance.
func (m manager) WithFields(fields Fields) Manager {
	instance := m.New().(*manager)
	instance.fields = fields
	if !m.timer.IsZero() {
		instance.timer = m.timer
	}
	return instance
}

// Debug log.
func (m manager) Debug(msg string) {
	if DEBUG >= m.lvl {
		m.provider.Log(m.newEntry(msg, DEBUG))
	}
}

// Info log.
func (m manager) Info(msg string) {
	if INFO >= m.lvl {
		m.provider.Log(m.newEntry(msg, INFO))
	}
}

// Warning log.
func (m manager) Warning(msg string) {
	if WARNING >= m.lvl {
		m.provider.Log(m.newEntry(msg, WARNING))
	}
}

// Error log.
func (m manager) Error(msg string) {
	if ERROR >= m.lvl {
		m.provider.Log(m.newEntry(msg, ERROR))
	}
}

// newEntry is a helper to create a new Entry for the log provider.
func (m manager) newEntry(msg string, lvl Level) Entry {
	e := Entry{}
	e.Message = msg
	e.Level = lvl
	e.Timestamp = time.Now()

	// copy the arguments
	e.Fields = make(map[string]interface{}, len(m.fields)+1)
	for k, v := range m.fields {
		e.Fields[k] = v
	}

	// check if a timer was set.
	if !m.timer.IsZero() {
		e.Fields["duration"] = time.Since(m.timer)
		m.timer = time.Time{}
	}

	return e
}
