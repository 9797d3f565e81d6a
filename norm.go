// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package norm is a small orm around plain go structs.
//
// An entity embeds entity.Base and is read through the query package and
// written through the entity crud functions. Tables and missing columns
// are created on first use.
//
//	if _, err := norm.Connect("sqlite:app.db"); err != nil {
//		log.Fatal(err)
//	}
//
//	type Author struct {
//		entity.Base
//		Name string
//	}
//
//	author := Author{Name: "Frisch"}
//	if err := entity.Create(&author); err != nil {
//		log.Fatal(err)
//	}
//
//	var authors []*Author
//	err := query.New(&Author{}).Filter(map[string]interface{}{"name__icontains": "fri"}).All(&authors)
package norm

import (
	"fmt"

	"github.com/patrickascher/norm/config"
	"github.com/patrickascher/norm/dialect"
	_ "github.com/patrickascher/norm/dialect/mysql"
	_ "github.com/patrickascher/norm/dialect/postgres"
	_ "github.com/patrickascher/norm/dialect/sqlite"
	_ "github.com/patrickascher/norm/dialect/sqlserver"
	"github.com/patrickascher/norm/logger"
	_ "github.com/patrickascher/norm/query"
)

// ErrNoDatabases - Error message.
var ErrNoDatabases = "norm: the configuration %#v holds no databases"

// Connect opens the database url and registers the connection.
// Entities use the connection dialect.DefaultConnection unless they were
// registered with entity.WithConnection. All dialects are available by
// their url scheme (sqlite, mysql, postgres, sqlserver).
func Connect(url string, name ...string) (*dialect.Connection, error) {
	return dialect.Connect(url, name...)
}

// Config is the database section of an application configuration.
// Embed it in the application struct or use it directly with
// ConnectFromConfig.
type Config struct {
	Databases []config.Database
}

// ConnectFromConfig loads the database definitions with the given config
// provider and opens every connection. Pool limits and the sql debug
// logger are applied from the configuration.
func ConnectFromConfig(provider string, options interface{}) ([]*dialect.Connection, error) {
	var cfg Config
	if err := config.Load(provider, &cfg, options); err != nil {
		return nil, err
	}
	if len(cfg.Databases) == 0 {
		return nil, fmt.Errorf(ErrNoDatabases, provider)
	}

	connections := make([]*dialect.Connection, 0, len(cfg.Databases))
	for _, db := range cfg.Databases {
		c, err := dialect.Connect(db.URL, db.Name)
		if err != nil {
			return nil, err
		}
		if db.MaxOpenConnections > 0 {
			c.DB().SetMaxOpenConns(db.MaxOpenConnections)
		}
		if db.MaxIdleConnections > 0 {
			c.DB().SetMaxIdleConns(db.MaxIdleConnections)
		}
		if db.Logger != "" {
			l, err := logger.Get(db.Logger)
			if err != nil {
				return nil, err
			}
			c.SetLogger(l)
		}
		connections = append(connections, c)
	}
	return connections, nil
}
