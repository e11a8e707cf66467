// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sqlite3 provides the sqlite3 driver for
// github.com/haphop228/hpc-spbu-labs/store. It must be imported
// instead of go-sqlite3 to ensure foreign keys are properly honored.
package sqlite3

import (
	"database/sql"
	"fmt"

	"github.com/haphop228/hpc-spbu-labs/store"
	sqlite3 "github.com/mattn/go-sqlite3"
)

func init() {
	store.RegisterOpenHook("sqlite3", func(db *sql.DB) error {
		drv, ok := db.Driver().(*sqlite3.SQLiteDriver)
		if !ok {
			return fmt.Errorf("sqlite3 driver is %T", db.Driver())
		}
		drv.ConnectHook = func(c *sqlite3.SQLiteConn) error {
			_, err := c.Exec("PRAGMA foreign_keys = ON;", nil)
			return err
		}
		// Each connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
		return nil
	})
}
