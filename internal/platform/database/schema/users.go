// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns of the relational store, so SQL
// in repositories is assembled from one definition.
package schema

import "strings"

// UsersTable represents the 'users' table.
type UsersTable struct {
	Table     string
	ID        string
	Username  string
	Email     string
	Password  string
	Secret    string
	Flags     string
	CreatedAt string
}

// Users is the schema definition for users.
var Users = UsersTable{
	Table:     "users",
	ID:        "id",
	Username:  "username",
	Email:     "email",
	Password:  "password",
	Secret:    "secret",
	Flags:     "flags",
	CreatedAt: "createdat",
}

// Columns returns all column names in scan order.
func (t UsersTable) Columns() []string {
	return []string{t.ID, t.Username, t.Email, t.Password, t.Secret, t.Flags, t.CreatedAt}
}

// SelectAll returns "SELECT <columns> FROM users".
func (t UsersTable) SelectAll() string {
	return "SELECT " + strings.Join(t.Columns(), ", ") + " FROM " + t.Table
}
