// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables, columns and constraints created by
// data/migrations so queries never hard-code identifiers.
package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table       string
	PKID        string
	ID          string
	Username    string
	FirstName   string
	LastName    string
	Email       string
	Password    string
	IsStaff     string
	IsSuperuser string
	IsActive    string
	DateJoined  string
	LastLoginAt string

	// Constraint names, used to classify unique and check violations.
	UniqueID       string
	UniqueUsername string
	UniqueEmail    string
	CheckSuperuser string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:       "users.account",
	PKID:        "pkid",
	ID:          "id",
	Username:    "username",
	FirstName:   "firstname",
	LastName:    "lastname",
	Email:       "email",
	Password:    "passwordhash",
	IsStaff:     "isstaff",
	IsSuperuser: "issuperuser",
	IsActive:    "isactive",
	DateJoined:  "datejoined",
	LastLoginAt: "lastloginat",

	UniqueID:       "account_id_key",
	UniqueUsername: "account_username_key",
	UniqueEmail:    "account_email_key",
	CheckSuperuser: "account_superuser_flags_check",
}

// Columns returns every column in scan order.
func (t UserAccountTable) Columns() []string {
	return []string{
		t.PKID, t.ID, t.Username, t.FirstName, t.LastName, t.Email, t.Password,
		t.IsStaff, t.IsSuperuser, t.IsActive, t.DateJoined, t.LastLoginAt,
	}
}
