// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"time"

	"github.com/taibuivan/realestate/internal/platform/sec"
)

// # Response Views

// Profile is what an account sees about itself.
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
}

// NewProfile projects an account into its self-service view.
func NewProfile(account *Account) Profile {
	return Profile{
		ID:        account.PublicID,
		Username:  account.Username,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		FullName:  account.FullName(),
		Email:     account.Email,
	}
}

// AdminRow is one line of the admin account list.
type AdminRow struct {
	PKID      int64  `json:"pkid"`
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsStaff   bool   `json:"is_staff"`
	IsActive  bool   `json:"is_active"`
}

// NewAdminRow projects an account into the admin list columns.
func NewAdminRow(account *Account) AdminRow {
	return AdminRow{
		PKID:      account.InternalID,
		ID:        account.PublicID,
		Email:     account.Email,
		Username:  account.Username,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		IsStaff:   account.IsStaff,
		IsActive:  account.IsActive,
	}
}

// AdminDetail groups an account the way the admin change form does.
type AdminDetail struct {
	PKID                int64               `json:"pkid"`
	ID                  string              `json:"id"`
	LoginCredentials    LoginCredentials    `json:"login_credentials"`
	PersonalInformation PersonalInformation `json:"personal_information"`
	Permissions         PermissionFlags     `json:"permissions"`
	ImportantDates      ImportantDates      `json:"important_dates"`
}

type LoginCredentials struct {
	Email string `json:"email"`
	// HasUsablePassword is false for accounts created without a password.
	HasUsablePassword bool `json:"has_usable_password"`
}

type PersonalInformation struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type PermissionFlags struct {
	IsActive    bool `json:"is_active"`
	IsStaff     bool `json:"is_staff"`
	IsSuperuser bool `json:"is_superuser"`
}

type ImportantDates struct {
	LastLogin  *time.Time `json:"last_login"`
	DateJoined time.Time  `json:"date_joined"`
}

// NewAdminDetail projects an account into the admin detail view.
func NewAdminDetail(account *Account) AdminDetail {
	return AdminDetail{
		PKID: account.InternalID,
		ID:   account.PublicID,
		LoginCredentials: LoginCredentials{
			Email:             account.Email,
			HasUsablePassword: sec.IsUsable(account.PasswordHash),
		},
		PersonalInformation: PersonalInformation{
			Username:  account.Username,
			FirstName: account.FirstName,
			LastName:  account.LastName,
		},
		Permissions: PermissionFlags{
			IsActive:    account.IsActive,
			IsStaff:     account.IsStaff,
			IsSuperuser: account.IsSuperuser,
		},
		ImportantDates: ImportantDates{
			LastLogin:  account.LastLoginAt,
			DateJoined: account.CreatedAt,
		},
	}
}
