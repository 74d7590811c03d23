// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/realestate/internal/platform/database/schema"
	"github.com/taibuivan/realestate/internal/platform/dberr"
	"github.com/taibuivan/realestate/pkg/query"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// # Postgres Store

// PostgresStore implements [Store] on the users.account table.
//
// Uniqueness relies on the table's unique constraints; the superuser flag
// rule is backed by a CHECK constraint.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore creates a store over a pool, connection or transaction.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

var (
	accountTable  = schema.UserAccount
	selectColumns = strings.Join(accountTable.Columns(), ", ")
)

/*
Insert persists a new account in a single INSERT.

Description: The unique constraints on id, username and email make the write
an atomic insert-if-absent; the generated pkid is scanned back.

Parameters:
  - context: context.Context
  - account: *Account

Returns:
  - error: *DuplicateError, ErrPermissionInvariant or storage failures
*/
func (repository *PostgresStore) Insert(context context.Context, account *Account) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING %s`,
		accountTable.Table,
		accountTable.ID, accountTable.Username, accountTable.FirstName, accountTable.LastName, accountTable.Email,
		accountTable.Password, accountTable.IsStaff, accountTable.IsSuperuser, accountTable.IsActive, accountTable.DateJoined,
		accountTable.PKID,
	)

	err := repository.db.QueryRow(context, query,
		account.PublicID,
		account.Username,
		account.FirstName,
		account.LastName,
		account.Email,
		account.PasswordHash,
		account.IsStaff,
		account.IsSuperuser,
		account.IsActive,
		account.CreatedAt,
	).Scan(&account.InternalID)

	return translate(err, "insert_account")
}

// FindByPublicID implements [Store].
func (repository *PostgresStore) FindByPublicID(context context.Context, id string) (*Account, error) {
	return repository.findOne(context, accountTable.ID, id)
}

// FindByEmail implements [Store].
func (repository *PostgresStore) FindByEmail(context context.Context, email string) (*Account, error) {
	return repository.findOne(context, accountTable.Email, email)
}

// FindByUsername implements [Store].
func (repository *PostgresStore) FindByUsername(context context.Context, username string) (*Account, error) {
	return repository.findOne(context, accountTable.Username, username)
}

func (repository *PostgresStore) findOne(context context.Context, column string, value string) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, selectColumns, accountTable.Table, column)

	account, err := scanAccount(repository.db.QueryRow(context, query, value))
	if err != nil {
		return nil, translate(err, "find_account_by_"+column)
	}
	return account, nil
}

/*
List returns accounts ordered by email with exact-match filters and a
case-insensitive search over email, username and names.

Parameters:
  - context: context.Context
  - filter: Filter

Returns:
  - []*Account: The requested page
  - int: Total matches
  - error: Storage failures
*/
func (repository *PostgresStore) List(context context.Context, filter Filter) ([]*Account, int, error) {
	where, args := buildWhere(filter)

	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s%s`, accountTable.Table, where)

	var total int
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, translate(err, "count_accounts")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s ASC, %s ASC`,
		selectColumns, accountTable.Table, where, accountTable.Email, accountTable.PKID)

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, translate(err, "list_accounts")
	}
	defer rows.Close()

	accounts := []*Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, translate(err, "scan_account")
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translate(err, "list_accounts")
	}

	return accounts, total, nil
}

// buildWhere renders the filter as a WHERE clause with positional arguments.
func buildWhere(filter Filter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	add := func(format string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, "$"+strconv.Itoa(len(args))))
	}

	if filter.Email != "" {
		add("LOWER("+accountTable.Email+") = LOWER(%s)", filter.Email)
	}
	if filter.Username != "" {
		add(accountTable.Username+" = %s", filter.Username)
	}
	if filter.FirstName != "" {
		add(accountTable.FirstName+" = %s", filter.FirstName)
	}
	if filter.LastName != "" {
		add(accountTable.LastName+" = %s", filter.LastName)
	}
	if filter.IsStaff != nil {
		add(accountTable.IsStaff+" = %s", *filter.IsStaff)
	}
	if filter.IsActive != nil {
		add(accountTable.IsActive+" = %s", *filter.IsActive)
	}
	for _, term := range query.SearchTerms(filter.Search) {
		args = append(args, "%"+escapeLike(term)+"%")
		placeholder := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, fmt.Sprintf("(%s ILIKE %s OR %s ILIKE %s OR %s ILIKE %s OR %s ILIKE %s)",
			accountTable.Email, placeholder, accountTable.Username, placeholder,
			accountTable.FirstName, placeholder, accountTable.LastName, placeholder,
		))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string { return likeEscaper.Replace(term) }

// UpdateProfile implements [Store].
func (repository *PostgresStore) UpdateProfile(context context.Context, account *Account) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4 WHERE %s = $1`,
		accountTable.Table, accountTable.Username, accountTable.FirstName, accountTable.LastName, accountTable.ID)

	return repository.exec(context, "update_account_profile", query,
		account.PublicID, account.Username, account.FirstName, account.LastName)
}

/*
UpdatePermissions locks the row, lets apply edit the flags and writes them back.

Description: SELECT ... FOR UPDATE serializes concurrent flag changes on the
same account. The CHECK constraint still rejects superusers that are not
staff and active.

Parameters:
  - context: context.Context
  - id: string
  - apply: func(*Account) error

Returns:
  - *Account: The account as written
  - error: apply's error, ErrNotFound, ErrPermissionInvariant or storage failures
*/
func (repository *PostgresStore) UpdatePermissions(context context.Context, id string, apply func(*Account) error) (*Account, error) {

	// Establish Transactional Boundary
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return nil, dberr.Wrap(err, "begin_update_permissions_tx")
	}
	defer transaction.Rollback(context)

	// Step 1: Lock Current Row
	lockQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 FOR UPDATE`, selectColumns, accountTable.Table, accountTable.ID)
	account, err := scanAccount(transaction.QueryRow(context, lockQuery, id))
	if err != nil {
		return nil, translate(err, "lock_account_permissions")
	}

	if err := apply(account); err != nil {
		return nil, err
	}

	// Step 2: Write Flags
	updateQuery := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4 WHERE %s = $1`,
		accountTable.Table, accountTable.IsStaff, accountTable.IsSuperuser, accountTable.IsActive, accountTable.ID)

	_, err = transaction.Exec(context, updateQuery, id, account.IsStaff, account.IsSuperuser, account.IsActive)
	if err != nil {
		return nil, translate(err, "update_account_permissions")
	}

	if err := transaction.Commit(context); err != nil {
		return nil, translate(err, "commit_update_permissions_tx")
	}
	return account, nil
}

// UpdatePassword implements [Store].
func (repository *PostgresStore) UpdatePassword(context context.Context, id string, passwordHash string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, accountTable.Table, accountTable.Password, accountTable.ID)
	return repository.exec(context, "update_account_password", query, id, passwordHash)
}

// SetActive implements [Store].
func (repository *PostgresStore) SetActive(context context.Context, id string, active bool) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, accountTable.Table, accountTable.IsActive, accountTable.ID)
	return repository.exec(context, "set_account_active", query, id, active)
}

// TouchLastLogin implements [Store].
func (repository *PostgresStore) TouchLastLogin(context context.Context, id string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, accountTable.Table, accountTable.LastLoginAt, accountTable.ID)
	return repository.exec(context, "touch_account_last_login", query, id, at)
}

func (repository *PostgresStore) exec(context context.Context, action string, query string, args ...any) error {
	tag, err := repository.db.Exec(context, query, args...)
	if err != nil {
		return translate(err, action)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// # Mapping

func scanAccount(row pgx.Row) (*Account, error) {
	account := &Account{}
	err := row.Scan(
		&account.InternalID,
		&account.PublicID,
		&account.Username,
		&account.FirstName,
		&account.LastName,
		&account.Email,
		&account.PasswordHash,
		&account.IsStaff,
		&account.IsSuperuser,
		&account.IsActive,
		&account.CreatedAt,
		&account.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// translate maps pgx errors onto the [Store] contract.
func translate(err error, action string) error {
	if err == nil {
		return nil
	}

	if dberr.IsCheckViolation(err) {
		return fmt.Errorf("%s: %w", action, ErrPermissionInvariant)
	}

	wrapped := dberr.Wrap(err, action)

	var unique *dberr.UniqueViolation
	switch {
	case errors.Is(wrapped, dberr.ErrNotFound):
		return ErrNotFound
	case errors.As(wrapped, &unique):
		return &DuplicateError{Field: fieldForConstraint(unique.Constraint), Cause: unique}
	default:
		return wrapped
	}
}

func fieldForConstraint(constraint string) string {
	switch constraint {
	case accountTable.UniqueUsername:
		return FieldUsername
	case accountTable.UniqueEmail:
		return FieldEmail
	default:
		return constraint
	}
}
