// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/realestate/internal/platform/apperr"
	"github.com/taibuivan/realestate/internal/platform/sec"
	"github.com/taibuivan/realestate/internal/platform/validate"
	"github.com/taibuivan/realestate/pkg/pointer"
	"github.com/taibuivan/realestate/pkg/uuid"
)

// FieldCurrentPassword is the payload field checked by [Directory.SetPassword]
// and [Directory.Deactivate].
const FieldCurrentPassword = "current_password"

const msgInvalidPassword = "Invalid password."

// # Directory

// Config wires the collaborators of a [Directory].
type Config struct {
	Store  Store
	Hasher sec.Hasher
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Directory validates and creates accounts and answers credential checks.
//
// It never writes a record that breaks the account rules: validation,
// permission checks and the uniqueness pre-check all run before the single
// [Store.Insert]. The store's unique constraints remain the final word on
// collisions.
type Directory struct {
	store  Store
	hasher sec.Hasher
	logger *slog.Logger
	clock  func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewDirectory constructs a [Directory] from its configuration.
func NewDirectory(config Config) *Directory {
	directory := &Directory{
		store:  config.Store,
		hasher: config.Hasher,
		logger: config.Logger,
		clock:  config.Clock,
	}
	if directory.logger == nil {
		directory.logger = slog.Default()
	}
	if directory.clock == nil {
		directory.clock = time.Now
	}
	return directory
}

// # Creation

/*
CreateStandardAccount validates and persists a regular account.

Description: Normalizes the email and username, validates the required
fields, applies the defaults is_staff=false, is_superuser=false and
is_active=true unless input.Extra overrides them, hashes the password and
writes the record once. An empty password yields an unusable hash.

Parameters:
  - context: context.Context
  - input: NewAccount

Returns:
  - *Account: The persisted account
  - error: ErrValidation, ErrUniqueness or ErrPermissionInvariant as *apperr.AppError
*/
func (directory *Directory) CreateStandardAccount(context context.Context, input NewAccount) (*Account, error) {
	flags := Permissions{
		IsStaff:     pointer.Fallback(input.Extra.IsStaff, false),
		IsSuperuser: pointer.Fallback(input.Extra.IsSuperuser, false),
		IsActive:    pointer.Fallback(input.Extra.IsActive, true),
	}
	return directory.create(context, input, flags, "account_created")
}

/*
CreateElevatedAccount validates and persists a superuser.

Description: Staff, superuser and active default to true. Supplying any of
them as false is rejected, as is an empty password. The remaining checks are
those of [Directory.CreateStandardAccount].

Parameters:
  - context: context.Context
  - input: NewAccount

Returns:
  - *Account: The persisted superuser
  - error: ErrPermissionInvariant, ErrValidation or ErrUniqueness as *apperr.AppError
*/
func (directory *Directory) CreateElevatedAccount(context context.Context, input NewAccount) (*Account, error) {
	flags := Permissions{
		IsStaff:     pointer.Fallback(input.Extra.IsStaff, true),
		IsSuperuser: pointer.Fallback(input.Extra.IsSuperuser, true),
		IsActive:    pointer.Fallback(input.Extra.IsActive, true),
	}

	switch {
	case !flags.IsStaff:
		return nil, permissionError(msgStaffRequired)
	case !flags.IsSuperuser:
		return nil, permissionError(msgSuperuserRequired)
	case !flags.IsActive:
		return nil, permissionError(msgActiveRequired)
	}
	if input.Password == "" {
		return nil, validationError(validate.RequiredError(FieldPassword, msgPasswordRequired))
	}

	return directory.create(context, input, flags, "elevated_account_created")
}

func (directory *Directory) create(context context.Context, input NewAccount, flags Permissions, event string) (*Account, error) {

	// 1. Normalize and validate the identity fields
	account := &Account{
		Username:  NormalizeUsername(input.Username),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     NormalizeEmail(input.Email),
	}
	if err := validateIdentity(account); err != nil {
		return nil, err
	}

	// 2. Superuser rules apply to both creation paths
	if err := checkSuperuserFlags(flags); err != nil {
		return nil, err
	}
	if flags.IsSuperuser && input.Password == "" {
		return nil, validationError(validate.RequiredError(FieldPassword, msgPasswordRequired))
	}

	// 3. Friendly pre-check; the store constraint is authoritative
	if err := directory.ensureAvailable(context, account.Username, account.Email); err != nil {
		return nil, err
	}

	// 4. Credential hashing
	passwordHash, err := directory.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	account.PublicID = uuid.New()
	account.PasswordHash = passwordHash
	account.IsStaff = flags.IsStaff
	account.IsSuperuser = flags.IsSuperuser
	account.IsActive = flags.IsActive
	account.CreatedAt = directory.clock().UTC()

	// 5. Single durable write
	if err := directory.store.Insert(context, account); err != nil {
		return nil, directory.storeError(err, "create")
	}

	directory.logger.InfoContext(context, event,
		slog.String("user_id", account.PublicID),
		slog.Bool("is_staff", account.IsStaff),
		slog.Bool("is_superuser", account.IsSuperuser),
	)

	return account, nil
}

// validateIdentity checks the normalized identity fields of account.
func validateIdentity(account *Account) error {
	validator := &validate.Validator{}
	validator.
		Custom(FieldUsername, account.Username == "", msgUsernameRequired).
		MaxLen(FieldUsername, account.Username, MaxUsernameLength).
		Custom(FieldFirstName, account.FirstName == "", msgFirstNameRequired).
		MaxLen(FieldFirstName, account.FirstName, MaxNameLength).
		Custom(FieldLastName, account.LastName == "", msgLastNameRequired).
		MaxLen(FieldLastName, account.LastName, MaxNameLength)

	if account.Email == "" {
		validator.Custom(FieldEmail, true, msgEmailRequired)
	} else {
		validator.
			EmailWithMessage(FieldEmail, account.Email, msgEmailInvalid).
			MaxLen(FieldEmail, account.Email, MaxEmailLength)
	}

	if err := validator.Err(); err != nil {
		return validationError(err)
	}
	return nil
}

// checkSuperuserFlags enforces superuser => staff and active.
func checkSuperuserFlags(flags Permissions) error {
	if !flags.IsSuperuser {
		return nil
	}
	if !flags.IsStaff {
		return permissionError(msgStaffRequired)
	}
	if !flags.IsActive {
		return permissionError(msgActiveRequired)
	}
	return nil
}

func (directory *Directory) ensureAvailable(context context.Context, username, email string) error {
	if username != "" {
		if _, err := directory.store.FindByUsername(context, username); err == nil {
			return uniquenessError(FieldUsername)
		} else if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("account_directory_username_lookup_failed: %w", err)
		}
	}

	if email != "" {
		if _, err := directory.store.FindByEmail(context, email); err == nil {
			return uniquenessError(FieldEmail)
		} else if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("account_directory_email_lookup_failed: %w", err)
		}
	}

	return nil
}

// hashPassword returns an unusable marker for an empty password.
func (directory *Directory) hashPassword(plainTextPassword string) (string, error) {
	if plainTextPassword == "" {
		return sec.UnusableHash(), nil
	}

	passwordHash, err := directory.hasher.Hash(plainTextPassword)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("account_directory_hash_failed: %w", err))
	}
	return passwordHash, nil
}

// # Authentication

/*
VerifyCredentials resolves an email and password to an active account.

Description: Unknown emails, wrong passwords and inactive accounts all fail
with the same error. A successful check records the login time; failing to
record it is logged and ignored.

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - *Account: The authenticated account
  - error: ErrAuth as *apperr.AppError, or storage failures
*/
func (directory *Directory) VerifyCredentials(context context.Context, email, password string) (*Account, error) {
	account, err := directory.store.FindByEmail(context, NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		// Unknown emails still pay for one hash comparison.
		directory.hasher.Verify(password, directory.timingHash())
		return nil, authError()
	}
	if err != nil {
		return nil, fmt.Errorf("account_directory_verify_lookup_failed: %w", err)
	}

	if !account.CheckPassword(directory.hasher, password) || !account.IsActive {
		return nil, authError()
	}

	now := directory.clock().UTC()
	if err := directory.store.TouchLastLogin(context, account.PublicID, now); err != nil {
		directory.logger.WarnContext(context, "account_last_login_update_failed",
			slog.String("user_id", account.PublicID),
			slog.Any("error", err),
		)
	} else {
		account.LastLoginAt = &now
	}

	return account, nil
}

func (directory *Directory) timingHash() string {
	directory.dummyOnce.Do(func() {
		hash, err := directory.hasher.Hash(sec.UnusableHash())
		if err == nil {
			directory.dummyHash = hash
		}
	})
	return directory.dummyHash
}

// CheckActive reports the current role of an active account.
//
// It satisfies middleware.AccountChecker.
func (directory *Directory) CheckActive(context context.Context, userID string) (sec.UserRole, error) {
	account, err := directory.Get(context, userID)
	if err != nil {
		return "", err
	}
	if !account.IsActive {
		return "", authError()
	}
	return account.Role(), nil
}

// # Lookup

// Get loads an account by its public id.
func (directory *Directory) Get(context context.Context, id string) (*Account, error) {
	if !uuid.IsValid(id) {
		return nil, notFoundError()
	}

	account, err := directory.store.FindByPublicID(context, id)
	if err != nil {
		return nil, directory.storeError(err, "get")
	}
	return account, nil
}

/*
List returns one page of accounts for the admin surface.

Parameters:
  - context: context.Context
  - filter: Filter

Returns:
  - []*Account: Accounts ordered by email
  - int: Total number of matches
  - error: Storage failures
*/
func (directory *Directory) List(context context.Context, filter Filter) ([]*Account, int, error) {
	accounts, total, err := directory.store.List(context, filter)
	if err != nil {
		return nil, 0, directory.storeError(err, "list")
	}
	return accounts, total, nil
}

// # Mutations

/*
UpdateProfile applies a partial change to the personal fields.

Parameters:
  - context: context.Context
  - id: string (public id)
  - update: ProfileUpdate

Returns:
  - *Account: The updated account
  - error: ErrValidation, ErrUniqueness or ErrNotFound as *apperr.AppError
*/
func (directory *Directory) UpdateProfile(context context.Context, id string, update ProfileUpdate) (*Account, error) {
	account, err := directory.Get(context, id)
	if err != nil {
		return nil, err
	}

	previousUsername := account.Username

	// Apply delta updates
	if update.Username != nil {
		account.Username = NormalizeUsername(*update.Username)
	}
	if update.FirstName != nil {
		account.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		account.LastName = strings.TrimSpace(*update.LastName)
	}

	if err := validateIdentity(account); err != nil {
		return nil, err
	}

	if account.Username != previousUsername {
		if err := directory.ensureAvailable(context, account.Username, ""); err != nil {
			return nil, err
		}
	}

	if err := directory.store.UpdateProfile(context, account); err != nil {
		return nil, directory.storeError(err, "update_profile")
	}

	directory.logger.InfoContext(context, "account_profile_updated", slog.String("user_id", account.PublicID))
	return account, nil
}

/*
ChangePermissions updates the access flags of an account.

Description: Unset fields keep their current value. The merge happens against
the stored flags inside one store update, so concurrent changes to different
flags are all kept. The result must still satisfy superuser => staff and
active, and only accounts with a usable password may become superusers.

Parameters:
  - context: context.Context
  - id: string
  - change: ExtraFields

Returns:
  - *Account: The updated account
  - error: ErrPermissionInvariant or ErrNotFound as *apperr.AppError
*/
func (directory *Directory) ChangePermissions(context context.Context, id string, change ExtraFields) (*Account, error) {
	if !uuid.IsValid(id) {
		return nil, notFoundError()
	}

	account, err := directory.store.UpdatePermissions(context, id, func(account *Account) error {
		flags := Permissions{
			IsStaff:     pointer.Fallback(change.IsStaff, account.IsStaff),
			IsSuperuser: pointer.Fallback(change.IsSuperuser, account.IsSuperuser),
			IsActive:    pointer.Fallback(change.IsActive, account.IsActive),
		}

		if err := checkSuperuserFlags(flags); err != nil {
			return err
		}
		if flags.IsSuperuser && !sec.IsUsable(account.PasswordHash) {
			return permissionError(msgPasswordRequired)
		}

		account.IsStaff = flags.IsStaff
		account.IsSuperuser = flags.IsSuperuser
		account.IsActive = flags.IsActive
		return nil
	})
	if err != nil {
		if appErr := apperr.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, directory.storeError(err, "change_permissions")
	}

	directory.logger.InfoContext(context, "account_permissions_changed",
		slog.String("user_id", id),
		slog.Bool("is_staff", account.IsStaff),
		slog.Bool("is_superuser", account.IsSuperuser),
		slog.Bool("is_active", account.IsActive),
	)
	return account, nil
}

/*
SetPassword replaces the password after checking the current one.

Parameters:
  - context: context.Context
  - id: string
  - currentPassword: string
  - newPassword: string (non-empty; policy checks belong to the caller)

Returns:
  - error: ErrValidation or ErrNotFound as *apperr.AppError
*/
func (directory *Directory) SetPassword(context context.Context, id, currentPassword, newPassword string) error {
	account, err := directory.Get(context, id)
	if err != nil {
		return err
	}

	if !account.CheckPassword(directory.hasher, currentPassword) {
		return validationError(validate.RequiredError(FieldCurrentPassword, msgInvalidPassword))
	}
	if newPassword == "" {
		return validationError(validate.RequiredError(FieldPassword, "This field may not be blank."))
	}

	passwordHash, err := directory.hashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := directory.store.UpdatePassword(context, id, passwordHash); err != nil {
		return directory.storeError(err, "set_password")
	}

	directory.logger.InfoContext(context, "account_password_changed", slog.String("user_id", id))
	return nil
}

/*
Deactivate clears is_active after checking the current password.

Description: Accounts are never deleted. Superusers must stay active, so
their superuser status has to be revoked first.

Parameters:
  - context: context.Context
  - id: string
  - currentPassword: string

Returns:
  - error: ErrValidation, ErrPermissionInvariant or ErrNotFound as *apperr.AppError
*/
func (directory *Directory) Deactivate(context context.Context, id, currentPassword string) error {
	account, err := directory.Get(context, id)
	if err != nil {
		return err
	}

	if !account.CheckPassword(directory.hasher, currentPassword) {
		return validationError(validate.RequiredError(FieldCurrentPassword, msgInvalidPassword))
	}
	if account.IsSuperuser {
		return permissionError(msgActiveRequired)
	}

	if err := directory.store.SetActive(context, id, false); err != nil {
		return directory.storeError(err, "deactivate")
	}

	directory.logger.InfoContext(context, "account_deactivated", slog.String("user_id", id))
	return nil
}

// # Error Translation

// storeError maps [Store] errors onto the directory taxonomy.
func (directory *Directory) storeError(err error, action string) error {
	var duplicate *DuplicateError

	switch {
	case errors.As(err, &duplicate):
		return uniquenessError(duplicate.Field)
	case errors.Is(err, ErrPermissionInvariant):
		return permissionError(msgSuperuserFlags)
	case errors.Is(err, ErrNotFound):
		return notFoundError()
	default:
		return fmt.Errorf("account_directory_%s_failed: %w", action, err)
	}
}
