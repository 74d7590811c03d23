// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/realestate/internal/platform/apperr"
	"github.com/taibuivan/realestate/internal/platform/sec"
	"github.com/taibuivan/realestate/internal/users/account"
	"github.com/taibuivan/realestate/pkg/pointer"
	"github.com/taibuivan/realestate/pkg/uuid"
)

var joinedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// countingHasher records how often Hash was called.
type countingHasher struct {
	sec.Hasher
	calls atomic.Int32
}

func (hasher *countingHasher) Hash(plainTextPassword string) (string, error) {
	hasher.calls.Add(1)
	return hasher.Hasher.Hash(plainTextPassword)
}

func newDirectory(t *testing.T) (*account.Directory, *account.MemoryStore, *countingHasher) {
	t.Helper()

	store := account.NewMemoryStore()
	hasher := &countingHasher{Hasher: sec.NewBcryptHasher(bcrypt.MinCost)}
	directory := account.NewDirectory(account.Config{
		Store:  store,
		Hasher: hasher,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:  func() time.Time { return joinedAt },
	})
	return directory, store, hasher
}

func validInput() account.NewAccount {
	return account.NewAccount{
		Username:  "jdoe",
		FirstName: "jane",
		LastName:  "doe",
		Email:     "Jane.Doe@Example.COM",
		Password:  "correct horse battery",
	}
}

// fieldsOf returns the field names carried by an *apperr.AppError.
func fieldsOf(err error) []string {
	appErr := apperr.As(err)
	if appErr == nil {
		return nil
	}
	fields := make([]string, 0, len(appErr.Details))
	for _, detail := range appErr.Details {
		fields = append(fields, detail.Field)
	}
	return fields
}

/*
TestCreateStandardAccount_Defaults verifies normalization, defaults and the
persisted record.
*/
func TestCreateStandardAccount_Defaults(t *testing.T) {
	directory, store, _ := newDirectory(t)
	ctx := context.Background()

	created, err := directory.CreateStandardAccount(ctx, validInput())
	require.NoError(t, err)

	assert.Equal(t, "Jane.Doe@example.com", created.Email)
	assert.Equal(t, "jdoe", created.Username)
	assert.False(t, created.IsStaff)
	assert.False(t, created.IsSuperuser)
	assert.True(t, created.IsActive)
	assert.Equal(t, int64(1), created.InternalID)
	assert.True(t, uuid.IsValid(created.PublicID))
	assert.Equal(t, joinedAt, created.CreatedAt)
	assert.NotEqual(t, "correct horse battery", created.PasswordHash)
	assert.Nil(t, created.LastLoginAt)

	stored, err := store.FindByEmail(ctx, "Jane.Doe@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.PublicID, stored.PublicID)
	assert.Equal(t, 1, store.Len())
}

/*
TestCreateStandardAccount_Overrides verifies that explicit extra fields win
over the defaults.
*/
func TestCreateStandardAccount_Overrides(t *testing.T) {
	directory, _, _ := newDirectory(t)

	input := validInput()
	input.Extra = account.ExtraFields{IsStaff: pointer.To(true), IsActive: pointer.To(false)}

	created, err := directory.CreateStandardAccount(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, created.IsStaff)
	assert.False(t, created.IsSuperuser)
	assert.False(t, created.IsActive)
}

/*
TestCreateStandardAccount_MissingFields verifies that every required field is
enforced and nothing is persisted or hashed.
*/
func TestCreateStandardAccount_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*account.NewAccount)
		field  string
	}{
		{"username", func(in *account.NewAccount) { in.Username = "" }, account.FieldUsername},
		{"blank_username", func(in *account.NewAccount) { in.Username = "   " }, account.FieldUsername},
		{"first_name", func(in *account.NewAccount) { in.FirstName = "" }, account.FieldFirstName},
		{"last_name", func(in *account.NewAccount) { in.LastName = "" }, account.FieldLastName},
		{"email", func(in *account.NewAccount) { in.Email = "" }, account.FieldEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			directory, store, hasher := newDirectory(t)

			input := validInput()
			tt.mutate(&input)

			created, err := directory.CreateStandardAccount(context.Background(), input)
			assert.Nil(t, created)
			require.ErrorIs(t, err, account.ErrValidation)
			assert.Equal(t, []string{tt.field}, fieldsOf(err))
			assert.Zero(t, store.Len())
			assert.Zero(t, hasher.calls.Load())
		})
	}
}

/*
TestCreateStandardAccount_InvalidEmail verifies syntactic email validation
after normalization.
*/
func TestCreateStandardAccount_InvalidEmail(t *testing.T) {
	emails := []string{
		"not-an-email",
		"a@",
		"@x.com",
		"a b@x.com",
		"a@x..com",
		"Jane <jane@x.com>",
	}

	for _, email := range emails {
		t.Run(email, func(t *testing.T) {
			directory, store, _ := newDirectory(t)

			input := validInput()
			input.Email = email

			_, err := directory.CreateStandardAccount(context.Background(), input)
			require.ErrorIs(t, err, account.ErrValidation)

			appErr := apperr.As(err)
			require.NotNil(t, appErr)
			require.Len(t, appErr.Details, 1)
			assert.Equal(t, "You must provide a valid email address", appErr.Details[0].Message)
			assert.Zero(t, store.Len())
		})
	}
}

/*
TestCreateStandardAccount_Uniqueness verifies username and email collisions.
*/
func TestCreateStandardAccount_Uniqueness(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*account.NewAccount)
		field  string
	}{
		{"same_email", func(in *account.NewAccount) { in.Username = "other" }, account.FieldEmail},
		{"same_email_domain_case", func(in *account.NewAccount) {
			in.Username = "other"
			in.Email = "Jane.Doe@EXAMPLE.com"
		}, account.FieldEmail},
		{"same_username", func(in *account.NewAccount) { in.Email = "other@example.com" }, account.FieldUsername},
		{"same_username_nfkc", func(in *account.NewAccount) {
			in.Username = "ｊｄｏｅ"
			in.Email = "other@example.com"
		}, account.FieldUsername},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			directory, store, _ := newDirectory(t)
			ctx := context.Background()

			_, err := directory.CreateStandardAccount(ctx, validInput())
			require.NoError(t, err)

			second := validInput()
			tt.mutate(&second)

			_, err = directory.CreateStandardAccount(ctx, second)
			require.ErrorIs(t, err, account.ErrUniqueness)
			assert.Equal(t, []string{tt.field}, fieldsOf(err))
			assert.Equal(t, 1, store.Len())
		})
	}
}

/*
TestCreateStandardAccount_EmptyPassword verifies that an account created
without a password can never authenticate.
*/
func TestCreateStandardAccount_EmptyPassword(t *testing.T) {
	directory, _, hasher := newDirectory(t)
	ctx := context.Background()

	input := validInput()
	input.Password = ""

	created, err := directory.CreateStandardAccount(ctx, input)
	require.NoError(t, err)
	assert.NotEmpty(t, created.PasswordHash)
	assert.False(t, sec.IsUsable(created.PasswordHash))
	assert.False(t, created.IsAuthenticatable())
	assert.Zero(t, hasher.calls.Load())

	_, err = directory.VerifyCredentials(ctx, created.Email, "")
	assert.ErrorIs(t, err, account.ErrAuth)
}

/*
TestCreate_LongPassphrase stores and verifies an 84-byte password on both
creation paths and through SetPassword.
*/
func TestCreate_LongPassphrase(t *testing.T) {
	directory, store, _ := newDirectory(t)
	ctx := context.Background()
	passphrase := strings.Repeat("correct horse ", 6)

	input := validInput()
	input.Password = passphrase
	created, err := directory.CreateStandardAccount(ctx, input)
	require.NoError(t, err)

	_, err = directory.VerifyCredentials(ctx, created.Email, passphrase)
	assert.NoError(t, err)

	elevated, err := directory.CreateElevatedAccount(ctx, account.NewAccount{
		Username: "admin", FirstName: "ada", LastName: "admin",
		Email: "admin@agency.com", Password: passphrase + "admin",
	})
	require.NoError(t, err)
	assert.True(t, elevated.IsSuperuser)

	longer := passphrase + passphrase
	require.NoError(t, directory.SetPassword(ctx, created.PublicID, passphrase, longer))
	_, err = directory.VerifyCredentials(ctx, created.Email, longer)
	assert.NoError(t, err)
	assert.Equal(t, 2, store.Len())
}

/*
TestCreateStandardAccount_SuperuserFlags verifies that the superuser rules
also hold on the standard path.
*/
func TestCreateStandardAccount_SuperuserFlags(t *testing.T) {
	directory, store, _ := newDirectory(t)

	input := validInput()
	input.Extra = account.ExtraFields{IsSuperuser: pointer.To(true)}

	_, err := directory.CreateStandardAccount(context.Background(), input)
	require.ErrorIs(t, err, account.ErrPermissionInvariant)
	assert.Zero(t, store.Len())
}

/*
TestCreateElevatedAccount verifies defaults and every rejected combination.
*/
func TestCreateElevatedAccount(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		directory, _, _ := newDirectory(t)

		created, err := directory.CreateElevatedAccount(context.Background(), validInput())
		require.NoError(t, err)
		assert.True(t, created.IsStaff)
		assert.True(t, created.IsSuperuser)
		assert.True(t, created.IsActive)
		assert.Equal(t, "Jane.Doe@example.com", created.Email)
		assert.True(t, created.HasAdminAccess())
		assert.True(t, created.HasPermissionBypass())
		assert.Equal(t, sec.RoleSuperuser, created.Role())
	})

	t.Run("explicit_true_flags", func(t *testing.T) {
		directory, _, _ := newDirectory(t)

		input := validInput()
		input.Extra = account.ExtraFields{IsStaff: pointer.To(true), IsSuperuser: pointer.To(true)}

		_, err := directory.CreateElevatedAccount(context.Background(), input)
		require.NoError(t, err)
	})

	tests := []struct {
		name    string
		mutate  func(*account.NewAccount)
		target  error
		message string
	}{
		{"staff_false", func(in *account.NewAccount) {
			in.Extra.IsStaff = pointer.To(false)
		}, account.ErrPermissionInvariant, "Superusers must have is_staff=True"},
		{"superuser_false", func(in *account.NewAccount) {
			in.Extra.IsSuperuser = pointer.To(false)
		}, account.ErrPermissionInvariant, "Superusers must have is_superuser=True"},
		{"inactive", func(in *account.NewAccount) {
			in.Extra.IsActive = pointer.To(false)
		}, account.ErrPermissionInvariant, "Superusers must have is_active=True"},
		{"empty_password", func(in *account.NewAccount) {
			in.Password = ""
		}, account.ErrValidation, "Validation failed"},
		{"invalid_email", func(in *account.NewAccount) {
			in.Email = "not-an-email"
		}, account.ErrValidation, "Validation failed"},
		{"missing_username", func(in *account.NewAccount) {
			in.Username = ""
		}, account.ErrValidation, "Validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			directory, store, _ := newDirectory(t)

			input := validInput()
			tt.mutate(&input)

			created, err := directory.CreateElevatedAccount(context.Background(), input)
			assert.Nil(t, created)
			require.ErrorIs(t, err, tt.target)
			assert.Equal(t, tt.message, err.Error())
			assert.Zero(t, store.Len())
		})
	}
}

/*
TestCreateElevatedAccount_Duplicate verifies the shared uniqueness checks.
*/
func TestCreateElevatedAccount_Duplicate(t *testing.T) {
	directory, _, _ := newDirectory(t)
	ctx := context.Background()

	_, err := directory.CreateStandardAccount(ctx, validInput())
	require.NoError(t, err)

	_, err = directory.CreateElevatedAccount(ctx, validInput())
	assert.ErrorIs(t, err, account.ErrUniqueness)
}

/*
TestCreate_RepeatedFailuresAreIdentical verifies that the same invalid input
always fails the same way and never persists anything.
*/
func TestCreate_RepeatedFailuresAreIdentical(t *testing.T) {
	directory, store, _ := newDirectory(t)
	ctx := context.Background()

	input := validInput()
	input.Email = "not-an-email"
	input.LastName = ""

	_, first := directory.CreateStandardAccount(ctx, input)
	require.Error(t, first)

	for range 3 {
		_, err := directory.CreateStandardAccount(ctx, input)
		assert.Equal(t, apperr.As(first).Details, apperr.As(err).Details)
		assert.Equal(t, first.Error(), err.Error())
	}
	assert.Zero(t, store.Len())
}

/*
TestCreate_ConcurrentDuplicates verifies that exactly one of many concurrent
creations with the same email succeeds.
*/
func TestCreate_ConcurrentDuplicates(t *testing.T) {
	directory, store, _ := newDirectory(t)
	ctx := context.Background()

	const workers = 16
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		collided  atomic.Int32
	)

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			input := validInput()
			input.Username = "agent" + string(rune('a'+i))

			_, err := directory.CreateStandardAccount(ctx, input)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, account.ErrUniqueness):
				collided.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(workers-1), collided.Load())
	assert.Equal(t, 1, store.Len())
}

/*
TestChangePermissions verifies the merge with stored flags and the superuser
rule.
*/
func TestChangePermissions(t *testing.T) {
	directory, _, _ := newDirectory(t)
	ctx := context.Background()

	member, err := directory.CreateStandardAccount(ctx, validInput())
	require.NoError(t, err)

	staff, err := directory.ChangePermissions(ctx, member.PublicID, account.ExtraFields{IsStaff: pointer.To(true)})
	require.NoError(t, err)
	assert.True(t, staff.IsStaff)
	assert.True(t, staff.IsActive)

	_, err = directory.ChangePermissions(ctx, member.PublicID, account.ExtraFields{
		IsSuperuser: pointer.To(true), IsActive: pointer.To(false),
	})
	require.ErrorIs(t, err, account.ErrPermissionInvariant)
	assert.Equal(t, "Superusers must have is_active=True", apperr.As(err).Message)

	stored, err := directory.Get(ctx, member.PublicID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	assert.False(t, stored.IsSuperuser)

	input := validInput()
	input.Username, input.Email, input.Password = "nopass", "nopass@agency.com", ""
	passwordless, err := directory.CreateStandardAccount(ctx, input)
	require.NoError(t, err)

	_, err = directory.ChangePermissions(ctx, passwordless.PublicID, account.ExtraFields{
		IsStaff: pointer.To(true), IsSuperuser: pointer.To(true),
	})
	assert.ErrorIs(t, err, account.ErrPermissionInvariant)

	_, err = directory.ChangePermissions(ctx, "not-a-uuid", account.ExtraFields{})
	assert.ErrorIs(t, err, account.ErrNotFound)
}

/*
TestChangePermissions_Concurrent checks that concurrent changes to different
flags are all kept, and that racing changes cannot combine into a superuser
that is not active.
*/
func TestChangePermissions_Concurrent(t *testing.T) {
	ctx := context.Background()

	t.Run("different_flags", func(t *testing.T) {
		directory, _, _ := newDirectory(t)
		member, err := directory.CreateStandardAccount(ctx, validInput())
		require.NoError(t, err)

		const workers = 16
		var wg sync.WaitGroup
		for i := range workers {
			change := account.ExtraFields{IsStaff: pointer.To(true)}
			if i%2 == 1 {
				change = account.ExtraFields{IsActive: pointer.To(false)}
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := directory.ChangePermissions(ctx, member.PublicID, change)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		stored, err := directory.Get(ctx, member.PublicID)
		require.NoError(t, err)
		assert.True(t, stored.IsStaff)
		assert.False(t, stored.IsActive)
	})

	t.Run("promote_and_deactivate", func(t *testing.T) {
		directory, _, _ := newDirectory(t)
		input := validInput()
		input.Extra.IsStaff = pointer.To(true)
		staff, err := directory.CreateStandardAccount(ctx, input)
		require.NoError(t, err)

		var wg sync.WaitGroup
		var refused atomic.Int32
		for _, change := range []account.ExtraFields{
			{IsSuperuser: pointer.To(true)},
			{IsActive: pointer.To(false)},
		} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := directory.ChangePermissions(ctx, staff.PublicID, change); err != nil {
					assert.ErrorIs(t, err, account.ErrPermissionInvariant)
					refused.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), refused.Load())
		stored, err := directory.Get(ctx, staff.PublicID)
		require.NoError(t, err)
		assert.Equal(t, stored.IsSuperuser, stored.IsActive)
	})
}

// racingStore hides existing rows from the pre-check so the insert-time
// constraint is exercised.
type racingStore struct {
	*account.MemoryStore
}

func (racingStore) FindByEmail(context.Context, string) (*account.Account, error) {
	return nil, account.ErrNotFound
}

func (racingStore) FindByUsername(context.Context, string) (*account.Account, error) {
	return nil, account.ErrNotFound
}

/*
TestCreate_StoreViolationTranslated verifies that a collision reported by the
store at write time surfaces as a uniqueness error.
*/
func TestCreate_StoreViolationTranslated(t *testing.T) {
	memory := account.NewMemoryStore()
	directory := account.NewDirectory(account.Config{
		Store:  racingStore{memory},
		Hasher: sec.NewBcryptHasher(bcrypt.MinCost),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ctx := context.Background()

	_, err := directory.CreateStandardAccount(ctx, validInput())
	require.NoError(t, err)

	second := validInput()
	second.Username = "someone-else"
	_, err = directory.CreateStandardAccount(ctx, second)
	require.ErrorIs(t, err, account.ErrUniqueness)
	assert.Equal(t, []string{account.FieldEmail}, fieldsOf(err))
	assert.Equal(t, 1, memory.Len())
}

/*
TestVerifyCredentials covers the round trip and every failure mode.
*/
func TestVerifyCredentials(t *testing.T) {
	directory, store, _ := newDirectory(t)
	ctx := context.Background()

	created, err := directory.CreateStandardAccount(ctx, validInput())
	require.NoError(t, err)

	inactiveInput := validInput()
	inactiveInput.Username = "dormant"
	inactiveInput.Email = "dormant@example.com"
	inactiveInput.Extra.IsActive = pointer.To(false)
	_, err = directory.CreateStandardAccount(ctx, inactiveInput)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		verified, err := directory.VerifyCredentials(ctx, "Jane.Doe@EXAMPLE.com", "correct horse battery")
		require.NoError(t, err)
		assert.Equal(t, created.PublicID, verified.PublicID)
		require.NotNil(t, verified.LastLoginAt)
		assert.Equal(t, joinedAt, *verified.LastLoginAt)

		stored, err := store.FindByPublicID(ctx, created.PublicID)
		require.NoError(t, err)
		assert.NotNil(t, stored.LastLoginAt)
	})

	failures := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong_password", "Jane.Doe@example.com", "Correct horse battery"},
		{"empty_password", "Jane.Doe@example.com", ""},
		{"local_part_is_case_sensitive", "jane.doe@example.com", "correct horse battery"},
		{"unknown_email", "nobody@example.com", "correct horse battery"},
		{"inactive", "dormant@example.com", "correct horse battery"},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			verified, err := directory.VerifyCredentials(ctx, tt.email, tt.password)
			assert.Nil(t, verified)
			require.ErrorIs(t, err, account.ErrAuth)
			assert.Equal(t, "No active account found with the given credentials", err.Error())
		})
	}
}

/*
TestAccount_Display verifies the display helpers.
*/
func TestAccount_Display(t *testing.T) {
	a := &account.Account{Username: "jdoe", FirstName: "jANE", LastName: "van doe"}

	assert.Equal(t, "Jane Van Doe", a.FullName())
	assert.Equal(t, "jdoe", a.ShortName())
	assert.Equal(t, "jdoe", a.String())
}

/*
TestNormalizeEmail verifies that only the domain is lower-cased.
*/
func TestNormalizeEmail(t *testing.T) {
	tests := []struct{ in, want string }{
		{"John@Example.COM", "John@example.com"},
		{"  a@B.c  ", "a@b.c"},
		{"weird@local@HOST.com", "weird@local@host.com"},
		{"no-at-sign", "no-at-sign"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, account.NormalizeEmail(tt.in), tt.in)
	}
}
