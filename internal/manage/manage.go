// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package manage implements the administrative command line.

Commands:

  - createsuperuser: Create an elevated account, interactively or from flags.
  - createuser: Create a standard account.
  - migrate: Apply, roll back or inspect the database schema.

The commands talk to the same account directory as the API, so every rule
the API enforces also applies here.
*/
package manage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taibuivan/realestate/internal/platform/apperr"
	"github.com/taibuivan/realestate/internal/platform/config"
	"github.com/taibuivan/realestate/internal/platform/postgres"
	"github.com/taibuivan/realestate/internal/platform/sec"
	"github.com/taibuivan/realestate/internal/users/account"
	"github.com/taibuivan/realestate/pkg/slice"
)

// ErrNoPersistentStore is returned when account commands run against STORE=memory.
var ErrNoPersistentStore = errors.New("manage: STORE=memory keeps no accounts between processes")

// # Environment

// Environment carries the process dependencies of the commands.
type Environment struct {
	Config *config.Config
	Logger *slog.Logger

	In  io.Reader
	Out io.Writer

	// Getenv looks up environment variables. Nil means [os.Getenv].
	Getenv func(key string) string

	// ReadPassword reads a secret without echo. Nil reads from the terminal
	// when In is one, and a plain line otherwise.
	ReadPassword func() (string, error)

	// OpenDirectory builds the account directory. Nil opens the configured store.
	OpenDirectory func(ctx context.Context) (*account.Directory, func(), error)
}

func (env *Environment) getenv(key string) string {
	if env.Getenv != nil {
		return env.Getenv(key)
	}
	return os.Getenv(key)
}

func (env *Environment) directory(ctx context.Context) (*account.Directory, func(), error) {
	if env.OpenDirectory != nil {
		return env.OpenDirectory(ctx)
	}
	return OpenDirectory(ctx, env.Config, env.Logger)
}

/*
OpenDirectory connects to PostgreSQL and builds the account directory.

Returns:
  - *account.Directory: Ready to use
  - func(): Releases the connection pool
  - error: [ErrNoPersistentStore] or connection failures
*/
func OpenDirectory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*account.Directory, func(), error) {
	if cfg.Store == config.StoreMemory {
		return nil, nil, ErrNoPersistentStore
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, err
	}

	directory := account.NewDirectory(account.Config{
		Store:  account.NewPostgresStore(pool),
		Hasher: sec.NewBcryptHasher(cfg.BcryptCost),
		Logger: logger,
	})
	return directory, pool.Close, nil
}

// # Root Command

// NewRootCommand assembles the manage command tree.
func NewRootCommand(env *Environment) *cobra.Command {
	root := &cobra.Command{
		Use:           "manage",
		Short:         "Administrative tasks for the real estate account directory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newCreateSuperuserCommand(env),
		newCreateUserCommand(env),
		newMigrateCommand(env),
	)

	return root
}

// Describe renders directory errors for a terminal, one field per line.
func Describe(err error) string {
	appErr := apperr.As(err)
	if appErr == nil {
		return err.Error()
	}
	if len(appErr.Details) == 0 {
		return appErr.Message
	}

	lines := slice.Map(appErr.Details, func(detail apperr.FieldError) string {
		return fmt.Sprintf("%s: %s", detail.Field, detail.Message)
	})
	return strings.Join(lines, "\n")
}

// # Prompting

type prompter struct {
	env    *Environment
	reader *bufio.Reader
}

func newPrompter(env *Environment) *prompter {
	in := env.In
	if in == nil {
		in = os.Stdin
	}
	return &prompter{env: env, reader: bufio.NewReader(in)}
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.env.Out, prompt)

	text, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && text != "") {
		return "", err
	}
	return strings.TrimRight(text, "\r\n"), nil
}

func (p *prompter) secret(prompt string) (string, error) {
	if p.env.ReadPassword != nil {
		fmt.Fprint(p.env.Out, prompt)
		return p.env.ReadPassword()
	}

	if file, ok := p.env.In.(*os.File); ok && isTerminal(file) {
		fmt.Fprint(p.env.Out, prompt)
		secret, err := readTerminalPassword(file)
		fmt.Fprintln(p.env.Out)
		return secret, err
	}

	return p.line(prompt)
}

func (p *prompter) confirm(prompt string) (bool, error) {
	answer, err := p.line(prompt)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y"), nil
}
