// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taibuivan/realestate/internal/platform/validate"
	"github.com/taibuivan/realestate/internal/users/account"
	"github.com/taibuivan/realestate/pkg/pointer"
)

// SuperuserEnvPrefix prefixes the variables read by createsuperuser, e.g.
// SUPERUSER_EMAIL and SUPERUSER_PASSWORD.
const SuperuserEnvPrefix = "SUPERUSER_"

const (
	msgPasswordMismatch = "Error: Your passwords didn't match."
	msgPasswordBlank    = "Error: Blank passwords aren't allowed."
	msgFieldBlank       = "Error: This field cannot be blank."
	promptBypass        = "Bypass password validation and create user anyway? [y/N]: "
)

// createCommand holds the state shared by createsuperuser and createuser.
type createCommand struct {
	env *Environment

	email     string
	username  string
	firstName string
	lastName  string
	password  string
	noInput   bool

	// envPrefix enables <prefix>EMAIL style fallbacks when non-empty.
	envPrefix string
	// allowBlank lets interactive runs create an account without a usable password.
	allowBlank bool
	success    string
	create     func(ctx context.Context, directory *account.Directory, input account.NewAccount) (*account.Account, error)
}

type identityField struct {
	flag   string
	prompt string
	target *string
}

func (command *createCommand) fields() []identityField {
	return []identityField{
		{flag: "email", prompt: "Email: ", target: &command.email},
		{flag: "username", prompt: "Username: ", target: &command.username},
		{flag: "first-name", prompt: "First name: ", target: &command.firstName},
		{flag: "last-name", prompt: "Last name: ", target: &command.lastName},
	}
}

func (command *createCommand) bindFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&command.email, "email", "", "email address, used to log in")
	flags.StringVar(&command.username, "username", "", "unique username")
	flags.StringVar(&command.firstName, "first-name", "", "first name")
	flags.StringVar(&command.lastName, "last-name", "", "last name")
	flags.StringVar(&command.password, "password", "", "password (prefer the prompt, flags end up in shell history)")
	flags.BoolVar(&command.noInput, "no-input", false, "never prompt; missing values are an error")
}

func newCreateSuperuserCommand(env *Environment) *cobra.Command {
	command := &createCommand{
		env:       env,
		envPrefix: SuperuserEnvPrefix,
		success:   "Superuser created successfully.",
		create: func(ctx context.Context, directory *account.Directory, input account.NewAccount) (*account.Account, error) {
			return directory.CreateElevatedAccount(ctx, input)
		},
	}

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff account with every permission",
		Long: "Create a superuser. Values missing from the flags are read from " +
			SuperuserEnvPrefix + "<FIELD> variables, then prompted for unless --no-input is set.",
		Args: cobra.NoArgs,
		RunE: command.run,
	}
	command.bindFlags(cmd)

	return cmd
}

func newCreateUserCommand(env *Environment) *cobra.Command {
	var isStaff, isInactive bool

	command := &createCommand{
		env:        env,
		allowBlank: true,
		success:    "User created successfully.",
	}
	command.create = func(ctx context.Context, directory *account.Directory, input account.NewAccount) (*account.Account, error) {
		input.Extra = account.ExtraFields{IsStaff: pointer.To(isStaff), IsActive: pointer.To(!isInactive)}
		return directory.CreateStandardAccount(ctx, input)
	}

	cmd := &cobra.Command{
		Use:   "createuser",
		Short: "Create a standard account",
		Args:  cobra.NoArgs,
		RunE:  command.run,
	}
	command.bindFlags(cmd)
	cmd.Flags().BoolVar(&isStaff, "staff", false, "grant admin access")
	cmd.Flags().BoolVar(&isInactive, "inactive", false, "create the account deactivated")

	return cmd
}

func (command *createCommand) run(cmd *cobra.Command, _ []string) error {
	prompter := newPrompter(command.env)

	for _, field := range command.fields() {
		if err := command.resolve(prompter, field); err != nil {
			return err
		}
	}

	password, err := command.resolvePassword(prompter)
	if err != nil {
		return err
	}

	directory, release, err := command.env.directory(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	created, err := command.create(cmd.Context(), directory, account.NewAccount{
		Username:  command.username,
		FirstName: command.firstName,
		LastName:  command.lastName,
		Email:     command.email,
		Password:  password,
	})
	if err != nil {
		return errors.New(Describe(err))
	}

	fmt.Fprintln(command.env.Out, command.success)
	command.env.Logger.Info("manage_account_created",
		slog.String("user_id", created.PublicID),
		slog.Bool("is_superuser", created.IsSuperuser),
	)

	return nil
}

func (command *createCommand) envKey(flag string) string {
	return command.envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func (command *createCommand) resolve(prompter *prompter, field identityField) error {
	if *field.target == "" && command.envPrefix != "" {
		*field.target = command.env.getenv(command.envKey(field.flag))
	}
	if *field.target != "" {
		return nil
	}
	if command.noInput {
		return fmt.Errorf("you must use --%s with --no-input", field.flag)
	}

	for {
		value, err := prompter.line(field.prompt)
		if err != nil {
			return err
		}
		if value = strings.TrimSpace(value); value != "" {
			*field.target = value
			return nil
		}
		fmt.Fprintln(command.env.Out, msgFieldBlank)
	}
}

func (command *createCommand) resolvePassword(prompter *prompter) (string, error) {
	if command.password != "" {
		return command.password, nil
	}
	if command.envPrefix != "" {
		if fromEnv := command.env.getenv(command.envKey("password")); fromEnv != "" {
			return fromEnv, nil
		}
	}
	if command.noInput {
		return "", nil
	}

	for {
		first, err := prompter.secret("Password: ")
		if err != nil {
			return "", err
		}
		second, err := prompter.secret("Password (again): ")
		if err != nil {
			return "", err
		}

		if first != second {
			fmt.Fprintln(command.env.Out, msgPasswordMismatch)
			continue
		}
		if first == "" {
			if command.allowBlank {
				return "", nil
			}
			fmt.Fprintln(command.env.Out, msgPasswordBlank)
			continue
		}

		policy := (&validate.Validator{}).
			Password(account.FieldPassword, first, command.username, command.firstName, command.lastName, command.email).
			Err()
		if policy != nil {
			fmt.Fprintln(command.env.Out, Describe(policy))
			bypass, err := prompter.confirm(promptBypass)
			if err != nil {
				return "", err
			}
			if !bypass {
				continue
			}
		}

		return first, nil
	}
}
