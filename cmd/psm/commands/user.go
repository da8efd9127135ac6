package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/psm-app/psm/internal/cli/output"
	"github.com/psm-app/psm/internal/cli/prompt"
	"github.com/psm-app/psm/pkg/models"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
	Long: `Manage user accounts directly against the configured database.

These commands bypass the HTTP API and its permission checks; they are
meant for operators with database access, for example to recover from a
lost superuser password.`,
}

var (
	userAddRole     string
	userAddEmail    string
	userAddPassword string
	userDeleteYes   bool
	userListOutput  string
)

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a new user",
	Long: `Add a new user account. Prompts for a password when --password is
not given.

Examples:
  psm user add alice
  psm user add bob --role leader --email bob@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runUserAdd,
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserDelete,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE:  runUserList,
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd <username>",
	Short: "Change a user's password",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserPasswd,
}

func init() {
	userAddCmd.Flags().StringVar(&userAddRole, "role", "member", "Role (admin|leader|member)")
	userAddCmd.Flags().StringVar(&userAddEmail, "email", "", "Email address")
	userAddCmd.Flags().StringVarP(&userAddPassword, "password", "p", "", "Password (prompts if not provided)")

	userDeleteCmd.Flags().BoolVarP(&userDeleteYes, "yes", "y", false, "Skip confirmation prompt")

	userListCmd.Flags().StringVarP(&userListOutput, "output", "o", "table", "Output format (table|json|yaml)")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userDeleteCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userPasswdCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	username := args[0]

	role := models.Role(userAddRole)
	if !role.IsValid() || role == models.RoleSuper {
		return fmt.Errorf("invalid role %q (valid: admin, leader, member)", userAddRole)
	}
	if username == models.SuperuserUsername {
		return fmt.Errorf("username %q is reserved", models.SuperuserUsername)
	}

	password := userAddPassword
	if password == "" {
		var err error
		password, err = prompt.PasswordWithConfirmation("Password", "Confirm password", 6)
		if err != nil {
			return handleAbort(err)
		}
	}
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}

	cfg, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	hash, err := models.HashPassword(password)
	if err != nil {
		return err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Email:        models.OptionalString(userAddEmail),
		Role:         role,
		Enabled:      true,
	}
	if _, err := s.CreateUser(context.Background(), user); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			return fmt.Errorf("user %q already exists", username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("User %q created with role %s.\n", username, role)
	return nil
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	username := args[0]

	if username == models.SuperuserUsername {
		return fmt.Errorf("the superuser account cannot be deleted")
	}

	if !userDeleteYes {
		confirmed, err := prompt.Confirm(fmt.Sprintf("Delete user %q", username), false)
		if err != nil {
			return handleAbort(err)
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.DeleteUser(context.Background(), username); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return fmt.Errorf("user %q not found", username)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Printf("User %q deleted.\n", username)
	return nil
}

// userTable renders users for tabular output.
type userTable []*models.User

func (ut userTable) Headers() []string {
	return []string{"USERNAME", "ROLE", "EMAIL", "ENABLED", "LAST LOGIN"}
}

func (ut userTable) Rows() [][]string {
	rows := make([][]string, 0, len(ut))
	for _, u := range ut {
		email := "-"
		if u.Email != nil && *u.Email != "" {
			email = *u.Email
		}
		enabled := "no"
		if u.Enabled {
			enabled = "yes"
		}
		lastLogin := "-"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.Format(time.RFC3339)
		}
		rows = append(rows, []string{u.Username, string(u.Role), email, enabled, lastLogin})
	}
	return rows
}

func runUserList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	users, err := s.ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	format, err := output.ParseFormat(userListOutput)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, users)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, users)
	default:
		if len(users) == 0 {
			fmt.Println("No users found.")
			return nil
		}
		return output.PrintTable(os.Stdout, userTable(users))
	}
}

func runUserPasswd(cmd *cobra.Command, args []string) error {
	username := args[0]

	password, err := prompt.PasswordWithConfirmation("New password", "Confirm password", 6)
	if err != nil {
		return handleAbort(err)
	}

	cfg, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	hash, err := models.HashPassword(password)
	if err != nil {
		return err
	}

	if err := s.UpdatePassword(context.Background(), username, hash); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return fmt.Errorf("user %q not found", username)
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	fmt.Printf("Password updated for user %q.\n", username)
	return nil
}

// handleAbort maps a prompt abort to a quiet exit.
func handleAbort(err error) error {
	if prompt.IsAborted(err) {
		fmt.Println("Aborted.")
		return nil
	}
	return err
}
