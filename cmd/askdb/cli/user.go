package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/askdb/askdb/internal/model"
	"github.com/askdb/askdb/internal/service"
	"github.com/askdb/askdb/internal/store"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
		Long:  "Create, list, and activate user accounts without going through the HTTP API.",
	}

	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserActivateCmd())

	return cmd
}

// ---------- user create ----------

func newUserCreateCmd() *cobra.Command {
	var (
		email     string
		password  string
		firstName string
		lastName  string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user account",
		Example: `  askdb user create --email alice@example.com --fname Alice
  askdb user create --email alice@example.com --fname Alice --password secret123`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserCreate(email, password, firstName, lastName)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	cmd.Flags().StringVar(&firstName, "fname", "", "First name (required)")
	cmd.Flags().StringVar(&lastName, "lname", "", "Last name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("fname")

	return cmd
}

func runUserCreate(email, password, firstName, lastName string) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %q", email)
	}

	// Prompt for password if not provided
	if password == "" {
		fmt.Print("Password: ")
		pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()
		password = string(pwBytes)

		fmt.Print("Confirm password: ")
		confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		fmt.Println()

		if password != string(confirmBytes) {
			return fmt.Errorf("passwords do not match")
		}
	}

	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	hash, err := service.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		IsActive:     true,
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		if err == store.ErrDuplicate {
			return fmt.Errorf("a user with email %q already exists", email)
		}
		return err
	}

	fmt.Printf("Created user %q (id %d)\n", email, u.ID)
	return nil
}

// ---------- user list ----------

func newUserListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runUserList(jsonOutput bool) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	users, err := st.ListUsers(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput {
		type userRow struct {
			ID     int64  `json:"id"`
			Email  string `json:"email"`
			Name   string `json:"name"`
			Active bool   `json:"active"`
		}
		rows := make([]userRow, 0, len(users))
		for _, u := range users {
			rows = append(rows, userRow{
				ID:     u.ID,
				Email:  u.Email,
				Name:   strings.TrimSpace(u.FirstName + " " + u.LastName),
				Active: u.IsActive,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(users) == 0 {
		fmt.Println("No users registered. Use 'askdb user create' to create one.")
		return nil
	}

	fmt.Printf("%-6s %-30s %-24s %-8s\n", "ID", "EMAIL", "NAME", "ACTIVE")
	fmt.Printf("%-6s %-30s %-24s %-8s\n", "--", "-----", "----", "------")
	for _, u := range users {
		active := "yes"
		if !u.IsActive {
			active = "no"
		}
		name := strings.TrimSpace(u.FirstName + " " + u.LastName)
		fmt.Printf("%-6d %-30s %-24s %-8s\n", u.ID, u.Email, name, active)
	}

	return nil
}

// ---------- user activate ----------

func newUserActivateCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Activate a user without email verification",
		Long:  "Mark an account active directly. Useful when mail delivery is not configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserActivate(email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address of the user to activate (required)")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runUserActivate(email string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	u, err := st.GetUserByEmail(ctx, email)
	if err != nil {
		if err == store.ErrNotFound {
			return fmt.Errorf("no user with email %q", email)
		}
		return err
	}
	if u.IsActive {
		fmt.Printf("User %q is already active\n", email)
		return nil
	}
	if err := st.ActivateUser(ctx, u.ID); err != nil {
		return err
	}

	fmt.Printf("Activated user %q\n", email)
	return nil
}
