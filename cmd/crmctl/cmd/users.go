package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"amazobank.com/crm/auth"
	"amazobank.com/crm/client"
	"amazobank.com/crm/pg/model"
	"amazobank.com/crm/usermgmt"
)

var (
	listRole        string
	includeDisabled bool

	userSubject   string
	userFirstName string
	userLastName  string
	userEmail     string
	userPassword  string
	userRole      string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Administer CRM users",
	Long:  `Lists, creates, updates and disables users. Requires an Admin or SuperAdmin session.`,
}

// withClient opens the session and runs fn with an API client bound to it.
func withClient(cmd *cobra.Command, fn func(c *client.Client) error) error {
	store, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(client.New(serverURL, store))
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(c *client.Client) error {
			users, err := c.ListUsers(cmd.Context(), model.ListOptions{
				Role:            auth.Role(listRole),
				IncludeDisabled: includeDisabled,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), users)
		})
	},
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Long: `Creates a user with the given role. Admins may only create Agents.
When --password is omitted a temporary password is generated and printed once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(c *client.Client) error {
			created, err := c.CreateUser(cmd.Context(), usermgmt.CreateUserRequest{
				Subject:   userSubject,
				FirstName: userFirstName,
				LastName:  userLastName,
				Email:     userEmail,
				Password:  userPassword,
				Role:      auth.Role(userRole),
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), created)
		})
	},
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := usermgmt.UpdateUserRequest{}
		flags := cmd.Flags()
		if flags.Changed("first-name") {
			req.FirstName = &userFirstName
		}
		if flags.Changed("last-name") {
			req.LastName = &userLastName
		}
		if flags.Changed("email") {
			req.Email = &userEmail
		}
		if flags.Changed("password") {
			req.Password = &userPassword
		}
		if flags.Changed("role") {
			role := auth.Role(userRole)
			req.Role = &role
		}

		return withClient(cmd, func(c *client.Client) error {
			user, err := c.UpdateUser(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		})
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Disable a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(c *client.Client) error {
			if err := c.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Disabled user %s\n", args[0])
			return nil
		})
	},
}

func addUserFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&userFirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&userLastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&userEmail, "email", "", "Email address")
	cmd.Flags().StringVar(&userPassword, "password", "", "Initial password")
	cmd.Flags().StringVar(&userRole, "role", "", "Role: Agent, Admin or SuperAdmin")
}

func init() {
	usersListCmd.Flags().StringVar(&listRole, "role", "", "Only list users with this role")
	usersListCmd.Flags().BoolVar(&includeDisabled, "include-disabled", false, "Include disabled users")

	addUserFlags(usersCreateCmd)
	usersCreateCmd.Flags().StringVar(&userSubject, "subject", "", "Identity provider subject to link the user to")
	addUserFlags(usersUpdateCmd)

	usersCmd.AddCommand(usersListCmd, usersCreateCmd, usersUpdateCmd, usersDeleteCmd)
}
