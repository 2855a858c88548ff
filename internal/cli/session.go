package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(setNameCmd)

	loginCmd.Flags().StringP("password", "p", "", "Account password (prompted when omitted)")
	registerCmd.Flags().StringP("password", "p", "", "Account password (prompted when omitted)")
}

var loginCmd = &cobra.Command{
	Use:   "login EMAIL",
	Short: "Sign in and store the session token",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	password, err := passwordFromFlagOrPrompt(cmd)
	if err != nil {
		return err
	}

	if !a.session.Login(cmd.Context(), args[0], password) {
		if msg := a.session.Err(); msg != "" {
			return storeErr(msg)
		}
		return fmt.Errorf("email and password are required")
	}

	user := a.session.User()
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

var registerCmd = &cobra.Command{
	Use:   "register NAME EMAIL",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(2),
	RunE:  runRegister,
}

func runRegister(cmd *cobra.Command, args []string) error {
	password, err := passwordFromFlagOrPrompt(cmd)
	if err != nil {
		return err
	}

	if !a.session.Register(cmd.Context(), args[0], args[1], password) {
		if msg := a.session.Err(); msg != "" {
			return storeErr(msg)
		}
		return fmt.Errorf("name, email and password are required")
	}

	user := a.session.User()
	fmt.Fprintf(cmd.OutOrStdout(), "Registered as %s <%s>\n", user.Name, user.Email)
	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a.session.Logout(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account behind the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(cmd); err != nil {
			return err
		}
		user := a.session.User()
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.Name, user.Email)
		return nil
	},
}

var setNameCmd = &cobra.Command{
	Use:   "set-name NAME",
	Short: "Change the display name of the account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(cmd); err != nil {
			return err
		}
		if !a.session.UpdateUsername(cmd.Context(), args[0]) {
			if msg := a.session.Err(); msg != "" {
				return storeErr(msg)
			}
			return fmt.Errorf("name cannot be empty")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Name updated to %s\n", a.session.User().Name)
		return nil
	},
}

func passwordFromFlagOrPrompt(cmd *cobra.Command) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	if password != "" {
		return password, nil
	}

	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
