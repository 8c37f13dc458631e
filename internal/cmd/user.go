package cmd

import (
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage your server user account",
}

var flagUserEmail string

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user account",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		password, err := promptConfirmedPassword("Enter password")
		if err != nil {
			return err
		}
		payload := map[string]any{
			"email":    flagUserEmail,
			"password": password,
		}
		body, err := rt.client.Do(cmd.Context(), http.MethodPost, "/v1/user/", payload, "")
		if err != nil {
			return err
		}
		if err = rt.cfg.SetEmail(flagUserEmail); err != nil {
			log.Warnf("failed to save email to profile: %v", err)
		}
		rt.printer.Dict(body)
		return nil
	}),
}

var userInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show info for your user account",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		body, err := rt.session.Do(cmd.Context(), http.MethodGet, "/v1/user/", nil)
		if err != nil {
			return err
		}
		rt.printer.Dict(body)
		return nil
	}),
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete your user account and all associated data",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		if !confirm("Are you sure you want to delete your user account?") {
			return fmt.Errorf("aborted")
		}
		body, err := rt.session.Do(cmd.Context(), http.MethodDelete, "/v1/user/", nil)
		if err != nil {
			return err
		}
		rt.printer.Message(gjson.GetBytes(body, "msg").String())
		return nil
	}),
}

var userPasswordResetCmd = &cobra.Command{
	Use:   "password-reset",
	Short: "Request a password reset email",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		email := flagUserEmail
		if email == "" {
			email = rt.cfg.Email
		}
		if email == "" {
			return fmt.Errorf("no --email parameter and no email in config")
		}
		body, err := rt.client.Do(cmd.Context(), http.MethodPost, "/v1/user/password/reset",
			map[string]any{"email": email}, "")
		if err != nil {
			return err
		}
		rt.printer.Message(gjson.GetBytes(body, "msg").String())
		return nil
	}),
}

var userPasswordChangeCmd = &cobra.Command{
	Use:   "password-change",
	Short: "Change your account password",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		current, err := promptPassword("Enter current password")
		if err != nil {
			return err
		}
		next, err := promptConfirmedPassword("Enter new password")
		if err != nil {
			return err
		}
		payload := map[string]any{
			"current_password": current,
			"new_password":     next,
		}
		body, err := rt.session.Do(cmd.Context(), http.MethodPost, "/v1/user/password/change", payload)
		if err != nil {
			return err
		}
		rt.printer.Message(gjson.GetBytes(body, "msg").String())
		rt.printer.Message("Password changed, please login again (skyforge auth login).")
		return nil
	}),
}

func init() {
	userCreateCmd.Flags().StringVar(&flagUserEmail, "email", "", "the email address for the account")
	_ = userCreateCmd.MarkFlagRequired("email")
	userPasswordResetCmd.Flags().StringVar(&flagUserEmail, "email", "", "the email address for the account")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userInfoCmd)
	userCmd.AddCommand(userDeleteCmd)
	userCmd.AddCommand(userPasswordResetCmd)
	userCmd.AddCommand(userPasswordChangeCmd)
}
