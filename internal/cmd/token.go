package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Submit token requests",
}

var flagTokenJTI string

var tokenRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Get a new access token using the current refresh token",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		if err := rt.session.Refresh(cmd.Context()); err != nil {
			return err
		}
		rt.printer.Message("Token refreshed.")
		return nil
	}),
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the JWT tokens for the current user",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		body, err := rt.session.Do(cmd.Context(), http.MethodGet, "/v1/auth/token", nil)
		if err != nil {
			return err
		}
		rt.printer.Dict(body)
		return nil
	}),
}

var tokenInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show information for the token matching a jti",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		body, err := rt.session.Do(cmd.Context(), http.MethodGet, "/v1/auth/token/"+flagTokenJTI, nil)
		if err != nil {
			return err
		}
		rt.printer.Dict(body)
		return nil
	}),
}

var tokenDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the token matching a jti, or all tokens when none is given",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		var body []byte
		var err error

		if flagTokenJTI != "" {
			body, err = rt.session.Do(cmd.Context(), http.MethodDelete, "/v1/auth/token/"+flagTokenJTI, nil)
		} else if confirm("Are you sure you want to delete all tokens?") {
			body, err = rt.session.Do(cmd.Context(), http.MethodDelete, "/v1/auth/token", nil)
		} else {
			return fmt.Errorf("no tokens deleted")
		}
		if err != nil {
			return err
		}

		rt.printer.Message(gjson.GetBytes(body, "msg").String())
		return nil
	}),
}

func init() {
	tokenInfoCmd.Flags().StringVar(&flagTokenJTI, "jti", "", "the token jti UUID")
	_ = tokenInfoCmd.MarkFlagRequired("jti")
	tokenDeleteCmd.Flags().StringVar(&flagTokenJTI, "jti", "", "the token jti UUID")

	tokenCmd.AddCommand(tokenRefreshCmd)
	tokenCmd.AddCommand(tokenListCmd)
	tokenCmd.AddCommand(tokenInfoCmd)
	tokenCmd.AddCommand(tokenDeleteCmd)
}
