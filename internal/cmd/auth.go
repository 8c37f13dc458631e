package cmd

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/atotto/clipboard"
	log "github.com/sirupsen/logrus"
	"github.com/skyforge-project/skyforge-cli/internal/auth/oauth"
	"github.com/skyforge-project/skyforge-cli/internal/browser"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Submit authentication requests",
}

var (
	flagLoginEmail    string
	flagLoginNoExpiry bool
	flagOIDCNoBrowser bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		email := flagLoginEmail
		if email == "" {
			email = rt.cfg.Email
		}
		if email == "" {
			return fmt.Errorf("no --email parameter and no email in config")
		}

		password, err := promptPassword("Enter password")
		if err != nil {
			return err
		}

		if err = rt.session.Login(cmd.Context(), email, password, flagLoginNoExpiry); err != nil {
			return err
		}
		if err = rt.cfg.SetEmail(email); err != nil {
			log.Warnf("login succeeded but email could not be saved to profile: %v", err)
		}

		rt.printer.Message("Login successful.")
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and revoke the current refresh token",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		msg, err := rt.session.Logout(cmd.Context())
		if err != nil {
			return err
		}
		rt.printer.Message(msg)
		return nil
	}),
}

var oidcCmd = &cobra.Command{
	Use:   "oidc",
	Short: "Log in through the OpenID Connect provider in a browser",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		ctx := cmd.Context()

		body, err := rt.client.Do(ctx, http.MethodGet, "/v1/auth/oauth2", nil, "")
		if err != nil {
			return err
		}
		parsed := gjson.ParseBytes(body)

		var candidates []int
		parsed.Get("redirect_ports").ForEach(func(_, port gjson.Result) bool {
			candidates = append(candidates, int(port.Int()))
			return true
		})
		port, err := oauth.SelectFreePort(candidates)
		if err != nil {
			return err
		}

		authURL := fmt.Sprintf("%s&redirect_uri=%s",
			parsed.Get("auth_url").String(),
			url.QueryEscape(fmt.Sprintf("http://localhost:%d", port)))

		rt.printer.Message(fmt.Sprintf("%s: %s", parsed.Get("msg").String(), authURL))
		openAuthURL(authURL)

		code, err := oauth.Capture(port, oauth.DefaultCaptureTimeout)
		if err != nil {
			return fmt.Errorf("failed login: %w", err)
		}

		tokens, err := rt.client.Do(ctx, http.MethodPost, "/v1/auth/oauth2", map[string]any{
			"auth_code":     code,
			"state":         parsed.Get("state").String(),
			"redirect_port": port,
		}, "")
		if err != nil {
			return err
		}
		if err = rt.session.SaveTokens(tokens); err != nil {
			return err
		}

		rt.printer.Message("Login successful.")
		return nil
	}),
}

// openAuthURL launches the browser for the authorization URL. When no
// browser can be opened the URL stays printed on the terminal; as a
// convenience it is also copied to the clipboard when one is available.
func openAuthURL(authURL string) {
	if !flagOIDCNoBrowser && browser.IsAvailable() {
		err := browser.OpenURL(authURL)
		if err == nil {
			return
		}
		log.Warnf("failed to open browser: %v", err)
	}
	if err := clipboard.WriteAll(authURL); err == nil {
		log.Info("authorization URL copied to clipboard")
	}
}

func init() {
	loginCmd.Flags().StringVar(&flagLoginEmail, "email", "", "email of the skyforge user (default taken from config)")
	loginCmd.Flags().BoolVar(&flagLoginNoExpiry, "no-expiry", false, "create a refresh token with no expiration (default expiry is 30 days)")
	oidcCmd.Flags().BoolVar(&flagOIDCNoBrowser, "no-browser", false, "print the authorization URL instead of opening a browser")

	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(oidcCmd)
	authCmd.AddCommand(tokenCmd)
}
