package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"nova-client/internal/common/auth"
	"nova-client/internal/common/validation"
	"nova-client/internal/models"

	"github.com/spf13/cobra"
)

// PasswordEnv is read when --password is not given.
const PasswordEnv = "NOVA_PASSWORD"

// secret resolves a password from the flag, the environment or one line of
// stdin, in that order.
func secret(cmd *cobra.Command, flagValue, env, prompt string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(env); v != "" {
		return v, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("no password given: %w", err)
		}
		return "", fmt.Errorf("no password given")
	}
	return line, nil
}

func newLoginCommand(app func() *App) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			pw, err := secret(cmd, password, PasswordEnv, "Password: ")
			if err != nil {
				return err
			}
			if err := a.Session.Login(cmd.Context(), email, pw); err != nil {
				return reported(err, a.Err)
			}
			user := a.Session.Snapshot().User
			if user == nil {
				a.Notifier.Success("Signed in.")
				return nil
			}
			a.Notifier.Success(fmt.Sprintf("Signed in as %s.", user.Email))
			if !user.CanApply() {
				a.Notifier.Info(fmt.Sprintf("KYC status: %s. Run 'nova kyc submit' once your documents are uploaded.", user.KYCStatus))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or set "+PasswordEnv+")")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCommand(app func() *App) *cobra.Command {
	var req models.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new client account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			pw, err := secret(cmd, req.Password1, PasswordEnv, "Password: ")
			if err != nil {
				return err
			}
			req.Password1, req.Password2 = pw, pw
			req.Email = strings.TrimSpace(req.Email)
			if err := validation.RegisterSchema.Check(req); err != nil {
				return reported(err, a.Err)
			}
			if err := a.API.Register(cmd.Context(), req); err != nil {
				return failed(err, "Registration failed", a.Err)
			}
			a.Notifier.Success("Account created. Check your email to verify it, then run 'nova login'.")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Email, "email", "", "account email")
	f.StringVar(&req.FirstName, "first-name", "", "first name")
	f.StringVar(&req.LastName, "last-name", "", "last name")
	f.StringVar(&req.Password1, "password", "", "password (or set "+PasswordEnv+")")
	for _, name := range []string{"email", "first-name", "last-name"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newLogoutCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			ctx := cmd.Context()
			// Best effort: the refresh token is blacklisted server-side when
			// reachable, the local session is dropped regardless.
			if tokens, err := a.Tokens.Load(ctx); err == nil && tokens.Refresh != "" {
				if err := a.API.Logout(ctx, tokens.Refresh); err != nil {
					a.Log.Debug("server logout failed", map[string]interface{}{"error": err})
				}
			}
			a.Session.Logout(ctx)
			a.Notifier.Success("Signed out.")
			return nil
		},
	}
}

type whoami struct {
	User         *models.User `json:"user"`
	TokenExpires *time.Time   `json:"token_expires_at,omitempty"`
}

func newWhoamiCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			st, err := a.RequireUser(cmd.Context())
			if err != nil {
				return err
			}
			out := whoami{User: st.User}
			if tokens, err := a.Tokens.Load(cmd.Context()); err == nil && tokens.Access != "" {
				if info, err := auth.DescribeToken(tokens.Access); err == nil && !info.ExpiresAt.IsZero() {
					out.TokenExpires = &info.ExpiresAt
				}
			}
			if a.JSON {
				return a.printJSON(out)
			}

			u := st.User
			pairs := []string{
				"Name", orDash(u.FullName()),
				"Email", u.Email,
				"Client ID", orDash(u.ClientID),
				"Account", orDash(u.AccountNumber),
				"KYC", string(u.KYCStatus),
				"MFA", yesNo(u.MFAEnabled),
				"Email verified", yesNo(u.IsEmailVerified),
			}
			if out.TokenExpires != nil {
				remaining := time.Until(*out.TokenExpires).Round(time.Second)
				if remaining < 0 {
					remaining = 0
				}
				pairs = append(pairs, "Access token", fmt.Sprintf("expires in %s", remaining))
			}
			return a.fields(pairs...)
		},
	}
}

func newPasswordCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change or reset your password",
	}

	var oldPassword, newPassword string
	change := &cobra.Command{
		Use:   "change",
		Short: "Change the password of the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if oldPassword == "" || newPassword == "" {
				return reported(fmt.Errorf("both --old and --new are required"), a.Err)
			}
			req := models.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}
			if err := a.API.ChangePassword(cmd.Context(), req); err != nil {
				return failed(err, "Failed to change password", a.Err)
			}
			a.Notifier.Success("Password changed.")
			return nil
		},
	}
	change.Flags().StringVar(&oldPassword, "old", "", "current password")
	change.Flags().StringVar(&newPassword, "new", "", "new password")

	var email string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Email a password reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if !validation.ValidateEmail(email) {
				return reported(fmt.Errorf("invalid email address %q", email), a.Err)
			}
			if err := a.API.RequestPasswordReset(cmd.Context(), email); err != nil {
				return failed(err, "Failed to request a password reset", a.Err)
			}
			a.Notifier.Success("If the account exists, a reset link is on its way.")
			return nil
		},
	}
	reset.Flags().StringVar(&email, "email", "", "account email")
	_ = reset.MarkFlagRequired("email")

	cmd.AddCommand(change, reset)
	return cmd
}

func newKYCCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kyc",
		Short: "Identity verification",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "submit",
		Short: "Submit uploaded KYC documents for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if err := a.API.SubmitKYC(cmd.Context()); err != nil {
				return failed(err, "Failed to submit KYC", a.Err)
			}
			a.Notifier.Success("KYC submitted for review.")
			return nil
		},
	})
	return cmd
}

func newMFACommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mfa",
		Short: "Manage two-factor authentication",
	}

	setup := &cobra.Command{
		Use:   "setup",
		Short: "Generate a TOTP secret for your authenticator app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			s, err := a.API.SetupMFA(cmd.Context())
			if err != nil {
				return failed(err, "Failed to set up MFA", a.Err)
			}
			if a.JSON {
				return a.printJSON(s)
			}
			if err := a.fields("Secret", s.Secret); err != nil {
				return err
			}
			a.Notifier.Info("Add the secret to your authenticator, then run 'nova mfa enable <code>'.")
			return nil
		},
	}

	codeCommand := func(use, short, success, fallback string, call func(a *App, cmd *cobra.Command, code string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <code>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := app()
				if err := call(a, cmd, strings.TrimSpace(args[0])); err != nil {
					return failed(err, fallback, a.Err)
				}
				a.Notifier.Success(success)
				return nil
			},
		}
	}

	enable := codeCommand("enable", "Turn on MFA with a code from your authenticator", "Two-factor authentication enabled.", "Invalid code",
		func(a *App, cmd *cobra.Command, code string) error { return a.API.EnableMFA(cmd.Context(), code) })
	disable := codeCommand("disable", "Turn off MFA", "Two-factor authentication disabled.", "Failed to disable MFA",
		func(a *App, cmd *cobra.Command, code string) error { return a.API.DisableMFA(cmd.Context(), code) })
	verify := codeCommand("verify", "Check a code against your MFA secret", "Code verified.", "Invalid code",
		func(a *App, cmd *cobra.Command, code string) error {
			ok, err := a.API.VerifyMFA(cmd.Context(), code)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("code rejected")
			}
			return nil
		})

	cmd.AddCommand(setup, enable, verify, disable)
	return cmd
}
