package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kickstart/client/internal/api"
	"github.com/kickstart/client/internal/models"
	"github.com/kickstart/client/internal/validation"
)

func newLoginCmd(deps *Deps) *cobra.Command {
	var (
		googleToken string
		appleToken  string
		isAndroid   bool
	)

	cmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Authenticate and store the session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if googleToken != "" {
				if !deps.Config.EnableGoogleSignIn {
					return fmt.Errorf("google sign-in is disabled")
				}
				session, err := deps.API.GoogleSignIn(ctx, googleToken, isAndroid)
				if err != nil {
					return err
				}
				return finishLogin(deps, cmd, session.User.Email, session)
			}
			if appleToken != "" {
				if !deps.Config.EnableAppleSignIn {
					return fmt.Errorf("apple sign-in is disabled")
				}
				session, err := deps.API.AppleSignIn(ctx, appleToken)
				if err != nil {
					return err
				}
				return finishLogin(deps, cmd, session.User.Email, session)
			}

			email := ""
			if len(args) == 1 {
				email = args[0]
			} else {
				value, err := promptLine("Email")
				if err != nil {
					return err
				}
				email = value
			}

			password, err := promptPassword("Password")
			if err != nil {
				return err
			}

			if errs := validation.LoginForm(email, password); !errs.Ok() {
				return printFieldErrors(errs)
			}

			session, err := deps.API.Login(ctx, email, password)
			if err != nil {
				return err
			}
			return finishLogin(deps, cmd, email, session)
		},
	}

	cmd.Flags().StringVar(&googleToken, "google-token", "", "sign in with a Google identity token")
	cmd.Flags().StringVar(&appleToken, "apple-token", "", "sign in with an Apple identity token")
	cmd.Flags().BoolVar(&isAndroid, "android", false, "mark the Google token as Android-issued")

	return cmd
}

func finishLogin(deps *Deps, cmd *cobra.Command, email string, session models.Session) error {
	if err := deps.Auth.Login(session); err != nil {
		return err
	}
	if email == "" {
		email = session.User.ID
	}
	cmd.Printf("Logged in as %s.\n", email)
	markFirstRun(deps, cmd)
	return nil
}

// markFirstRun prints the first-run hint and sets the onboarding flag the
// first time a session is established on this device.
func markFirstRun(deps *Deps, cmd *cobra.Command) {
	done, err := deps.Store.OnboardingComplete()
	if err != nil || done {
		return
	}
	cmd.Println("First run on this device. Run `kickstart profile update` to fill out your profile.")
	if err := deps.Store.SetOnboardingComplete(); err != nil {
		deps.Logger.Warn("record onboarding flag", "error", err)
	}
}

func newSignupCmd(deps *Deps) *cobra.Command {
	var guest bool

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and verify it with the emailed code",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if guest {
				if !deps.Config.EnableGuestMode {
					return fmt.Errorf("guest mode is disabled")
				}
				session, err := deps.API.GuestSignup(ctx)
				if err != nil {
					return err
				}
				if err := deps.Auth.Login(session); err != nil {
					return err
				}
				cmd.Println("Signed in as guest.")
				markFirstRun(deps, cmd)
				return nil
			}

			email, err := promptLine("Email")
			if err != nil {
				return err
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}
			confirm, err := promptPassword("Confirm password")
			if err != nil {
				return err
			}

			if errs := validation.SignupForm(email, password, confirm); !errs.Ok() {
				return printFieldErrors(errs)
			}

			if err := deps.API.Signup(ctx, email, password); err != nil {
				return err
			}
			cmd.Println("Account created. Check your inbox for the verification code.")

			otp, err := promptLine("Verification code")
			if err != nil {
				return err
			}
			if errs := validation.OTPForm(otp); !errs.Ok() {
				return printFieldErrors(errs)
			}

			session, err := deps.API.VerifySignupOTP(ctx, email, otp)
			if err != nil {
				return err
			}
			if err := deps.Auth.Login(session); err != nil {
				return err
			}
			cmd.Printf("Welcome, %s.\n", email)
			markFirstRun(deps, cmd)
			return nil
		},
	}

	cmd.Flags().BoolVar(&guest, "guest", false, "create an anonymous guest account")

	return cmd
}

func newLogoutCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.Auth.Logout(); err != nil {
				return err
			}
			deps.Notify.Reset()
			cmd.Println("Logged out.")
			return nil
		},
	}
}

func newPasswordCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Password reset flows",
	}

	forgot := &cobra.Command{
		Use:   "forgot <email>",
		Short: "Request a password reset code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]
			if errs := validation.ForgotPasswordForm(email); !errs.Ok() {
				return printFieldErrors(errs)
			}
			if err := deps.API.ForgotPassword(cmd.Context(), email); err != nil {
				return err
			}
			cmd.Println("If an account exists for that email, a reset code has been sent.")
			return nil
		},
	}

	reset := &cobra.Command{
		Use:   "reset <email>",
		Short: "Complete a password reset with the emailed code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			email := args[0]

			otp, err := promptLine("Reset code")
			if err != nil {
				return err
			}
			if errs := validation.OTPForm(otp); !errs.Ok() {
				return printFieldErrors(errs)
			}

			resetToken, err := deps.API.VerifyForgotPasswordOTP(ctx, email, otp)
			if err != nil {
				return err
			}

			password, err := promptPassword("New password")
			if err != nil {
				return err
			}
			confirm, err := promptPassword("Confirm new password")
			if err != nil {
				return err
			}
			if errs := validation.ResetPasswordForm(password, confirm); !errs.Ok() {
				return printFieldErrors(errs)
			}

			if err := deps.API.ResetPassword(ctx, email, resetToken, password); err != nil {
				return err
			}
			cmd.Println("Password updated. Log in with your new password.")
			return nil
		},
	}

	resend := &cobra.Command{
		Use:   "resend <email>",
		Short: "Resend the password reset code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.API.ResendOTP(cmd.Context(), args[0], api.OTPForgotPassword); err != nil {
				return err
			}
			cmd.Println("Reset code resent.")
			return nil
		},
	}

	cmd.AddCommand(forgot, reset, resend)
	return cmd
}
