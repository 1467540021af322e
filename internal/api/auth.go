package api

import (
	"context"
	"time"

	"github.com/kickstart/client/internal/models"
)

// OTPType distinguishes the two OTP flows the platform issues codes for.
type OTPType string

const (
	OTPSignup         OTPType = "signup"
	OTPForgotPassword OTPType = "forgot-password"
)

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionData struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (d sessionData) session() models.Session {
	return models.Session{
		Token:    d.Token,
		User:     d.User,
		IssuedAt: time.Now().UTC(),
	}
}

// Login authenticates with email and password and returns the issued
// session.
func (c *Client) Login(ctx context.Context, email, password string) (models.Session, error) {
	var data sessionData
	if err := c.post(ctx, pathLogin, credentialsPayload{Email: email, Password: password}, &data); err != nil {
		return models.Session{}, err
	}
	return data.session(), nil
}

// Signup registers a new account. The account stays inactive until the
// signup OTP is verified.
func (c *Client) Signup(ctx context.Context, email, password string) error {
	return c.post(ctx, pathSignup, credentialsPayload{Email: email, Password: password}, nil)
}

// GuestSignup creates an anonymous account and returns its session.
func (c *Client) GuestSignup(ctx context.Context) (models.Session, error) {
	var data sessionData
	if err := c.post(ctx, pathGuestSignup, nil, &data); err != nil {
		return models.Session{}, err
	}
	session := data.session()
	session.User.IsGuest = true
	return session, nil
}

type socialSignInPayload struct {
	Token     string `json:"token"`
	IsAndroid bool   `json:"isAndroid,omitempty"`
}

// GoogleSignIn exchanges a Google-issued identity token for a platform
// session. Token acquisition itself is out of scope for this client.
func (c *Client) GoogleSignIn(ctx context.Context, providerToken string, isAndroid bool) (models.Session, error) {
	var data sessionData
	payload := socialSignInPayload{Token: providerToken, IsAndroid: isAndroid}
	if err := c.post(ctx, pathGoogleSignIn, payload, &data); err != nil {
		return models.Session{}, err
	}
	return data.session(), nil
}

// AppleSignIn exchanges an Apple-issued identity token for a platform
// session.
func (c *Client) AppleSignIn(ctx context.Context, providerToken string) (models.Session, error) {
	var data sessionData
	if err := c.post(ctx, pathAppleSignIn, socialSignInPayload{Token: providerToken}, &data); err != nil {
		return models.Session{}, err
	}
	return data.session(), nil
}

type emailPayload struct {
	Email string `json:"email"`
}

// ForgotPassword starts the password reset flow for the given address.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.post(ctx, pathForgotPassword, emailPayload{Email: email}, nil)
}

type otpPayload struct {
	Email   string  `json:"email"`
	OTP     string  `json:"otp"`
	OTPType OTPType `json:"otpType"`
}

// VerifySignupOTP confirms a freshly registered account and returns its
// first session.
func (c *Client) VerifySignupOTP(ctx context.Context, email, otp string) (models.Session, error) {
	var data sessionData
	payload := otpPayload{Email: email, OTP: otp, OTPType: OTPSignup}
	if err := c.post(ctx, pathVerifySignupOTP, payload, &data); err != nil {
		return models.Session{}, err
	}
	return data.session(), nil
}

// VerifyForgotPasswordOTP validates a reset code and returns the one-shot
// reset token required by ResetPassword.
func (c *Client) VerifyForgotPasswordOTP(ctx context.Context, email, otp string) (string, error) {
	var data struct {
		Token string `json:"token"`
	}
	payload := otpPayload{Email: email, OTP: otp, OTPType: OTPForgotPassword}
	if err := c.post(ctx, pathVerifyForgotPasswordOTP, payload, &data); err != nil {
		return "", err
	}
	return data.Token, nil
}

type resendOTPPayload struct {
	Email   string  `json:"email"`
	OTPType OTPType `json:"otpType"`
}

// ResendOTP requests a fresh code for either OTP flow.
func (c *Client) ResendOTP(ctx context.Context, email string, otpType OTPType) error {
	path := pathResendSignupOTP
	if otpType == OTPForgotPassword {
		path = pathResendForgotOTP
	}
	return c.post(ctx, path, resendOTPPayload{Email: email, OTPType: otpType}, nil)
}

type resetPasswordPayload struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword completes the reset flow using the token returned by
// VerifyForgotPasswordOTP.
func (c *Client) ResetPassword(ctx context.Context, email, resetToken, password string) error {
	payload := resetPasswordPayload{Email: email, Token: resetToken, Password: password}
	return c.post(ctx, pathResetPassword, payload, nil)
}
