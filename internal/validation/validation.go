// Package validation implements the client-side form rules: every check
// runs before any network call and failures surface inline per field.
package validation

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Field error messages, matching what the UI layer displays.
const (
	msgEmailRequired    = "Email address is required"
	msgEmailInvalid     = "Invalid email address"
	msgEmailWhitespace  = "No white spaces are allowed"
	msgPasswordRequired = "Password is required"
	msgPasswordShort    = "Password must be at least 8 characters"
	msgPasswordUpper    = "Password must contain at least one uppercase letter"
	msgPasswordLower    = "Password must contain at least one lowercase letter"
	msgPasswordDigit    = "Password must contain at least one number"
	msgPasswordSpecial  = "Password must contain at least one special character"
	msgConfirmRequired  = "Please confirm your password"
	msgConfirmMismatch  = "Passwords must match"
	msgOTPRequired      = "OTP is required"
	msgOTPInvalid       = "OTP must be exactly 6 digits"
	msgNameRequired     = "Full name is required"
	msgNameShort        = "Name must be at least 2 characters"
	msgNameLong         = "Name must not exceed 50 characters"
	msgNameChars        = "Name can only contain letters and spaces"
	msgAgeRequired      = "Age is required"
	msgAgeNotNumber     = "Age must be a valid number"
	msgAgeRange         = "You must be at least 16 years old"
)

var (
	specialCharPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
	otpPattern         = regexp.MustCompile(`^\d{6}$`)
	namePattern        = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	digitsPattern      = regexp.MustCompile(`^\d+$`)
)

// Errors maps field names to their first failed rule's message.
type Errors map[string]string

// Ok reports whether no field failed.
func (e Errors) Ok() bool { return len(e) == 0 }

// Email validates an email address.
func Email(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return msgEmailRequired
	}
	if strings.ContainsAny(value, " \t") {
		return msgEmailWhitespace
	}
	if _, err := mail.ParseAddress(value); err != nil {
		return msgEmailInvalid
	}
	return ""
}

// Password validates a new password against the strength rules.
func Password(value string) string {
	if value == "" {
		return msgPasswordRequired
	}
	if len(value) < 8 {
		return msgPasswordShort
	}
	var upper, lower, digit bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		return msgPasswordUpper
	}
	if !lower {
		return msgPasswordLower
	}
	if !digit {
		return msgPasswordDigit
	}
	if !specialCharPattern.MatchString(value) {
		return msgPasswordSpecial
	}
	return ""
}

// ConfirmPassword validates the confirmation field against the password.
func ConfirmPassword(password, confirm string) string {
	if confirm == "" {
		return msgConfirmRequired
	}
	if confirm != password {
		return msgConfirmMismatch
	}
	return ""
}

// OTP validates a one-time code.
func OTP(value string) string {
	if value == "" {
		return msgOTPRequired
	}
	if !otpPattern.MatchString(value) {
		return msgOTPInvalid
	}
	return ""
}

// FullName validates a display name.
func FullName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return msgNameRequired
	}
	if len(value) < 2 {
		return msgNameShort
	}
	if len(value) > 50 {
		return msgNameLong
	}
	if !namePattern.MatchString(value) {
		return msgNameChars
	}
	return ""
}

// Age validates a textual age input within 16..120.
func Age(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return msgAgeRequired
	}
	if !digitsPattern.MatchString(value) {
		return msgAgeNotNumber
	}
	age, err := strconv.Atoi(value)
	if err != nil || age < 16 || age > 120 {
		return msgAgeRange
	}
	return ""
}

// LoginForm validates the login form. Only presence is required for the
// password at login; strength rules apply at signup.
func LoginForm(email, password string) Errors {
	errs := Errors{}
	if msg := Email(email); msg != "" {
		errs["email"] = msg
	}
	if password == "" {
		errs["password"] = msgPasswordRequired
	}
	return errs
}

// SignupForm validates the signup form.
func SignupForm(email, password, confirm string) Errors {
	errs := Errors{}
	if msg := Email(email); msg != "" {
		errs["email"] = msg
	}
	if msg := Password(password); msg != "" {
		errs["password"] = msg
	}
	if msg := ConfirmPassword(password, confirm); msg != "" {
		errs["confirm_password"] = msg
	}
	return errs
}

// ForgotPasswordForm validates the reset request form.
func ForgotPasswordForm(email string) Errors {
	errs := Errors{}
	if msg := Email(email); msg != "" {
		errs["email"] = msg
	}
	return errs
}

// ResetPasswordForm validates the final reset form.
func ResetPasswordForm(password, confirm string) Errors {
	errs := Errors{}
	if msg := Password(password); msg != "" {
		errs["password"] = msg
	}
	if msg := ConfirmPassword(password, confirm); msg != "" {
		errs["confirm_password"] = msg
	}
	return errs
}

// OTPForm validates the code entry form.
func OTPForm(otp string) Errors {
	errs := Errors{}
	if msg := OTP(otp); msg != "" {
		errs["otp"] = msg
	}
	return errs
}
