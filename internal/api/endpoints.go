package api

// Platform API paths, relative to the configured base URL.
const (
	pathLogin                   = "/auth/login"
	pathSignup                  = "/auth/signup"
	pathGuestSignup             = "/auth/signup-guest"
	pathGoogleSignIn            = "/auth/google/callback"
	pathAppleSignIn             = "/auth/apple/callback"
	pathForgotPassword          = "/auth/forgot-password"
	pathVerifySignupOTP         = "/auth/verify-signup-otp"
	pathVerifyForgotPasswordOTP = "/auth/verify-forgot-password-otp"
	pathResendSignupOTP         = "/auth/resend-signup-otp"
	pathResendForgotOTP         = "/auth/resend-forgot-password-otp"
	pathResetPassword           = "/auth/verify-reset-password"
	pathRefreshToken            = "/auth/refresh-token"

	pathProfile              = "/users/profile"
	pathUpdateProfile        = "/users/update-profile"
	pathDeleteAccount        = "/users/delete-account"
	pathRespondFriendRequest = "/users/respond-friend-request"
	pathUploadMedia          = "/media/upload"

	pathNotifications        = "/notifications"
	pathNotificationsReadAll = "/notifications/mark-all-read"
	pathNotificationsUnread  = "/notifications/unread-count"
	pathNotificationStream   = "/notifications/stream"

	pathConversations = "/chat/conversations"
	pathChatMessages  = "/chat/messages"
)

// StreamPath returns the per-user SSE stream path.
func StreamPath(userID string) string {
	return pathNotificationStream + "/" + userID
}
