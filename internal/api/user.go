package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/kickstart/client/internal/models"
)

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (models.User, error) {
	var user models.User
	if err := c.get(ctx, pathProfile, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ProfileUpdate carries a partial profile mutation; nil fields are left
// untouched server-side.
type ProfileUpdate struct {
	FullName          *string  `json:"fullName,omitempty"`
	Age               *int     `json:"age,omitempty"`
	Country           *string  `json:"country,omitempty"`
	PreferredLanguage *string  `json:"preferredLanguage,omitempty"`
	Interests         []string `json:"interests,omitempty"`
	PrivacyMode       *string  `json:"privacyMode,omitempty"`
	ProfilePicture    *string  `json:"profilePicture,omitempty"`
}

// UpdateProfile applies a partial update and returns the updated profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (models.User, error) {
	var user models.User
	if err := c.patch(ctx, pathUpdateProfile, update, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// DeleteAccount permanently removes the authenticated account.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.delete(ctx, pathDeleteAccount)
}

type respondFriendRequestPayload struct {
	FriendRequestID string `json:"friendRequestId"`
	Action          string `json:"action"`
}

// RespondFriendRequest accepts or rejects a pending friend request.
func (c *Client) RespondFriendRequest(ctx context.Context, requestID string, accept bool) error {
	action := "reject"
	if accept {
		action = "accept"
	}
	payload := respondFriendRequestPayload{FriendRequestID: requestID, Action: action}
	return c.post(ctx, pathRespondFriendRequest, payload, nil)
}

// MediaUpload describes a stored media object.
type MediaUpload struct {
	URL      string `json:"url"`
	Path     string `json:"path"`
	Filename string `json:"filename"`
}

// UploadMedia sends a file through the platform's multipart upload
// endpoint. This is the only non-JSON request the client issues.
func (c *Client) UploadMedia(ctx context.Context, filename string, content io.Reader) (MediaUpload, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return MediaUpload{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return MediaUpload{}, fmt.Errorf("copy upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return MediaUpload{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	// Buffered up front so the 401 replay can rebuild the identical body.
	payload := buf.Bytes()
	builder := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathUploadMedia, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req, nil
	}

	var upload MediaUpload
	if _, err := c.dispatch(ctx, builder, &upload, 0); err != nil {
		return MediaUpload{}, err
	}
	return upload, nil
}
