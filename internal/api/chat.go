package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kickstart/client/internal/models"
)

// Conversations fetches one page of the authenticated user's conversation
// list, most recently active first.
func (c *Client) Conversations(ctx context.Context, page int) (models.ConversationPage, error) {
	if page <= 0 {
		page = 1
	}
	var result models.ConversationPage
	if err := c.get(ctx, fmt.Sprintf("%s?page=%d", pathConversations, page), &result); err != nil {
		return models.ConversationPage{}, err
	}
	return result, nil
}

// Messages fetches one page of a room's message history, oldest first.
func (c *Client) Messages(ctx context.Context, roomID string, page int) (models.MessagePage, error) {
	if roomID == "" {
		return models.MessagePage{}, &Error{Message: "room id is required"}
	}
	if page <= 0 {
		page = 1
	}
	path := fmt.Sprintf("%s?roomId=%s&page=%d", pathChatMessages, url.QueryEscape(roomID), page)
	var result models.MessagePage
	if err := c.get(ctx, path, &result); err != nil {
		return models.MessagePage{}, err
	}
	return result, nil
}
