package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pocketlearn/pocketlearn/internal/domain"
)

// Me fetches the profile the session's access token resolves to.
func (c *Client) Me(ctx context.Context, sess Session) (*domain.User, error) {
	var out userPayload
	if err := c.do(ctx, sess, http.MethodGet, "/users/me/", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	return out.toDomain(), nil
}

// UpdateUser submits changed profile fields for the given user ID and
// returns the updated record. Empty fields are omitted so the API treats
// them as unchanged.
func (c *Client) UpdateUser(ctx context.Context, sess Session, id int64, update domain.UserUpdate) (*domain.User, error) {
	body := map[string]string{}
	if update.Email != "" {
		body["email"] = update.Email
	}
	if update.FirstName != "" {
		body["first_name"] = update.FirstName
	}
	if update.LastName != "" {
		body["last_name"] = update.LastName
	}
	if update.NewPassword != "" {
		body["current_password"] = update.CurrentPassword
		body["new_password"] = update.NewPassword
	}

	var out userPayload
	path := fmt.Sprintf("/users/%d/", id)
	if err := c.do(ctx, sess, http.MethodPut, path, body, &out); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return out.toDomain(), nil
}

// DeleteAccount requests server-side deletion of the session's account.
func (c *Client) DeleteAccount(ctx context.Context, sess Session) error {
	if err := c.do(ctx, sess, http.MethodDelete, "/users/delete_account/", nil, nil); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
