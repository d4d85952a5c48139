package emby

import (
	"context"
	"encoding/json"
	"net/url"
)

type createUserRequest struct {
	Name     string `json:"Name"`
	Email    string `json:"Email"`
	Password string `json:"Password"`
}

// CreateUser creates an account and returns its server-assigned ID. Emby
// normally echoes the new user in the response body, but some versions
// answer 204 with no body; in that case the ID is recovered by listing
// users and matching on name. Failing both ways is ErrIdentityUnresolved.
func (c *Client) CreateUser(ctx context.Context, name, email, password string) (string, error) {
	body, err := c.postJSON(ctx, "create user", "/emby/Users/New", createUserRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"Id"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &created); err != nil {
			c.logger.Debugw("create response body unreadable, falling back to lookup", "user", name, "err", err)
		}
	}
	if created.ID != "" {
		return created.ID, nil
	}

	id, err := c.UserIDByName(ctx, name)
	if err != nil {
		c.logger.Warnw("user id lookup failed", "user", name, "err", err)
		return "", ErrIdentityUnresolved
	}
	if id == "" {
		return "", ErrIdentityUnresolved
	}
	return id, nil
}

// UserIDByName looks up a user's ID from the full user listing. Returns an
// empty string when no user carries the name.
func (c *Client) UserIDByName(ctx context.Context, name string) (string, error) {
	var users []struct {
		ID   string `json:"Id"`
		Name string `json:"Name"`
	}
	if err := c.getJSON(ctx, "list users", "/emby/Users", &users); err != nil {
		return "", err
	}
	for _, u := range users {
		if u.Name == name {
			return u.ID, nil
		}
	}
	return "", nil
}

// UploadUserImage sets a user's primary profile image from base64 data.
// Emby 4.8 accepts a {Format, Data} JSON document on the Users endpoint;
// when that is rejected the Items endpoint with a bare {data} payload is
// tried once before giving up.
func (c *Client) UploadUserImage(ctx context.Context, userID, format, data string) error {
	payload := struct {
		Format string `json:"Format"`
		Data   string `json:"Data"`
	}{Format: format, Data: data}

	_, err := c.postJSON(ctx, "upload image", "/emby/Users/"+url.PathEscape(userID)+"/Images/Primary", payload)
	if err == nil {
		return nil
	}
	c.logger.Debugw("primary image upload failed, trying alternate endpoint", "user_id", userID, "err", err)

	alt := map[string]string{"data": data}
	if _, altErr := c.postJSON(ctx, "upload image (alternate)", "/emby/Items/"+url.PathEscape(userID)+"/Images/Primary", alt); altErr != nil {
		return err
	}
	return nil
}
