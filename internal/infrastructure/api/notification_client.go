package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/clubly/loyalty-agent/internal/core/domain"
	"github.com/clubly/loyalty-agent/internal/core/ports"
)

type notificationListResponse struct {
	Data []domain.Notification `json:"data"`
	Meta domain.PageMeta       `json:"meta"`
}

type unreadCountResponse struct {
	Count int `json:"count"`
}

// List fetches one page of server-persisted notifications.
func (c *Client) List(ctx context.Context, opts ports.ListOptions) ([]domain.Notification, *domain.PageMeta, error) {
	q := url.Values{}
	if opts.Type != "" {
		q.Set("type", opts.Type)
	}
	if opts.UnreadOnly {
		q.Set("unread_only", "true")
	}
	if opts.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(opts.PerPage))
	}

	var resp notificationListResponse
	if err := c.do(ctx, http.MethodGet, "/notifications", q, nil, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Data, &resp.Meta, nil
}

// UnreadCount fetches the lightweight unread counter.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp unreadCountResponse
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// MarkRead sets read_at on a single notification.
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/notifications/%d/read", id), nil, nil, nil)
}

// MarkAllRead sets read_at on every unread notification.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/notifications/read-all", nil, nil, nil)
}
