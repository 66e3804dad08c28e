package apiclient

import (
	"context"
	"net/http"
)

type ServerInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

func (c *Client) FetchServerInfo(ctx context.Context) (ServerInfo, error) {
	var out ServerInfo
	if err := c.do(ctx, http.MethodGet, "/api/server/info", nil, &out); err != nil {
		return ServerInfo{}, err
	}
	return out, nil
}

func (c *Client) RestartServer(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/server/restart", nil, nil)
}
