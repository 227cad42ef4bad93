package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

type Client struct {
	base url.URL
}

func NewClient(hosts ...string) *Client {
	host := "127.0.0.1:7878"
	if len(hosts) > 0 && hosts[0] != "" {
		host = hosts[0]
	}

	return &Client{
		base: url.URL{Scheme: "http", Host: host},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		bts, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(bts)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), reader)
	if err != nil {
		return nil, err
	}

	request.Header.Set("Content-Type", "application/json")

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	bts, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	if response.StatusCode >= http.StatusBadRequest {
		var apiError Error
		if err := json.Unmarshal(bts, &apiError); err == nil && apiError.Message != "" {
			apiError.Code = int32(response.StatusCode)
			return nil, apiError
		}
		return nil, fmt.Errorf("%s %s: %s", method, path, response.Status)
	}

	return bts, nil
}

func (c *Client) Version(ctx context.Context) (string, error) {
	bts, err := c.do(ctx, http.MethodGet, "/api/version", nil)
	if err != nil {
		return "", err
	}

	var resp VersionResponse
	if err := json.Unmarshal(bts, &resp); err != nil {
		return "", err
	}
	return resp.Version, nil
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	bts, err := c.do(ctx, http.MethodGet, "/api/status", nil)
	if err != nil {
		return nil, err
	}

	var resp StatusResponse
	if err := json.Unmarshal(bts, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sample returns a PNG grid of generated images.
func (c *Client) Sample(ctx context.Context, req *SampleRequest) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/api/sample", req)
}
