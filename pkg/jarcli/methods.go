package jarcli

import (
	"encoding/json"

	"github.com/warmjar/warmjar/common"
)

func invoke[T any](c *Client, method common.Method, message any) (*T, error) {
	resp, err := c.invoke(string(method), message)
	if err != nil {
		return nil, err
	}
	var d T
	return &d, json.Unmarshal(resp, &d)
}

// Status returns the daemon's scheduler state.
func (c *Client) Status() (*common.StatusResponse, error) {
	return invoke[common.StatusResponse](c, common.METHOD_STATUS, nil)
}

// Refresh triggers an immediate refresh cycle. The refresh completes
// asynchronously; poll Status for the outcome.
func (c *Client) Refresh() (*common.RefreshResponse, error) {
	return invoke[common.RefreshResponse](c, common.METHOD_REFRESH, nil)
}

// Import sends a cookie file to the daemon. format is "netscape",
// "json" or empty for auto-detect.
func (c *Client) Import(data []byte, format string) (*common.ImportResponse, error) {
	return invoke[common.ImportResponse](c, common.METHOD_IMPORT, &common.ImportParams{
		Data:   data,
		Format: format,
	})
}

// Export returns the flat Netscape serialization of the current jar.
func (c *Client) Export() (*common.ExportResponse, error) {
	return invoke[common.ExportResponse](c, common.METHOD_EXPORT, nil)
}

// Stop asks the daemon to shut down gracefully.
func (c *Client) Stop() (*common.StopResponse, error) {
	return invoke[common.StopResponse](c, common.METHOD_STOP, nil)
}

// Version returns the daemon's build version.
func (c *Client) Version() (*common.VersionResponse, error) {
	return invoke[common.VersionResponse](c, common.METHOD_VERSION, nil)
}
