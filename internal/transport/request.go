package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/agentstation/stocksync/pkg/constants"
	"github.com/agentstation/stocksync/pkg/errors"
)

// GetJSON fetches url and decodes the body into target.
//
// It returns found=false with a nil error when a 2xx response carries an
// empty body or a literal null, leaving target untouched. Non-2xx answers
// become *errors.APIError; an undecodable 2xx body becomes *errors.ParseError.
func (c *Client) GetJSON(ctx context.Context, vendor, url string, target any) (found bool, err error) {
	resp, err := c.Get(ctx, vendor, url)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, constants.MaxErrorBodyBytes))
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return false, &errors.APIError{
			Vendor:     vendor,
			StatusCode: resp.StatusCode,
			Endpoint:   url,
			Message:    msg,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxResponseBytes))
	if err != nil {
		// A body cut short mid-read is a transport failure, not bad data.
		return false, &errors.APIError{
			Vendor:     vendor,
			StatusCode: resp.StatusCode,
			Endpoint:   url,
			Message:    "reading response body",
			Err:        err,
		}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false, nil
	}

	if err := json.Unmarshal(trimmed, target); err != nil {
		return false, errors.WrapParse("json", url, err)
	}
	return true, nil
}
