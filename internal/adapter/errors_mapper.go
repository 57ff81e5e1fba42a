package adapter

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}

	switch resp.StatusCode() {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrRemoteValidation, body)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrRemoteAuth, body)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrRemotePermission, body)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrRemoteNotFound, body)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrRemoteConflict, body)
	default:
		// 408, 429, 5xx and anything unexpected
		return fmt.Errorf("%w: http %d: %s", ErrRemoteTransient, resp.StatusCode(), body)
	}
}
