package mailbox

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

var (
	// ErrInvalidFilter marks a malformed or contradictory filter parameter.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrAuthExpired means Gmail rejected the stored credentials and the user
	// has to go through the OAuth flow again.
	ErrAuthExpired = errors.New("google authentication expired")

	// ErrNotFound means Gmail reports the requested message does not exist.
	ErrNotFound = errors.New("message not found")
)

func invalidFilterf(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidFilter, fmt.Sprintf(format, v...))
}

// ClassifyError translates a raw Gmail API error into one of the package
// sentinels, or returns it unchanged. It checks the structured googleapi
// error first and falls back to substring matching on the message, since
// some transport failures surface as plain errors with only the upstream
// text ("invalid_grant", "Not Found") to go on.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return &remoteError{kind: ErrAuthExpired, msg: apiErr.Message}
		case http.StatusNotFound:
			return &remoteError{kind: ErrNotFound, msg: apiErr.Message}
		}
	}

	msg := err.Error()
	if strings.Contains(msg, "invalid_grant") || strings.Contains(msg, "Token") {
		return &remoteError{kind: ErrAuthExpired, msg: msg}
	}
	if strings.Contains(msg, "Not Found") || strings.Contains(msg, "404") {
		return &remoteError{kind: ErrNotFound, msg: msg}
	}
	return err
}
