package mailbox

import "errors"

// remoteError pairs a sentinel with the upstream message so handlers can
// surface the remote text without string-stripping the sentinel prefix.
type remoteError struct {
	kind error
	msg  string
}

func (e *remoteError) Error() string {
	return e.kind.Error() + ": " + e.msg
}

func (e *remoteError) Unwrap() error {
	return e.kind
}

// RemoteMessage returns the upstream error text carried by a classified
// error, or err.Error() for anything else.
func RemoteMessage(err error) string {
	var re *remoteError
	if errors.As(err, &re) {
		return re.msg
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
