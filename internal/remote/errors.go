package remote

import "fmt"

// UnavailableError reports a transport failure: the backend could not be
// reached at all (connection refused, DNS failure, ssh exit 255).
type UnavailableError struct {
	Target string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("remote %s unavailable: %v", e.Target, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// RejectedError reports a failure the backend itself returned: an HTTP
// 4xx/5xx from Portainer or a nonzero remote command exit over ssh.
type RejectedError struct {
	Op     string
	Status int
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s failed (HTTP %d): %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Detail)
}
