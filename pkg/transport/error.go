package transport

import (
	"errors"
	"fmt"
	"net"
)

// Error reports a failed exchange: the request could not be sent or the
// response could not be read in full. It is the single error kind concrete
// transports in this module return; the cause stays reachable through
// errors.As and errors.Is.
type Error struct {
	Method string
	URL    string
	Err    error
}

// Wrap returns err wrapped in an *Error describing req. A nil err yields nil
// and an err that is already an *Error is returned as is.
func Wrap(req *Request, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	e := &Error{Err: err}
	if req != nil {
		e.Method = req.Method
		e.URL = req.URL
	}
	return e
}

func (e *Error) Error() string {
	if e.Method == "" && e.URL == "" {
		return fmt.Sprintf("transport: %v", e.Err)
	}
	return fmt.Sprintf("transport: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Timeout reports whether the cause was a network timeout.
func (e *Error) Timeout() bool {
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}
