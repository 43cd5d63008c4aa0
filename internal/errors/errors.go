package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error by how a caller is expected to react to it.
type Kind uint8

const (
	KindInternal Kind = iota
	KindInvalid
	KindNotFound
	KindFetch   // A feed document could not be retrieved or parsed
	KindStorage // The persistence layer failed
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindFetch:
		return "fetch_failure"
	case KindStorage:
		return "storage_failure"
	default:
		return "internal"
	}
}

func parseKind(s string) Kind {
	for _, k := range []Kind{KindInvalid, KindNotFound, KindFetch, KindStorage} {
		if k.String() == s {
			return k
		}
	}
	return KindInternal
}

// The status a kind maps to when one isn't given explicitly.
func (k Kind) status() int {
	switch k {
	case KindInvalid:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindFetch:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error represents a universal error type for the app.
type Error struct {
	Kind    Kind
	Status  int
	Err     error // The error this wraps
	Details []Detail
}

type Detail struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s, details: %v", e.Kind, e.Err, e.Details)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type transport struct {
	Message string   `json:"message"`
	Kind    string   `json:"kind"`
	Details []Detail `json:"details"`
	Status  int      `json:"status"`
}

func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(transport{
		Message: e.Err.Error(),
		Kind:    e.Kind.String(),
		Details: e.Details,
		Status:  e.Status,
	})
}

func (e *Error) UnmarshalJSON(byts []byte) error {
	t := transport{}
	if err := json.Unmarshal(byts, &t); err != nil {
		return err
	}

	e.Err = errors.New(t.Message)
	e.Kind = parseKind(t.Kind)
	e.Details = t.Details
	e.Status = t.Status
	return nil
}

// E builds an *Error out of whatever it's given: a string or error becomes the wrapped error,
// an int the HTTP status, a Kind the kind, and any Details are appended.
//
// When no status is given, it is derived from the kind.
func E(args ...any) *Error {
	ret := &Error{
		Kind: KindInternal,
	}

	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			ret.Err = errors.New(arg)
		case error:
			ret.Err = arg
		case int:
			ret.Status = arg
		case Kind:
			ret.Kind = arg
		case Detail:
			ret.Details = append(ret.Details, arg)
		case []Detail:
			ret.Details = append(ret.Details, arg...)
		}
	}

	if ret.Err == nil {
		ret.Err = errors.New(ret.Kind.String())
	}
	if ret.Status == 0 {
		ret.Status = ret.Kind.status()
	}

	return ret
}

// KindOf reports the kind of the first *Error in err's chain, or KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is non-nil and of the given kind.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
