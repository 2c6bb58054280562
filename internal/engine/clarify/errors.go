package clarify

import "errors"

var (
	ErrInvalidTicket         = errors.New("invalid ticket")
	ErrGenerationUnavailable = errors.New("generation provider not configured")
	ErrGenerationFailed      = errors.New("generation failed")
	ErrMalformedResponse     = errors.New("malformed generation response")
)

// MalformedResponseError carries the raw generator output that could not be parsed.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return ErrMalformedResponse.Error() + ": " + e.Err.Error()
	}
	return ErrMalformedResponse.Error()
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
