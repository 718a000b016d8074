package session

import "errors"

var (
	ErrStepNotAllowed      = errors.New("action not allowed on the current screen")
	ErrHistoryIncomplete   = errors.New("all three meal slots must be filled")
	ErrLocationUnavailable = errors.New("location is not available")
	ErrLocationSettled     = errors.New("location has already been resolved for this session")
	ErrNotAuthenticated    = errors.New("no user is logged in")
	ErrInvalidWeather      = errors.New("unknown weather condition")
	ErrInvalidDay          = errors.New("day must be 1, 2 or 3")
	ErrBlankLabel          = errors.New("meal label must not be blank")
	ErrBlankDish           = errors.New("dish name must not be blank")
	ErrInvalidAuthMode     = errors.New("auth mode must be login or signup")
)
