package httpserver

import "errors"

var ErrInvalidRequest = errors.New("invalid request")
