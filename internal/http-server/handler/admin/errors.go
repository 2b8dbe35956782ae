package admin

import "errors"

var ErrUnknownUtility = errors.New("unknown utility")
