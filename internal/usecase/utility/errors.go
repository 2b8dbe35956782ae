package utility

import "errors"

var ErrAlreadyRunning = errors.New("regeneration is already running")
