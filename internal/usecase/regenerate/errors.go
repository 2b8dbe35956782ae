package regenerate

import "errors"

var ErrNoImagesFound = errors.New("no images uploaded found")
