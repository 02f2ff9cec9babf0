package safedml

import "errors"

var ErrUnsafeDML = errors.New("orm: 不安全的写语句")
