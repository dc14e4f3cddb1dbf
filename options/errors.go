package options

import "errors"

var (
	ErrNoMachineType      = errors.New("no machine type specified")
	ErrInvalidMachineType = errors.New("unsupported machine type")
	ErrNoHandler          = errors.New("no log handler specified")
)
