package errors

import (
	"errors"
	"fmt"
)

var (
	ErrLogNotFound       = errors.New("log file not found")
	ErrLogPermission     = errors.New("log file permission denied")
	ErrSourceClosed      = errors.New("line source closed")
	ErrCSVWrite          = errors.New("csv write failed")
	ErrCSVPathBlocked    = errors.New("no writable csv path")
	ErrEngineRunning     = errors.New("engine already running")
	ErrEngineStopped     = errors.New("engine not running")
	ErrConfigNotFound    = errors.New("config not found")
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrInvalidFilePath   = errors.New("invalid file path")
	ErrNoKillEvents      = errors.New("no kill events recorded")
	ErrCheckpointCorrupt = errors.New("checkpoint file corrupt")
	ErrFilterInvalid     = errors.New("invalid filter rule")
)

func NewLogError(path string, reason error) error {
	return fmt.Errorf("%w: %s: %v", ErrLogNotFound, path, reason)
}

func NewPermissionError(path string, reason error) error {
	return fmt.Errorf("%w: %s: %v", ErrLogPermission, path, reason)
}

func NewCSVError(path string, reason error) error {
	return fmt.Errorf("%w: %s: %v", ErrCSVWrite, path, reason)
}

func NewCSVPathError(primary, fallback string) error {
	return fmt.Errorf("%w: tried %s, %s", ErrCSVPathBlocked, primary, fallback)
}

func NewConfigError(field string, value interface{}) error {
	return fmt.Errorf("%w: field=%s value=%v", ErrConfigInvalid, field, value)
}

func NewFilterError(name string, reason error) error {
	return fmt.Errorf("%w: rule=%s: %v", ErrFilterInvalid, name, reason)
}

func NewCheckpointError(path string, reason error) error {
	return fmt.Errorf("%w: %s: %v", ErrCheckpointCorrupt, path, reason)
}
