package usecase

import "errors"

var (
	ErrNotFound                 = errors.New("resource not found")
	ErrForbidden                = errors.New("resource belongs to another user")
	ErrCredentialsNotConfigured = errors.New("platform app credentials are not configured")
	ErrNotImplemented           = errors.New("platform is not implemented")
)
