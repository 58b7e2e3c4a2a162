package service

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidPhone           = errors.New("incorrect phone number format")
	ErrPasswordTooShort       = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong        = errors.New("password must be at most 72 bytes")
	ErrUnsupportedImageFormat = errors.New("unsupported image format, only JPEG and PNG are accepted")
	ErrDuplicateUsername      = errors.New("username already registered")
	ErrIncorrectPassword      = errors.New("incorrect password")
	ErrUnauthorized           = errors.New("could not validate credentials")
	ErrUserNotFound           = errors.New("user not found")
	ErrEmptyMessage           = errors.New("message content is empty")
)
