package domain

import "errors"

var ErrNotAuthenticated = errors.New("not authenticated")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserExists = errors.New("user already exists")
var ErrUnauthorized = errors.New("unauthorized")
var ErrValidation = errors.New("validation failed")
var ErrNotificationNotFound = errors.New("notification not found")
