package auth

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrCrypto                = errors.New("crypto error")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrTwoFactorRequired     = errors.New("2FA code required")
	ErrInvalidTwoFactorCode  = errors.New("invalid 2FA code")
	ErrInvalidCode           = errors.New("invalid code")
	ErrRateLimited           = errors.New("rate limited")
	ErrTokenInvalidOrExpired = errors.New("invalid or expired token")
)
