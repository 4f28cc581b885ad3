package app

import "errors"

var (
	// ErrNoAPIKey is returned before any external call when neither a
	// request-supplied key nor a configured default key is available.
	ErrNoAPIKey = errors.New("no Gemini API key available")

	ErrWordRequired = errors.New("no word provided")

	// ErrInvalidCredentials deliberately does not say which part was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrCredentialsRequired = errors.New("username and password cannot be empty")
	ErrUsernameTaken       = errors.New("username already taken")

	ErrPracticeSetIDRequired = errors.New("practice set ID is required")
	ErrNoPracticeSets        = errors.New("no practice set has been generated yet")
	ErrPracticeSetNotFound   = errors.New("practice set not found")
	ErrJobNotFound           = errors.New("job not found")
)
