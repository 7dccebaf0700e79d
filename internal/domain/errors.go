package domain

import "errors"

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates invalid request
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")
	// ErrQuotaExceeded indicates the anonymous daily allowance is used up
	ErrQuotaExceeded = errors.New("daily request limit reached")
	// ErrInvalidTopic indicates a topic outside the documentation collections
	ErrInvalidTopic = errors.New("invalid topic")
	// ErrNoCredential indicates the identity provider returned no credential
	ErrNoCredential = errors.New("no credentials received")
)
