package domain

import "errors"

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates invalid request
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStoreUnavailable indicates the cart or cache store could not be reached
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrRetrievalUnavailable indicates the embedding or vector search backend failed
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrEmptyCart indicates an operation that needs items ran against an empty cart
	ErrEmptyCart = errors.New("cart is empty")
)
