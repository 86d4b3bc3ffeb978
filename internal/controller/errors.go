package controller

import "errors"

var (
	ErrNoMachine      = errors.New("controller: door machine is required")
	ErrNoConnectivity = errors.New("controller: connectivity is required")
	ErrNoAuthorizer   = errors.New("controller: authorizer is required")
)
