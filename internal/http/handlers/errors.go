package handlers

import "errors"

var (
	errMissingXY       = errors.New("x and y are required")
	errTwoParticipants = errors.New("participants must list exactly two player ids")
)
