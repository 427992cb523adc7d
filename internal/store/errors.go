package store

import "errors"

var (
	ErrSlotTaken  = errors.New("slot taken")
	ErrDayBlocked = errors.New("day blocked")
	ErrNotFound   = errors.New("not found")
)
