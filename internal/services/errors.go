package services

import (
	"errors"

	"restaurant-match-backend/internal/repository"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = repository.ErrNotFound
	ErrNoActiveTournament = errors.New("no active tournament")
	ErrSelfFriendship     = errors.New("cannot add yourself as a friend")
)
