package trunkline

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrUnknownGameID = errors.New("unknown game ID")
	ErrDuplicateGame = errors.New("game ID already in use")
)

// GameStore keeps the hosted games by ID.
type GameStore interface {
	FindGame(gameID string) GameEngine
	// FindPendingGame returns the game only while it is still seating
	// players.
	FindPendingGame(gameID string) GameEngine
	// FindActiveGame returns the game only once play has begun.
	FindActiveGame(gameID string) GameEngine
	AddGame(game GameEngine) error
}

// InMemoryGameStore maps game ID to game engine.
type InMemoryGameStore struct {
	mu    sync.RWMutex
	games map[string]GameEngine
}

func NewInMemoryGameStore() *InMemoryGameStore {
	return &InMemoryGameStore{games: map[string]GameEngine{}}
}

func (s *InMemoryGameStore) FindGame(gameID string) GameEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.games[gameID]
}

func (s *InMemoryGameStore) FindPendingGame(gameID string) GameEngine {
	game := s.FindGame(gameID)
	if game == nil || game.PlayState() != Idle {
		return nil
	}
	return game
}

func (s *InMemoryGameStore) FindActiveGame(gameID string) GameEngine {
	game := s.FindGame(gameID)
	if game == nil || game.PlayState() == Idle {
		return nil
	}
	return game
}

func (s *InMemoryGameStore) AddGame(game GameEngine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[game.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateGame, game.ID())
	}
	s.games[game.ID()] = game
	return nil
}
