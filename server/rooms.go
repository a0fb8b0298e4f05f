package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"trunkline"
)

// RoomRegistry mirrors lobby metadata into Redis so room listings survive
// the process and other hosts can see them.
type RoomRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomRegistry(addr string) *RoomRegistry {
	return &RoomRegistry{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    24 * time.Hour,
	}
}

func roomKey(gameID string) string { return "trunkline:room:" + gameID }

// Record writes the room's current status and seated players.
func (rr *RoomRegistry) Record(ctx context.Context, game trunkline.GameEngine) error {
	names := []string{}
	for _, seat := range game.Players() {
		names = append(names, seat.Name)
	}
	key := roomKey(game.ID())
	err := rr.client.HSet(ctx, key, map[string]interface{}{
		"status":  game.PlayState().String(),
		"players": strings.Join(names, ","),
	}).Err()
	if err != nil {
		return fmt.Errorf("recording room %s: %w", game.ID(), err)
	}
	return rr.client.Expire(ctx, key, rr.ttl).Err()
}

// Status returns the recorded play state of a room.
func (rr *RoomRegistry) Status(ctx context.Context, gameID string) (string, error) {
	status, err := rr.client.HGet(ctx, roomKey(gameID), "status").Result()
	if err == redis.Nil {
		return "", trunkline.ErrUnknownGameID
	}
	if err != nil {
		return "", fmt.Errorf("looking up room %s: %w", gameID, err)
	}
	return status, nil
}

func (rr *RoomRegistry) Close() error { return rr.client.Close() }
