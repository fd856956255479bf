package scoreboard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	winsKey   = "gofish:scoreboard:wins"
	lossesKey = "gofish:scoreboard:losses"
)

// Redis is a Scoreboard backed by two Redis hashes, so standings survive
// server restarts and can be shared across instances.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to Redis and verifies the connection with a short ping.
func NewRedis(addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	return &Redis{client: client}, nil
}

// RecordResult credits a win and a loss
func (r *Redis) RecordResult(ctx context.Context, winner, loser string) error {
	pipe := r.client.Pipeline()
	pipe.HIncrBy(ctx, winsKey, winner, 1)
	pipe.HIncrBy(ctx, lossesKey, loser, 1)
	_, err := pipe.Exec(ctx)
	return err
}

// Rankings returns standings ordered by fewest losses
func (r *Redis) Rankings(ctx context.Context) ([]Entry, error) {
	wins, err := r.client.HGetAll(ctx, winsKey).Result()
	if err != nil {
		return nil, err
	}
	losses, err := r.client.HGetAll(ctx, lossesKey).Result()
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool)
	for n := range wins {
		names[n] = true
	}
	for n := range losses {
		names[n] = true
	}

	entries := make([]Entry, 0, len(names))
	for n := range names {
		w, _ := strconv.Atoi(wins[n])
		l, _ := strconv.Atoi(losses[n])
		entries = append(entries, Entry{Player: n, Wins: w, Losses: l})
	}
	sortEntries(entries)
	return entries, nil
}

// Close releases the underlying client
func (r *Redis) Close() error {
	return r.client.Close()
}
