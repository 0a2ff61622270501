package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Service is a read-through cache over Redis. A nil *Service is valid
// and behaves as a permanent miss, so callers never branch on whether
// caching is configured.
type Service struct {
	client     *redis.Client
	defaultTTL time.Duration
}

type Config struct {
	Host       string
	Port       string
	Password   string
	DB         int
	DefaultTTL time.Duration
}

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

func NewService(cfg Config) *Service {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection failed, caching disabled: %v", err)
		return nil
	}

	return &Service{client: rdb, defaultTTL: cfg.DefaultTTL}
}

func (s *Service) Set(ctx context.Context, key string, value interface{}) error {
	if s == nil || s.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return s.client.Set(ctx, key, data, s.defaultTTL).Err()
}

func (s *Service) Get(ctx context.Context, key string, dest interface{}) error {
	if s == nil || s.client == nil {
		return ErrMiss
	}

	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

func (s *Service) deletePattern(ctx context.Context, pattern string) error {
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// NotesListKey keys the full note list for one user and flag pair.
func NotesListKey(userID string, archived, deleted bool) string {
	return fmt.Sprintf("notes:list:user:%s:archived:%t:deleted:%t", userID, archived, deleted)
}

// NoteKey keys a single note.
func NoteKey(noteID, userID string) string {
	return fmt.Sprintf("notes:detail:%s:user:%s", noteID, userID)
}

// TagsKey keys the tag list (with note counts) for one user.
func TagsKey(userID string) string {
	return fmt.Sprintf("tags:list:user:%s", userID)
}

// InvalidateUser drops every cached note and tag read for a user. Any
// mutation calls this; note counts on tags depend on note state, so the
// two families are invalidated together.
func (s *Service) InvalidateUser(ctx context.Context, userID string) {
	if s == nil || s.client == nil {
		return
	}

	patterns := []string{
		fmt.Sprintf("notes:list:user:%s:*", userID),
		fmt.Sprintf("notes:detail:*:user:%s", userID),
		TagsKey(userID),
	}

	for _, pattern := range patterns {
		if err := s.deletePattern(ctx, pattern); err != nil {
			log.Printf("Failed to invalidate cache pattern %s: %v", pattern, err)
		}
	}
}

func (s *Service) Health(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("cache service not available")
	}
	return s.client.Ping(ctx).Err()
}

func (s *Service) Close() error {
	if s != nil && s.client != nil {
		return s.client.Close()
	}
	return nil
}
