package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/workconnect/session/internal/token"
)

// Redis stores the session under <prefix>:<key>, letting several client
// processes share one login.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis-backed store
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(name string) string {
	return fmt.Sprintf("%s:%s", r.prefix, name)
}

func (r *Redis) Save(ctx context.Context, pair token.Pair) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(KeyAccessToken), pair.AccessToken, 0)
		pipe.Set(ctx, r.key(KeyRefreshToken), pair.RefreshToken, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save token pair: %w", err)
	}
	return nil
}

func (r *Redis) SaveAccessToken(ctx context.Context, accessToken string) error {
	if err := r.client.Set(ctx, r.key(KeyAccessToken), accessToken, 0).Err(); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	return nil
}

func (r *Redis) Read(ctx context.Context) (token.Pair, error) {
	vals, err := r.client.MGet(ctx, r.key(KeyAccessToken), r.key(KeyRefreshToken)).Result()
	if err != nil {
		return token.Pair{}, fmt.Errorf("failed to read token pair: %w", err)
	}
	return token.Pair{
		AccessToken:  asString(vals[0]),
		RefreshToken: asString(vals[1]),
	}, nil
}

func (r *Redis) Clear(ctx context.Context) error {
	err := r.client.Del(ctx, r.key(KeyAccessToken), r.key(KeyRefreshToken), r.key(KeyReturnURL)).Err()
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (r *Redis) SetReturnURL(ctx context.Context, url string) error {
	if err := r.client.Set(ctx, r.key(KeyReturnURL), url, 0).Err(); err != nil {
		return fmt.Errorf("failed to save return URL: %w", err)
	}
	return nil
}

func (r *Redis) ConsumeReturnURL(ctx context.Context) (string, error) {
	url, err := r.client.GetDel(ctx, r.key(KeyReturnURL)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume return URL: %w", err)
	}
	return url, nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
