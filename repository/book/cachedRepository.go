package bookrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/indiangoerge/bookworld-digital-shelf/model"
)

const notFoundMarker = "notfound"

// cachedRepo is a read-through cache over the book detail path. Cache
// failures degrade to the database; they are never surfaced.
type cachedRepo struct {
	real Repo
	rdb  *redis.Client
	log  *slog.Logger
	ttl  time.Duration
}

func NewCached(real Repo, rdb *redis.Client, log *slog.Logger) Repo {
	return &cachedRepo{real: real, rdb: rdb, log: log, ttl: 5 * time.Minute}
}

func bookKey(id int64) string { return fmt.Sprintf("book:%d", id) }

func (c *cachedRepo) ByID(ctx context.Context, id int64) (*model.Book, error) {
	key := bookKey(id)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, sql.ErrNoRows
		}
		var b model.Book
		if err := json.Unmarshal(data, &b); err == nil {
			return &b, nil
		}
		c.log.Warn("cache unmarshal failed, falling back to db", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn("redis get failed, falling back to db", "key", key, "err", err)
	}

	b, err := c.real.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if setErr := c.rdb.Set(ctx, key, notFoundMarker, time.Minute).Err(); setErr != nil {
				c.log.Warn("redis set failed", "key", key, "err", setErr)
			}
		}
		return nil, err
	}

	if data, err := json.Marshal(b); err == nil {
		if setErr := c.rdb.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			c.log.Warn("redis set failed", "key", key, "err", setErr)
		}
	}
	return b, nil
}

func (c *cachedRepo) List(ctx context.Context, f ListFilter) ([]model.Book, int64, error) {
	return c.real.List(ctx, f)
}

func (c *cachedRepo) Insert(ctx context.Context, b *model.Book) error {
	if err := c.real.Insert(ctx, b); err != nil {
		return err
	}
	c.invalidate(ctx, b.ID)
	return nil
}

// BulkInsert only ever adds new rows, so no cached entry can go stale.
func (c *cachedRepo) BulkInsert(ctx context.Context, books []model.Book) (int64, error) {
	return c.real.BulkInsert(ctx, books)
}

func (c *cachedRepo) invalidate(ctx context.Context, id int64) {
	if err := c.rdb.Del(ctx, bookKey(id)).Err(); err != nil {
		c.log.Warn("redis del failed", "key", bookKey(id), "err", err)
	}
}
