// Package rdx wraps the Redis side-channel: a read-through cache for thang
// documents (invalidated off the thang change feed) and token bookkeeping.
// Every helper is nil-safe; without REDIS_ADDR the engine runs uncached.
package rdx

import (
	"encoding/json"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"thangd/globals"
	"thangd/models"
)

var Conn *redis.Client

const thangCacheTTL = 60 * time.Second

// Init dials Redis if REDIS_ADDR is configured.
func Init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return
	}
	Conn = redis.NewClient(&redis.Options{Addr: addr})
}

func RdxSet(key, value string) error {
	if Conn == nil {
		return nil
	}
	return Conn.Set(globals.Ctx, key, value, 0).Err()
}

func RdxHset(hash, field, value string) error {
	if Conn == nil {
		return nil
	}
	return Conn.HSet(globals.Ctx, hash, field, value).Err()
}

func RdxHdel(hash, field string) error {
	if Conn == nil {
		return nil
	}
	return Conn.HDel(globals.Ctx, hash, field).Err()
}

// CacheThang stores the document under thang:<id> with a short TTL.
func CacheThang(t *models.Thang) {
	if Conn == nil || t == nil {
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	Conn.Set(globals.Ctx, "thang:"+t.ID, data, thangCacheTTL)
}

// CachedThang returns the cached document, or nil on miss.
func CachedThang(id string) *models.Thang {
	if Conn == nil {
		return nil
	}
	data, err := Conn.Get(globals.Ctx, "thang:"+id).Bytes()
	if err != nil {
		return nil
	}
	var t models.Thang
	if err := json.Unmarshal(data, &t); err != nil {
		return nil
	}
	return &t
}

// InvalidateThang drops the cached document; called from the thang change
// feed so updates and deletes are visible immediately.
func InvalidateThang(id string) {
	if Conn == nil {
		return
	}
	Conn.Del(globals.Ctx, "thang:"+id)
}
