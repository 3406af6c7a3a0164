package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/c14220110/poliklinik-antrian/internal/common/apperror"
	"github.com/c14220110/poliklinik-antrian/pkg/storage"
)

// RedisAllocator memakai INCR, yang atomik di sisi server Redis.
// Key kedaluwarsa setelah TTL karena nomor hanya berlaku satu hari.
// Redis harus memakai persistence (AOF); bila key hilang di tengah hari,
// nomor yang bentrok ditolak unique index dan dilaporkan sebagai AllocationError.
type RedisAllocator struct {
	Client  redis.UniversalClient
	TTL     time.Duration
	Timeout time.Duration
}

func NewRedisAllocator(client redis.UniversalClient, timeout time.Duration) *RedisAllocator {
	return &RedisAllocator{Client: client, TTL: 48 * time.Hour, Timeout: timeout}
}

func redisKey(key Key, hari string) string {
	return fmt.Sprintf("antrian:%s:%s", hari, key.String())
}

func (a *RedisAllocator) Next(ctx context.Context, key Key, hari string) (Ticket, error) {
	if err := validateKey(key, hari); err != nil {
		return Ticket{}, err
	}

	ctx, cancel := storage.WithTimeout(ctx, a.Timeout)
	defer cancel()

	k := redisKey(key, hari)
	pipe := a.Client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, a.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return Ticket{}, &apperror.AllocationError{Kategori: key.String(), Err: errors.Wrap(err, "redis incr")}
	}

	nomor := int(incr.Val())
	return Ticket{Nomor: nomor, Kode: FormatKode(key.Prefix, nomor)}, nil
}
