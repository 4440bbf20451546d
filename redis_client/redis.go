package redis_client

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

var (
	RDB *redis.Client
	Ctx = context.Background()
)

// Init creates the shared client. Must run after config.InitConfig so the
// configured address is picked up.
func Init() {
	RDB = redis.NewClient(&redis.Options{
		Addr: viper.GetString("redis.address"),
	})
}
