package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"
	"time"
)

type DB int
type ReleaseLock func() error

type Client struct {
	client         redis.UniversalClient
	lockExpiration time.Duration
}

var ctx = context.Background()

type Config struct {
	LockExpirationSeconds   int     `envconfig:"ACE_COMN_REDIS_LOCK_EXPIRATION" default:"3"`
	Host                    string  `envconfig:"ACE_COMN_REDIS_HOST" required:"true"`
	Port                    string  `envconfig:"ACE_COMN_REDIS_PORT" required:"true"`
	HASentinelPort          string  `envconfig:"ACE_COMN_REDIS_HA_SENTINEL_PORT" default:"26379"`
	HASentinelMasterName    string  `envconfig:"ACE_COMN_REDIS_HA_MASTER_NAME" default:"mymaster"`
	Password                string  `envconfig:"ACE_COMN_REDIS_AUTH_PASSWORD" default:"0"`
	AuthRequired            bool    `envconfig:"ACE_COMN_REDIS_AUTH_REQUIRED" default:"false"`
	HAMode                  bool    `envconfig:"ACE_COMN_REDIS_HA_MODE" default:"false"`
	HASentinelSocketTimeout float32 `envconfig:"ACE_COMN_REDIS_SOCKET_TIMEOUT" default:"0.5"`
}

func NewClient(db DB) (Client, error) {
	cfg, err := readEnvironment()
	if err != nil {
		return Client{}, err
	}
	var client redis.UniversalClient
	if cfg.HAMode {
		client = CreateClusterClient(cfg, db)
	} else {
		client = CreateClient(cfg, db)
	}
	return Client{
		client:         client,
		lockExpiration: time.Duration(cfg.LockExpirationSeconds) * time.Second,
	}, nil
}

func CreateClusterClient(cfg *Config, db DB) *redis.ClusterClient {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.HASentinelPort)
	timeout := time.Duration(cfg.HASentinelSocketTimeout) * time.Second
	options := redis.FailoverOptions{
		SentinelAddrs: []string{addr},
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		MaxRetries:    6,
		DB:            int(db),
		MasterName:    cfg.HASentinelMasterName,
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewFailoverClusterClient(&options)
}

func CreateClient(cfg *Config, db DB) *redis.Client {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	options := redis.Options{
		Addr:       addr,
		MaxRetries: 6,
		DB:         int(db),
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewClient(&options)
}

// GetBytes returns the raw value under key; the bool reports existence.
func (client *Client) GetBytes(key string) ([]byte, bool, error) {
	response := client.client.Get(ctx, key)
	if response.Err() == redis.Nil {
		return nil, false, nil
	}
	if response.Err() != nil {
		return nil, false, response.Err()
	}
	b, err := response.Bytes()
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (client *Client) SetBytes(key string, value []byte) error {
	return client.client.Set(ctx, key, value, 0).Err()
}

func (client *Client) GetDocument(key string, doc interface{}) error {
	b, found, err := client.GetBytes(key)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no document under key %q", key)
	}
	return json.Unmarshal(b, doc)
}

func (client *Client) SaveDocument(key string, doc interface{}) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return client.SetBytes(key, b)
}

// UpdateDocument performs a locked read-modify-write of the document under
// key. updateFunc mutates the document in place.
func (client *Client) UpdateDocument(key string, doc interface{}, updateFunc func()) (err error) {
	releaseLock, err := client.Lock(key)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := releaseLock(); err == nil {
			err = releaseErr
		}
	}()
	if err = client.GetDocument(key, doc); err != nil {
		return err
	}
	updateFunc()
	return client.SaveDocument(key, doc)
}

func (client *Client) Lock(key string) (ReleaseLock, error) {
	lockCl := redislock.New(client.client)
	str := redislock.LimitRetry(redislock.LinearBackoff(time.Second), 20)
	lockKey := fmt.Sprintf("lock:%s", key)
	lock, err := lockCl.Obtain(ctx, lockKey, client.lockExpiration, &redislock.Options{RetryStrategy: str})
	if err != nil {
		return nil, err
	}
	return func() error {
		return lock.Release(ctx)
	}, nil
}

func (client *Client) Close() error {
	return client.client.Close()
}

func readEnvironment() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
