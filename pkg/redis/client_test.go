package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/nutriscan-activation/pkg/config"
	"github.com/redis/go-redis/v9"
)

type fakeCmdable struct {
	published map[string][]any
	pingErr   error
}

func (f *fakeCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.pingErr != nil {
		cmd.SetErr(f.pingErr)
		return cmd
	}
	cmd.SetVal("PONG")
	return cmd
}

func (f *fakeCmdable) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	if f.published == nil {
		f.published = map[string][]any{}
	}
	f.published[channel] = append(f.published[channel], message)
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(1)
	return cmd
}

func TestPublishUsesNamespacedChannel(t *testing.T) {
	fake := &fakeCmdable{}
	client := &Client{store: fake}

	channel := client.ChannelName(" activation-events ")
	if channel != "activation:events:activation-events" {
		t.Fatalf("unexpected channel %q", channel)
	}

	receivers, err := client.Publish(context.Background(), channel, []byte(`{"ok":true}`))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if receivers != 1 {
		t.Fatalf("expected one receiver, got %d", receivers)
	}
	if len(fake.published[channel]) != 1 {
		t.Fatalf("expected payload recorded on %s", channel)
	}
}

func TestPingPropagatesErrors(t *testing.T) {
	client := &Client{store: &fakeCmdable{pingErr: errors.New("down")}}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
	var empty *Client
	if err := empty.Ping(context.Background()); err == nil {
		t.Fatal("expected error on nil client")
	}
	if err := empty.Close(); err != nil {
		t.Fatalf("closing nil client should be a no-op: %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}

	opts, err := optionsFromConfig(config.RedisConfig{
		URL:         "redis://:secret@localhost:6380/2",
		PoolSize:    7,
		DialTimeout: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 2 || opts.Password != "secret" {
		t.Fatalf("unexpected parsed options %+v", opts)
	}
	if opts.PoolSize != 7 || opts.DialTimeout != 3*time.Second {
		t.Fatalf("config fallbacks not applied: pool=%d dial=%v", opts.PoolSize, opts.DialTimeout)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 4})
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "cache:6379" || opts.DB != 4 {
		t.Fatalf("unexpected address options %+v", opts)
	}
}
