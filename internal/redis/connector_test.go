package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/MrSnakeDoc/komiku/internal/logger"
)

func testOptions(addr string) ConnectOptions {
	return ConnectOptions{
		Addr:           addr,
		DialTimeout:    100 * time.Millisecond,
		ReadTimeout:    100 * time.Millisecond,
		WriteTimeout:   100 * time.Millisecond,
		PoolSize:       2,
		ConnectTimeout: 300 * time.Millisecond,
		RetryInterval:  50 * time.Millisecond,
		MaxWait:        100 * time.Millisecond,
		PingTimeout:    100 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	tests := map[string]func(*ConnectOptions){
		"no addr":          func(o *ConnectOptions) { o.Addr = "" },
		"no timeout":       func(o *ConnectOptions) { o.ConnectTimeout = 0 },
		"no retry":         func(o *ConnectOptions) { o.RetryInterval = 0 },
		"no max wait":      func(o *ConnectOptions) { o.MaxWait = 0 },
		"no ping timeout":  func(o *ConnectOptions) { o.PingTimeout = 0 },
		"negative warning": func(o *ConnectOptions) { o.WarnThreshold = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			opts := testOptions("127.0.0.1:1")
			mutate(&opts)
			if _, err := New(context.Background(), opts, logger.Nop()); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestNewGivesUpOnUnreachableServer(t *testing.T) {
	// Port 1 is reserved and refuses connections on any sane host.
	start := time.Now()
	_, err := New(context.Background(), testOptions("127.0.0.1:1"), logger.Nop())
	if err == nil {
		t.Fatal("expected connection error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("gave up after %v, want about the connect timeout", elapsed)
	}
}

func TestNewConnects(t *testing.T) {
	addr := os.Getenv("KOMIKU_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("KOMIKU_TEST_REDIS_ADDR not set")
	}

	client, err := New(context.Background(), testOptions(addr), logger.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := Ping(context.Background(), client, time.Second); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
