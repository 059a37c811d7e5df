package redis_test

import (
	"testing"

	"github.com/MaineK00n/exploitgpt/pkg/db/common/redis"
)

func TestConnection_Open(t *testing.T) {
	c := &redis.Connection{}
	if err := c.Open(); err == nil {
		t.Error("Connection.Open() expected error for missing config")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Connection.Close() error = %v", err)
	}
}
