package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	a := Key("flightdesk", "get", "/api/countries/", "limit=200&page=1")
	b := Key("flightdesk", "GET", "/api/countries/", "limit=200&page=1")
	c := Key("flightdesk", "GET", "/api/countries/", "limit=200&page=2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "flightdesk:"))
	assert.Len(t, strings.TrimPrefix(a, "flightdesk:"), 40)
}

func TestNewRedis_Unreachable(t *testing.T) {
	r, err := NewRedis("", "", 0)
	assert.Error(t, err)
	assert.Nil(t, r)

	r, err = NewRedis("127.0.0.1:1", "", 0)
	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestRedis_NilIsAlwaysAMiss(t *testing.T) {
	var r *Redis
	var c Cache = r

	c.Set(context.Background(), "k", []byte("v"), time.Minute)
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.NoError(t, r.Close())
}

func TestRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	r, err := NewRedis(addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	key := Key("flightdesk-test", "GET", "/api/countries/", time.Now().String())

	_, ok := r.Get(ctx, key)
	assert.False(t, ok)

	r.Set(ctx, key, []byte(`{"data":[]}`), time.Minute)
	got, ok := r.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, `{"data":[]}`, string(got))
}
