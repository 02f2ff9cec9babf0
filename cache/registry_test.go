package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New(t *testing.T) {
	cases := []struct {
		name     string
		opts     Options
		wantType any
		wantErr  error
	}{
		{
			name:     "default lru",
			wantType: &LRUCache{},
		},
		{
			name:     "lru ignore eviction",
			opts:     Options{TypeClass: "LRU", EvictionClass: "unknown"},
			wantType: &LRUCache{},
		},
		{
			name:     "map with fifo",
			opts:     Options{TypeClass: TypeMap, Size: 10},
			wantType: &FIFOCache{},
		},
		{
			name:     "map without eviction",
			opts:     Options{TypeClass: TypeMap, EvictionClass: EvictionNone},
			wantType: &BuildInMapCache{},
		},
		{
			name:     "gocache",
			opts:     Options{TypeClass: TypeGoCache, FlushInterval: time.Minute},
			wantType: &GoCache{},
		},
		{
			name:    "unknown type",
			opts:    Options{TypeClass: "guava"},
			wantErr: ErrUnknownCache,
		},
		{
			name:    "unknown eviction",
			opts:    Options{TypeClass: TypeMap, EvictionClass: "weak"},
			wantErr: ErrUnknownCache,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res, err := New(c.opts)
			if c.wantErr != nil {
				assert.ErrorIs(t, err, c.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, c.wantType, res)
		})
	}
}

func Test_Register(t *testing.T) {
	want := NewGoCache(0)
	Register("Custom", func(opts Options) (Cache, error) {
		assert.Equal(t, DefaultSize, opts.Size)
		return want, nil
	})
	res, err := New(Options{TypeClass: "custom", EvictionClass: EvictionNone})
	require.NoError(t, err)
	assert.Same(t, want, res)
}
