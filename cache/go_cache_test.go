package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_GoCache(t *testing.T) {
	cases := []struct {
		name       string
		expiration time.Duration
		setExp     time.Duration
		sleep      time.Duration
		wantErr    error
	}{
		{
			name: "perpetual",
		},
		{
			name:       "default expiration",
			expiration: 50 * time.Millisecond,
			sleep:      100 * time.Millisecond,
			wantErr:    ErrKeyNotFound,
		},
		{
			name:    "key expiration",
			setExp:  50 * time.Millisecond,
			sleep:   100 * time.Millisecond,
			wantErr: ErrKeyNotFound,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctx := context.Background()
			cache := NewGoCache(c.expiration)
			require.NoError(t, cache.Set(ctx, "key1", "val", c.setExp))
			time.Sleep(c.sleep)
			val, err := cache.Get(ctx, "key1")
			if c.wantErr != nil {
				assert.ErrorIs(t, err, c.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "val", val)
			assert.Equal(t, 1, cache.Len())

			require.NoError(t, cache.Delete(ctx, "key1"))
			_, err = cache.Get(ctx, "key1")
			assert.ErrorIs(t, err, ErrKeyNotFound)
		})
	}
}
