package pagehelper

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/startdusk/pagehelper/cache"
	"github.com/startdusk/pagehelper/internal/countsql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantCfg Config
	}{
		{
			name:    "empty",
			yaml:    "",
			wantCfg: DefaultConfig(),
		},
		{
			name: "full",
			yaml: `
helperDialect: postgresql
autoRuntimeDialect: true
dialectAlias: shentong=oracle
countSuffix: _TOTAL
offsetAsPageNum: true
rowBoundsWithCount: true
pageSizeZero: true
reasonable: true
supportMethodsArguments: true
countColumn: id
params: pageNum=pn;pageSize=ps
msCountCache: map
ms:
  evictionClass: fifo
  flushInterval: 10m
  size: 128
aggregateFunctions: MEDIAN
`,
			wantCfg: Config{
				Dialect:                 DefaultDialect,
				HelperDialect:           "postgresql",
				AutoRuntimeDialect:      true,
				DialectAlias:            "shentong=oracle",
				CountSuffix:             "_TOTAL",
				OffsetAsPageNum:         true,
				RowBoundsWithCount:      true,
				PageSizeZero:            true,
				Reasonable:              true,
				SupportMethodsArguments: true,
				CountColumn:             "id",
				Params:                  "pageNum=pn;pageSize=ps",
				MSCountCache:            cache.TypeMap,
				MS: cache.Options{
					TypeClass:     cache.TypeLRU,
					EvictionClass: cache.EvictionFIFO,
					FlushInterval: 10 * time.Minute,
					Size:          128,
				},
				AggregateFunctions: "MEDIAN",
			},
		},
		{
			name: "blank values fall back",
			yaml: `
dialect: ""
countSuffix: ""
countColumn: ""
`,
			wantCfg: DefaultConfig(),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v := viper.New()
			v.SetConfigType("yaml")
			require.NoError(t, v.ReadConfig(bytes.NewBufferString(c.yaml)))
			cfg, err := LoadConfig(v)
			require.NoError(t, err)
			assert.Equal(t, c.wantCfg, cfg)
		})
	}
}

func TestLoadConfig_Error(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString("ms: 5")))
	_, err := LoadConfig(v)
	assert.Error(t, err)
}

func TestConfig_cacheOptions(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cache.TypeLRU, cfg.cacheOptions().TypeClass)

	cfg.MSCountCache = cache.TypeGoCache
	opts := cfg.cacheOptions()
	assert.Equal(t, cache.TypeGoCache, opts.TypeClass)
	assert.Equal(t, cache.DefaultSize, opts.Size)
	// MS 本身不变
	assert.Equal(t, cache.TypeLRU, cfg.MS.TypeClass)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultDialect, cfg.Dialect)
	assert.Equal(t, DefaultCountSuffix, cfg.CountSuffix)
	assert.Equal(t, countsql.DefaultCountColumn, cfg.CountColumn)
	assert.False(t, cfg.Reasonable)
}
