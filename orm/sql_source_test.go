package orm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NamedSQL_BoundSQL(t *testing.T) {
	type UserQuery struct {
		Active   int
		UserName string
	}

	cases := []struct {
		name     string
		sql      string
		param    any
		wantSQL  string
		wantArgs []any
		wantErr  error
	}{
		{
			name:    "no param",
			sql:     "SELECT * FROM users",
			wantSQL: "SELECT * FROM users",
		},
		{
			name:     "map",
			sql:      "SELECT * FROM users WHERE active = #{active} AND name = #{ name }",
			param:    map[string]any{"active": 1, "name": "Tom"},
			wantSQL:  "SELECT * FROM users WHERE active = ? AND name = ?",
			wantArgs: []any{1, "Tom"},
		},
		{
			name:     "struct by field name",
			sql:      "SELECT * FROM users WHERE active = #{active} AND name = #{UserName}",
			param:    UserQuery{Active: 1, UserName: "Tom"},
			wantSQL:  "SELECT * FROM users WHERE active = ? AND name = ?",
			wantArgs: []any{1, "Tom"},
		},
		{
			name:     "struct pointer by column name",
			sql:      "SELECT * FROM users WHERE name = #{user_name}",
			param:    &UserQuery{UserName: "Tom"},
			wantSQL:  "SELECT * FROM users WHERE name = ?",
			wantArgs: []any{"Tom"},
		},
		{
			name:     "single value",
			sql:      "SELECT * FROM users WHERE id = #{id}",
			param:    12,
			wantSQL:  "SELECT * FROM users WHERE id = ?",
			wantArgs: []any{12},
		},
		{
			name:    "single value with two names",
			sql:     "SELECT * FROM users WHERE id = #{id} AND age = #{age}",
			param:   12,
			wantErr: ErrParameterNotFound,
		},
		{
			name:    "missing",
			sql:     "SELECT * FROM users WHERE id = #{id}",
			param:   map[string]any{"name": "Tom"},
			wantErr: ErrParameterNotFound,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			bound, err := NewNamedSQL(c.sql).BoundSQL(c.param)
			if c.wantErr != nil {
				assert.ErrorIs(t, err, c.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.wantSQL, bound.SQL)
			assert.Equal(t, c.wantArgs, bound.Args)
		})
	}
}

func Test_StaticSQL_BoundSQL(t *testing.T) {
	bound, err := StaticSQL("SELECT * FROM users WHERE id = ? AND age = ?").BoundSQL([]any{1, 18})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 18}, bound.Args)

	bound, err = StaticSQL("SELECT * FROM users WHERE id = ?").BoundSQL(1)
	require.NoError(t, err)
	assert.Equal(t, []any{1}, bound.Args)

	// Clone 之后修改参数不影响原来的
	cloned := bound.Clone()
	cloned.Args = append(cloned.Args, 10)
	cloned.SQL += " LIMIT ?"
	assert.Equal(t, []any{1}, bound.Args)
	assert.Equal(t, "SELECT * FROM users WHERE id = ?", bound.SQL)
}

func Test_CacheKey(t *testing.T) {
	key := NewCacheKey("users.list", 0, NoRowLimit, "SELECT * FROM users")
	cloned := key.Clone()
	cloned.Update(10)
	cloned.Update(20)
	assert.Equal(t, "users.list:0:2147483647:SELECT * FROM users", key.String())
	assert.Equal(t, "users.list:0:2147483647:SELECT * FROM users:10:20", cloned.String())
}
