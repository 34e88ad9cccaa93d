package dburl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{
			name: "postgres url",
			in:   "postgres://focus:secret@db:5432/gofocus?sslmode=disable",
			want: "postgres://focus:secret@db:5432/gofocus?sslmode=disable",
		},
		{
			name: "postgresql scheme and default port",
			in:   "postgresql://focus:secret@db/gofocus",
			want: "postgres://focus:secret@db:5432/gofocus",
		},
		{
			name: "jdbc with credentials in query",
			in:   "jdbc:postgresql://db:6543/gofocus?user=focus&password=p%40ss&sslmode=require",
			want: "postgres://focus:p%40ss@db:6543/gofocus?sslmode=require",
		},
		{
			name: "jdbc without password",
			in:   " jdbc:postgresql://db/gofocus?user=focus ",
			want: "postgres://focus@db:5432/gofocus",
		},
		{
			name: "heroku style",
			in:   "postgres://u1:pw@ec2-1-2-3-4.compute-1.amazonaws.com:5432/d9abc",
			want: "postgres://u1:pw@ec2-1-2-3-4.compute-1.amazonaws.com:5432/d9abc",
		},
		{name: "empty", in: "  ", wantErr: ErrEmpty},
		{name: "mysql", in: "mysql://u:p@db:3306/x", wantErr: ErrUnsupportedScheme},
		{name: "jdbc mysql", in: "jdbc:mysql://db:3306/x", wantErr: ErrUnsupportedScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got, err := DSN(tt.in)

			// Assert
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDSN_MissingParts(t *testing.T) {
	_, err := DSN("postgres://db:5432/")
	assert.ErrorContains(t, err, "database name")

	_, err = DSN("postgres:///gofocus")
	assert.ErrorContains(t, err, "host")
}

func TestMigrateURL(t *testing.T) {
	got, err := MigrateURL("postgres://u:p@db/gofocus?sslmode=disable&pool_max_conns=10")

	require.NoError(t, err)
	assert.Equal(t, "pgx5://u:p@db:5432/gofocus?sslmode=disable", got)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "postgres://u:xxxxx@db:5432/gofocus", Redact("postgres://u:secret@db/gofocus"))
	assert.Equal(t, "<invalid datasource>", Redact("redis://x"))
}
