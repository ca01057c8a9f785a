package gormlog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShortCaller(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "/home/ci/src/caterpay/internal/platform/db/postgres.go:38", want: "internal/platform/db/postgres.go:38"},
		{in: "/go/pkg/mod/gorm.io/gorm@v1.31.1/callbacks.go:134", want: "pkg/mod/gorm.io/gorm@v1.31.1/callbacks.go:134"},
		{in: "/x/y/z/w.go:5", want: "y/z/w.go:5"},
		{in: "b.go:1", want: "b.go:1"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, shortCaller(tt.in), tt.in)
	}
}
