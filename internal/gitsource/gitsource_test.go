package gitsource

import (
	"path/filepath"
	"testing"
)

func TestLocalPath(t *testing.T) {
	testCases := []struct {
		name   string
		remote string
		want   string
		ok     bool
	}{
		{
			name:   "https remote",
			remote: "https://github.com/someone/decks.git",
			want:   filepath.Join("cache", "github.com", "someone", "decks"),
			ok:     true,
		},
		{
			name:   "https without suffix",
			remote: "https://gitlab.com/team/cards",
			want:   filepath.Join("cache", "gitlab.com", "team", "cards"),
			ok:     true,
		},
		{
			name:   "scp-like remote",
			remote: "git@github.com:someone/decks.git",
			want:   filepath.Join("cache", "github.com", "someone", "decks"),
			ok:     true,
		},
		{
			name:   "garbage",
			remote: "not a remote",
			ok:     false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LocalPath("cache", tc.remote)
			if tc.ok && err != nil {
				t.Fatalf("LocalPath: %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatalf("LocalPath = %q, want error", got)
				}
				return
			}
			if got != tc.want {
				t.Errorf("LocalPath = %q, want %q", got, tc.want)
			}
		})
	}
}
