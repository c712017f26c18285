package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name:    "missing token",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name: "token only, defaults applied",
			env:  map[string]string{"TELEGRAM_BOT_TOKEN": "test-token"},
			want: &Config{
				TelegramBotToken: "test-token",
				DatabasePath:     "./data/tracker.db",
				LogLevel:         "info",
				AllowedUsers:     nil,
				AdapterTimeout:   120 * time.Second,
				SchedulerTick:    300 * time.Second,
			},
		},
		{
			name: "all values set",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":      "tok",
				"DATABASE_PATH":           "/tmp/tracker.db",
				"LOG_LEVEL":               "debug",
				"ALLOWED_USERS":           "111,222,333",
				"ADAPTER_TIMEOUT_SECONDS": "60",
				"SCHEDULER_TICK_SECONDS":  "30",
			},
			want: &Config{
				TelegramBotToken: "tok",
				DatabasePath:     "/tmp/tracker.db",
				LogLevel:         "debug",
				AllowedUsers:     []int64{111, 222, 333},
				AdapterTimeout:   60 * time.Second,
				SchedulerTick:    30 * time.Second,
			},
		},
		{
			name: "allowed users with spaces",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"ALLOWED_USERS":      " 10 , 20 , ",
			},
			want: &Config{
				TelegramBotToken: "tok",
				DatabasePath:     "./data/tracker.db",
				LogLevel:         "info",
				AllowedUsers:     []int64{10, 20},
				AdapterTimeout:   120 * time.Second,
				SchedulerTick:    300 * time.Second,
			},
		},
		{
			name: "invalid allowed users",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"ALLOWED_USERS":      "abc",
			},
			wantErr: true,
		},
		{
			name: "invalid adapter timeout",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":      "tok",
				"ADAPTER_TIMEOUT_SECONDS": "-5",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{
				"TELEGRAM_BOT_TOKEN", "DATABASE_PATH", "LOG_LEVEL",
				"ALLOWED_USERS", "ADAPTER_TIMEOUT_SECONDS", "SCHEDULER_TICK_SECONDS",
			} {
				t.Setenv(key, tt.env[key])
			}

			got, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsUserAllowed(t *testing.T) {
	tests := []struct {
		name    string
		allowed []int64
		userID  int64
		want    bool
	}{
		{name: "empty list permits all", allowed: nil, userID: 42, want: true},
		{name: "listed user", allowed: []int64{1, 2, 3}, userID: 2, want: true},
		{name: "unlisted user", allowed: []int64{1, 2, 3}, userID: 9, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{AllowedUsers: tt.allowed}
			if got := c.IsUserAllowed(tt.userID); got != tt.want {
				t.Errorf("IsUserAllowed(%d) = %v, want %v", tt.userID, got, tt.want)
			}
		})
	}
}
