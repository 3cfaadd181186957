package cli

import (
	"context"
	"path/filepath"
	"testing"

	"ledger/internal/config"
	applog "ledger/internal/log"
)

func TestOpenMedium(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"memory", config.Config{DataBackend: "memory"}},
		{"file", config.Config{DataBackend: "file", DataDir: t.TempDir()}},
		{"sqlite", config.Config{DataBackend: "sqlite", SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			result, cleanup := OpenMedium(ctx, applog.New(applog.DefaultConfig()), &tt.cfg)
			defer cleanup()

			if err := result.Store.Put(ctx, "customers", []byte(`[]`)); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, err := result.Store.Get(ctx, "customers")
			if err != nil || string(got) != `[]` {
				t.Fatalf("Get = %q, %v", got, err)
			}
		})
	}
}

func TestSignalContextCancel(t *testing.T) {
	ctx, stop := SignalContext()
	stop()
	<-ctx.Done()
}
