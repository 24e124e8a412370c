package storagefactory

import (
	"context"
	"testing"

	"matisse/internal/config"
)

func TestNewStorage(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		cfg      *config.StorageConfig
		wantErr  bool
		wantType string
	}{
		{
			name: "local storage",
			cfg: &config.StorageConfig{
				Type: "local",
				Local: &config.LocalConfig{
					BasePath: t.TempDir(),
					BaseURL:  "http://localhost:8080/storage",
				},
			},
			wantErr:  false,
			wantType: "local",
		},
		{
			name:    "local storage without config",
			cfg:     &config.StorageConfig{Type: "local"},
			wantErr: true,
		},
		{
			name:    "oss storage without config",
			cfg:     &config.StorageConfig{Type: "oss"},
			wantErr: true,
		},
		{
			name:    "unsupported type",
			cfg:     &config.StorageConfig{Type: "s3"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStorage(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStorage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := store.GetStorageType(); got != tt.wantType {
				t.Errorf("GetStorageType() = %s, want %s", got, tt.wantType)
			}
		})
	}
}
