package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"matisse/internal/config"
)

func TestT2PClient_resolveSize(t *testing.T) {
	client, err := NewT2PClient(&config.T2PConfig{
		AccessKey: "ak",
		SecretKey: "sk",
		Width:     768,
		Height:    1024,
	})
	if err != nil {
		t.Fatalf("NewT2PClient() error = %v", err)
	}

	tests := []struct {
		name       string
		size       string
		wantWidth  int
		wantHeight int
	}{
		{"valid size", "512x512", 512, 512},
		{"uppercase separator", "720X1280", 720, 1280},
		{"empty falls back to config", "", 768, 1024},
		{"garbage falls back to config", "bigxsmall", 768, 1024},
		{"negative falls back to config", "-1x512", 768, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := client.resolveSize(tt.size)
			if w != tt.wantWidth || h != tt.wantHeight {
				t.Errorf("resolveSize(%q) = %dx%d, want %dx%d", tt.size, w, h, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestNewT2PClient_RequiresKeys(t *testing.T) {
	if _, err := NewT2PClient(&config.T2PConfig{}); err == nil {
		t.Error("NewT2PClient() with empty keys should fail")
	}
}

// newT2PTestServer 返回固定图片数据的 cv_process 假服务，并捕获请求体
func newT2PTestServer(t *testing.T, gotForm *map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(gotForm); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(t2pResponse{
			Data: &t2pImageData{
				BinaryDataBase64: []string{base64.StdEncoding.EncodeToString([]byte("fake-png"))},
			},
		})
	}))
}

func TestT2PClient_NegativePrompt(t *testing.T) {
	t.Run("unset uses fixed default", func(t *testing.T) {
		var gotForm map[string]interface{}
		ts := newT2PTestServer(t, &gotForm)
		defer ts.Close()

		client, err := NewT2PClient(&config.T2PConfig{
			AccessKey: "ak",
			SecretKey: "sk",
			APIURL:    ts.URL,
		})
		if err != nil {
			t.Fatalf("NewT2PClient() error = %v", err)
		}

		data, err := client.GenerateImage(context.Background(), "一只小猫", "")
		if err != nil {
			t.Fatalf("GenerateImage() error = %v", err)
		}
		if string(data) != "fake-png" {
			t.Errorf("image data = %q, want fake-png", data)
		}
		if got := gotForm["negative_prompt"]; got != defaultT2PNegativePrompt {
			t.Errorf("negative_prompt = %v, want default", got)
		}
	})

	t.Run("configured value passed through", func(t *testing.T) {
		var gotForm map[string]interface{}
		ts := newT2PTestServer(t, &gotForm)
		defer ts.Close()

		client, err := NewT2PClient(&config.T2PConfig{
			AccessKey:      "ak",
			SecretKey:      "sk",
			APIURL:         ts.URL,
			NegativePrompt: "低分辨率",
		})
		if err != nil {
			t.Fatalf("NewT2PClient() error = %v", err)
		}

		if _, err := client.GenerateImage(context.Background(), "一只小猫", ""); err != nil {
			t.Fatalf("GenerateImage() error = %v", err)
		}
		if got := gotForm["negative_prompt"]; got != "低分辨率" {
			t.Errorf("negative_prompt = %v, want 低分辨率", got)
		}
	})
}
