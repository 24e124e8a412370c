package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"matisse/internal/config"
)

func newTestClient(url string) *Client {
	return New(&config.GatewayConfig{
		URL:     url,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
}

func TestNew(t *testing.T) {
	Convey("创建委托客户端", t, func() {
		Convey("未配置 URL 时返回 nil", func() {
			So(New(&config.GatewayConfig{}), ShouldBeNil)
			So(New(nil), ShouldBeNil)
		})

		Convey("配置了 URL 时返回客户端", func() {
			c := New(&config.GatewayConfig{URL: "http://example.com/fn"})
			So(c, ShouldNotBeNil)
		})
	})
}

func TestClient_Stylize(t *testing.T) {
	Convey("远程函数委托", t, func() {
		payload := &StylizePayload{
			ImageB64: "aGVsbG8=",
			MimeType: "image/png",
			Style:    "卡通",
			Save:     true,
		}

		Convey("远程函数成功返回结果", func() {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				So(r.Method, ShouldEqual, http.MethodPost)
				So(r.Header.Get("X-Api-Key"), ShouldEqual, "test-key")

				var got StylizePayload
				So(json.NewDecoder(r.Body).Decode(&got), ShouldBeNil)
				So(got.ImageB64, ShouldEqual, payload.ImageB64)
				So(got.Style, ShouldEqual, "卡通")

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(envelope{
					Code:    0,
					Message: "ok",
					Data: &StylizeResult{
						Prompt:   "一只卡通小猫",
						ImageB64: "cG5nLWJ5dGVz",
						ImageURL: "https://img.example.com/a.png",
					},
				})
			}))
			defer ts.Close()

			result, err := newTestClient(ts.URL).Stylize(context.Background(), payload)
			So(err, ShouldBeNil)
			So(result.Prompt, ShouldEqual, "一只卡通小猫")
			So(result.ImageB64, ShouldEqual, "cG5nLWJ5dGVz")
			So(result.ImageURL, ShouldEqual, "https://img.example.com/a.png")
		})

		Convey("非 2xx 状态码视为失败", func() {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer ts.Close()

			_, err := newTestClient(ts.URL).Stylize(context.Background(), payload)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "status 502")
		})

		Convey("响应 code != 0 视为失败", func() {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(envelope{Code: 50001, Message: "内部错误"})
			}))
			defer ts.Close()

			_, err := newTestClient(ts.URL).Stylize(context.Background(), payload)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "50001")
		})

		Convey("响应缺少图片视为失败", func() {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(envelope{Code: 0, Data: &StylizeResult{Prompt: "只有提示词"}})
			}))
			defer ts.Close()

			_, err := newTestClient(ts.URL).Stylize(context.Background(), payload)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "no image")
		})

		Convey("传输错误视为失败", func() {
			_, err := newTestClient("http://127.0.0.1:1/stylize").Stylize(context.Background(), payload)
			So(err, ShouldNotBeNil)
		})
	})
}
