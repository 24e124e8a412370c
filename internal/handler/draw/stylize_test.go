package draw

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"

	drawmodel "matisse/internal/model/draw"
	"matisse/internal/pkg/gateway"
	"matisse/internal/service"
)

// fakeDrawService 可编程的本地流水线
type fakeDrawService struct {
	result *service.StylizeResult
	err    error

	gotReq      *service.StylizeRequest
	generations []*drawmodel.Generation
}

func (f *fakeDrawService) Stylize(ctx context.Context, req *service.StylizeRequest) (*service.StylizeResult, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeDrawService) ListGenerations(ctx context.Context, limit int64) ([]*drawmodel.Generation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.generations, nil
}

// fakeDelegator 可编程的远程委托
type fakeDelegator struct {
	result *gateway.StylizeResult
	err    error

	calls      int
	gotPayload *gateway.StylizePayload
}

func (f *fakeDelegator) Stylize(ctx context.Context, payload *gateway.StylizePayload) (*gateway.StylizeResult, error) {
	f.calls++
	f.gotPayload = payload
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func setupRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/draw/stylize", h.Stylize)
	r.POST("/api/v1/draw/stylize/cloud", h.StylizeCloud)
	r.GET("/api/v1/draw/generations", h.ListGenerations)
	return r
}

func doJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type stylizeEnvelope struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    StylizeResponseData `json:"data"`
}

func TestHandler_Stylize(t *testing.T) {
	imageB64 := base64.StdEncoding.EncodeToString([]byte("fake-png"))

	Convey("画作风格化接口", t, func() {
		Convey("本地流水线成功", func() {
			svc := &fakeDrawService{result: &service.StylizeResult{
				Prompt:   "一只小狗",
				ImageB64: "Z2VuZXJhdGVk",
				ImageURL: "https://img.example.com/a.png",
			}}
			r := setupRouter(NewHandler(svc, nil, 0))

			w := doJSON(r, "/api/v1/draw/stylize", gin.H{
				"image_b64": imageB64,
				"style":     "水彩",
			})

			So(w.Code, ShouldEqual, http.StatusOK)
			var resp stylizeEnvelope
			So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.Code, ShouldEqual, 0)
			So(resp.Data.Prompt, ShouldEqual, "一只小狗")
			So(resp.Data.Source, ShouldEqual, drawmodel.SourceLocal)

			So(svc.gotReq.Style, ShouldEqual, "水彩")
			So(svc.gotReq.Save, ShouldBeTrue) // save 默认 true
		})

		Convey("委托成功时不走本地流水线", func() {
			svc := &fakeDrawService{}
			del := &fakeDelegator{result: &gateway.StylizeResult{
				Prompt:   "云端提示词",
				ImageB64: "Y2xvdWQ=",
			}}
			r := setupRouter(NewHandler(svc, del, 0))

			w := doJSON(r, "/api/v1/draw/stylize", gin.H{"image_b64": imageB64})

			So(w.Code, ShouldEqual, http.StatusOK)
			var resp stylizeEnvelope
			So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.Data.Source, ShouldEqual, drawmodel.SourceGateway)
			So(resp.Data.Prompt, ShouldEqual, "云端提示词")

			So(del.calls, ShouldEqual, 1)
			So(del.gotPayload.ImageB64, ShouldEqual, imageB64)
			So(svc.gotReq, ShouldBeNil)
		})

		Convey("委托失败时回退本地流水线", func() {
			svc := &fakeDrawService{result: &service.StylizeResult{
				Prompt:   "本地提示词",
				ImageB64: "bG9jYWw=",
			}}
			del := &fakeDelegator{err: fmt.Errorf("gateway timeout")}
			r := setupRouter(NewHandler(svc, del, 0))

			w := doJSON(r, "/api/v1/draw/stylize", gin.H{"image_b64": imageB64})

			So(w.Code, ShouldEqual, http.StatusOK)
			var resp stylizeEnvelope
			So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.Data.Source, ShouldEqual, drawmodel.SourceLocal)
			So(del.calls, ShouldEqual, 1)
			So(svc.gotReq, ShouldNotBeNil)
		})

		Convey("委托失败且本地未配置时返回503", func() {
			del := &fakeDelegator{err: fmt.Errorf("gateway down")}
			r := setupRouter(NewHandler(nil, del, 0))

			w := doJSON(r, "/api/v1/draw/stylize", gin.H{"image_b64": imageB64})
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, "50301")
		})

		Convey("缺少 image_b64 返回400", func() {
			r := setupRouter(NewHandler(&fakeDrawService{}, nil, 0))

			w := doJSON(r, "/api/v1/draw/stylize", gin.H{"style": "卡通"})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "40001")
		})

		Convey("image_b64 非法返回400", func() {
			r := setupRouter(NewHandler(&fakeDrawService{}, nil, 0))

			w := doJSON(r, "/api/v1/draw/stylize", gin.H{"image_b64": "not-base64!!!"})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("图片超过大小上限返回400", func() {
			r := setupRouter(NewHandler(&fakeDrawService{}, nil, 16))

			big := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("x"), 32))
			w := doJSON(r, "/api/v1/draw/stylize", gin.H{"image_b64": big})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("本地流水线错误映射", func() {
			Convey("ErrInvalidImage 返回400", func() {
				svc := &fakeDrawService{err: fmt.Errorf("%w: bad image", service.ErrInvalidImage)}
				r := setupRouter(NewHandler(svc, nil, 0))

				w := doJSON(r, "/api/v1/draw/stylize", gin.H{"image_b64": imageB64})
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "40002")
			})

			Convey("ErrUpstream 返回502", func() {
				svc := &fakeDrawService{err: fmt.Errorf("%w: model down", service.ErrUpstream)}
				r := setupRouter(NewHandler(svc, nil, 0))

				w := doJSON(r, "/api/v1/draw/stylize", gin.H{"image_b64": imageB64})
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(w.Body.String(), ShouldContainSubstring, "50201")
			})

			Convey("其他错误返回500", func() {
				svc := &fakeDrawService{err: fmt.Errorf("boom")}
				r := setupRouter(NewHandler(svc, nil, 0))

				w := doJSON(r, "/api/v1/draw/stylize", gin.H{"image_b64": imageB64})
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldContainSubstring, "50001")
			})
		})

		Convey("multipart 上传", func() {
			svc := &fakeDrawService{result: &service.StylizeResult{
				Prompt:   "表单提示词",
				ImageB64: "Zm9ybQ==",
			}}
			r := setupRouter(NewHandler(svc, nil, 0))

			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			fw, err := mw.CreateFormFile("file", "drawing.png")
			So(err, ShouldBeNil)
			fw.Write([]byte("fake-png"))
			mw.WriteField("style", "油画")
			mw.WriteField("save", "false")
			mw.Close()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/draw/stylize", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(svc.gotReq.Style, ShouldEqual, "油画")
			So(svc.gotReq.Save, ShouldBeFalse)
			So(svc.gotReq.Image, ShouldResemble, []byte("fake-png"))
		})
	})
}

func TestHandler_StylizeCloud(t *testing.T) {
	imageB64 := base64.StdEncoding.EncodeToString([]byte("fake-png"))

	Convey("云端风格化接口", t, func() {
		Convey("委托成功", func() {
			del := &fakeDelegator{result: &gateway.StylizeResult{
				Prompt:   "云端提示词",
				ImageB64: "Y2xvdWQ=",
				ImageURL: "https://img.example.com/c.png",
			}}
			r := setupRouter(NewHandler(nil, del, 0))

			w := doJSON(r, "/api/v1/draw/stylize/cloud", gin.H{
				"image_b64": imageB64,
				"save":      false,
			})

			So(w.Code, ShouldEqual, http.StatusOK)
			var resp stylizeEnvelope
			So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.Data.Source, ShouldEqual, drawmodel.SourceGateway)
			So(resp.Data.ImageURL, ShouldEqual, "https://img.example.com/c.png")
			So(del.gotPayload.Save, ShouldBeFalse)
		})

		Convey("网关未配置返回503，不回退本地", func() {
			svc := &fakeDrawService{result: &service.StylizeResult{ImageB64: "x"}}
			r := setupRouter(NewHandler(svc, nil, 0))

			w := doJSON(r, "/api/v1/draw/stylize/cloud", gin.H{"image_b64": imageB64})
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, "50302")
			So(svc.gotReq, ShouldBeNil)
		})

		Convey("委托失败返回502，不回退本地", func() {
			svc := &fakeDrawService{result: &service.StylizeResult{ImageB64: "x"}}
			del := &fakeDelegator{err: fmt.Errorf("function error")}
			r := setupRouter(NewHandler(svc, del, 0))

			w := doJSON(r, "/api/v1/draw/stylize/cloud", gin.H{"image_b64": imageB64})
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(w.Body.String(), ShouldContainSubstring, "50202")
			So(svc.gotReq, ShouldBeNil)
		})
	})
}

func TestHandler_ListGenerations(t *testing.T) {
	Convey("生成记录列表接口", t, func() {
		Convey("返回记录列表", func() {
			svc := &fakeDrawService{generations: []*drawmodel.Generation{
				{ID: "g1", Prompt: "p1"},
				{ID: "g2", Prompt: "p2"},
			}}
			r := setupRouter(NewHandler(svc, nil, 0))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/draw/generations?limit=5", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"count":2`)
		})

		Convey("仓储错误返回500", func() {
			svc := &fakeDrawService{err: fmt.Errorf("mongo down")}
			r := setupRouter(NewHandler(svc, nil, 0))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/draw/generations", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}
