package imagegen

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"matisse/internal/config"
)

const (
	defaultT2PAPIURL = "https://visual.volcengineapi.com"
	defaultT2PRegion = "cn-north-1"
	defaultT2PReqKey = "high_aes_general_v21_L"

	// defaultT2PNegativePrompt 默认负向提示词，未配置时使用
	defaultT2PNegativePrompt = "watermark, (water-marked:1.4), (text:1.5), Signature sketch, " +
		"letters, 字母, 题字, 文字, (红色印章:1.4), logo, 标志, 对话框, subtitle, seal, inscription, " +
		"nsfw, nude, low resolution, blurry, worst quality, mutated hands and fingers, " +
		"poorly drawn face, bad anatomy, distorted hands, limbless"
)

// T2PClient 火山引擎 visual 服务（Text-to-Picture）客户端
// 调用 cv_process 接口生成图片，请求按火山引擎签名规范签名
// 参考: https://www.volcengine.com/docs/6460/6490
type T2PClient struct {
	cfg        *config.T2PConfig
	httpClient *http.Client
	apiURL     string
	region     string
	reqKey     string
}

// NewT2PClient 创建 T2P 客户端
func NewT2PClient(cfg *config.T2PConfig) (*T2PClient, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("t2p access_key and secret_key are required")
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultT2PAPIURL
	}

	region := cfg.Region
	if region == "" {
		region = defaultT2PRegion
	}

	reqKey := cfg.ReqKey
	if reqKey == "" {
		reqKey = defaultT2PReqKey
	}

	return &T2PClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 300 * time.Second},
		apiURL:     apiURL,
		region:     region,
		reqKey:     reqKey,
	}, nil
}

// t2pResponse cv_process 响应
type t2pResponse struct {
	ResponseMetadata *t2pResponseMetadata `json:"ResponseMetadata,omitempty"`
	Data             *t2pImageData        `json:"data,omitempty"`
}

type t2pResponseMetadata struct {
	Error *t2pError `json:"Error,omitempty"`
}

type t2pError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

type t2pImageData struct {
	BinaryDataBase64 []string `json:"binary_data_base64,omitempty"`
	ImageURL         []string `json:"image_url,omitempty"`
}

// GenerateImage 生成图片（同步接口）
// size 形如 "720x1280"，为空时使用配置宽高
func (c *T2PClient) GenerateImage(ctx context.Context, prompt, size string) ([]byte, error) {
	width, height := c.resolveSize(size)

	scale := c.cfg.Scale
	if scale == 0 {
		scale = 3.5
	}
	ddimSteps := c.cfg.DDIMSteps
	if ddimSteps == 0 {
		ddimSteps = 25
	}
	negativePrompt := c.cfg.NegativePrompt
	if negativePrompt == "" {
		negativePrompt = defaultT2PNegativePrompt
	}

	form := map[string]interface{}{
		"req_key":         c.reqKey,
		"prompt":          prompt,
		"llm_seed":        -1,
		"seed":            -1,
		"scale":           scale,
		"ddim_steps":      ddimSteps,
		"width":           width,
		"height":          height,
		"use_pre_llm":     c.cfg.UsePreLLM,
		"use_sr":          c.cfg.UseSR,
		"return_url":      false,
		"negative_prompt": negativePrompt,
		"logo_info": map[string]interface{}{
			"add_logo": false,
			"position": 0,
			"language": 0,
			"opacity":  0.3,
		},
	}

	requestBody, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	apiURL := fmt.Sprintf("%s/?Action=CVProcess&Version=2020-08-26", c.apiURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if err := c.signRequest(httpReq, requestBody); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var apiResp t2pResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if apiResp.ResponseMetadata != nil && apiResp.ResponseMetadata.Error != nil {
		return nil, fmt.Errorf("API error: %s - %s",
			apiResp.ResponseMetadata.Error.Code,
			apiResp.ResponseMetadata.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed, status: %d", resp.StatusCode)
	}

	if apiResp.Data == nil || len(apiResp.Data.BinaryDataBase64) == 0 {
		return nil, fmt.Errorf("no binary_data_base64 in response")
	}

	imageData, err := base64.StdEncoding.DecodeString(apiResp.Data.BinaryDataBase64[0])
	if err != nil {
		return nil, fmt.Errorf("decode base64 image data: %w", err)
	}

	return imageData, nil
}

// resolveSize 解析 "宽x高" 尺寸串，非法时退回配置宽高
func (c *T2PClient) resolveSize(size string) (int, int) {
	width := c.cfg.Width
	if width == 0 {
		width = 1024
	}
	height := c.cfg.Height
	if height == 0 {
		height = 1024
	}

	parts := strings.SplitN(strings.ToLower(size), "x", 2)
	if len(parts) == 2 {
		if w, err := strconv.Atoi(parts[0]); err == nil && w > 0 {
			if h, err := strconv.Atoi(parts[1]); err == nil && h > 0 {
				return w, h
			}
		}
	}

	return width, height
}

// signRequest 为请求添加火山引擎签名
func (c *T2PClient) signRequest(req *http.Request, body []byte) error {
	u, err := url.Parse(req.URL.String())
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	timestamp := time.Now().UTC().Format("20060102T150405Z")
	date := timestamp[:8]

	method := req.Method
	uri := u.Path
	if uri == "" {
		uri = "/"
	}

	// 查询字符串按字典序排序
	queryParams := u.Query()
	var queryKeys []string
	for k := range queryParams {
		queryKeys = append(queryKeys, k)
	}
	sort.Strings(queryKeys)
	var queryParts []string
	for _, k := range queryKeys {
		for _, v := range queryParams[k] {
			queryParts = append(queryParts, fmt.Sprintf("%s=%s", k, url.QueryEscape(v)))
		}
	}
	queryString := strings.Join(queryParts, "&")

	// Headers 按字典序排序，Host 和 Content-Type 不参与签名
	headerKeys := make([]string, 0, len(req.Header))
	for k := range req.Header {
		lk := strings.ToLower(k)
		if lk == "host" || lk == "content-type" {
			continue
		}
		headerKeys = append(headerKeys, lk)
	}
	sort.Strings(headerKeys)
	var headerParts []string
	for _, k := range headerKeys {
		for _, v := range req.Header.Values(k) {
			headerParts = append(headerParts, fmt.Sprintf("%s:%s", k, strings.TrimSpace(v)))
		}
	}
	headersString := strings.Join(headerParts, "\n")

	stringToSign := fmt.Sprintf("%s\n%s\n%s\n%s\n%s",
		method,
		uri,
		queryString,
		headersString,
		string(body))

	// kDate -> kRegion -> kService -> kSigning 逐级派生签名密钥
	kDate := hmacSHA256([]byte(c.cfg.SecretKey), date)
	kRegion := hmacSHA256(kDate, c.region)
	kService := hmacSHA256(kRegion, "visual")
	kSigning := hmacSHA256(kService, "request")
	signature := hmacSHA256(kSigning, stringToSign)
	signatureHex := fmt.Sprintf("%x", signature)

	signedHeaders := strings.Join(headerKeys, ";")
	authorization := fmt.Sprintf("HMAC-SHA256 Credential=%s/%s/%s/visual/request, SignedHeaders=%s, Signature=%s",
		c.cfg.AccessKey,
		date,
		c.region,
		signedHeaders,
		signatureHex)

	req.Header.Set("Authorization", authorization)
	req.Header.Set("X-Date", timestamp)

	return nil
}

// hmacSHA256 计算 HMAC-SHA256
func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}
