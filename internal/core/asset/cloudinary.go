package asset

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"hotel-media-api/internal/infrastructure/config"
	"hotel-media-api/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrNotConfigured 圖床憑證未設定
var ErrNotConfigured = errors.New("asset store is not configured")

// UploadResult 圖床上傳結果
type UploadResult struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int64  `json:"bytes"`
	Format    string `json:"format"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client Cloudinary 相容的簽名 REST 客戶端
type Client struct {
	config config.CDNConfig
	client *resty.Client
	now    func() time.Time
}

// NewClient 創建圖床客戶端
func NewClient(cfg config.CDNConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Client{
		config: cfg,
		client: client,
		now:    time.Now,
	}
}

// Configured 是否已設定完整憑證
func (c *Client) Configured() bool {
	return c.config.Configured()
}

// Upload 上傳本機檔案到指定資料夾
func (c *Client) Upload(ctx context.Context, filePath, folder string) (*UploadResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	params := map[string]string{
		"timestamp": c.timestamp(),
	}
	if folder != "" {
		params["folder"] = folder
	}
	form := c.signedForm(params)

	var result UploadResult
	var apiErr apiError
	resp, err := c.client.R().
		SetContext(ctx).
		SetFile("file", filePath).
		SetFormData(form).
		SetResult(&result).
		SetError(&apiErr).
		Post(c.endpoint("upload"))
	if err != nil {
		return nil, fmt.Errorf("failed to upload asset: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("asset upload returned %d: %s", resp.StatusCode(), errorMessage(resp, apiErr))
	}

	common.LogInfo("圖床上傳完成",
		zap.String("public_id", result.PublicID),
		zap.Int64("bytes", result.Bytes),
		zap.String("format", result.Format),
	)

	return &result, nil
}

// Delete 刪除圖床上的資源，publicID 為空時不做任何事
func (c *Client) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	if !c.Configured() {
		return ErrNotConfigured
	}

	form := c.signedForm(map[string]string{
		"public_id": publicID,
		"timestamp": c.timestamp(),
	})

	var body struct {
		Result string `json:"result"`
	}
	var apiErr apiError
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&body).
		SetError(&apiErr).
		Post(c.endpoint("destroy"))
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("asset delete returned %d: %s", resp.StatusCode(), errorMessage(resp, apiErr))
	}

	common.LogInfo("圖床資源已刪除",
		zap.String("public_id", publicID),
		zap.String("result", body.Result),
	)
	return nil
}

func (c *Client) endpoint(action string) string {
	return fmt.Sprintf("/%s/image/%s", c.config.CloudName, action)
}

func (c *Client) timestamp() string {
	return strconv.FormatInt(c.now().Unix(), 10)
}

// signedForm 加上 api_key 與 signature 欄位
func (c *Client) signedForm(params map[string]string) map[string]string {
	form := make(map[string]string, len(params)+2)
	for k, v := range params {
		form[k] = v
	}
	form["api_key"] = c.config.APIKey
	form["signature"] = Sign(params, c.config.APISecret)
	return form
}

// Sign 依參數名稱排序後串接並以 SHA-1 簽名
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

func errorMessage(resp *resty.Response, apiErr apiError) string {
	if apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return resp.Status()
}
