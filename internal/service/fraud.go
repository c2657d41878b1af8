package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/user/tubeview/internal/config"
	"github.com/user/tubeview/internal/utils"
)

// Visit 访问历史中的一条记录
type Visit struct {
	RequestID  string `json:"requestId"`
	Timestamp  int64  `json:"timestamp"` // 毫秒
	Confidence struct {
		Score float64 `json:"score"`
	} `json:"confidence"`
}

// Time 访问发生时间
func (v Visit) Time() time.Time {
	return time.UnixMilli(v.Timestamp)
}

// VisitHistoryClient 设备指纹访问历史服务
type VisitHistoryClient interface {
	GetRecentVisits(ctx context.Context, fingerprint string) ([]Visit, error)
}

// regionHosts Fingerprint Pro 各区域的服务地址
var regionHosts = map[string]string{
	"us": "https://api.fpjs.io",
	"eu": "https://eu.api.fpjs.io",
	"ap": "https://ap.api.fpjs.io",
}

// FingerprintClient 基于 Fingerprint Pro Server API 的访问历史客户端
type FingerprintClient struct {
	http    *utils.HTTPClient
	baseURL string
}

// NewFingerprintClient 创建客户端，BaseURL 非空时优先于区域地址
func NewFingerprintClient(cfg config.FingerprintConfig) *FingerprintClient {
	base := cfg.BaseURL
	if base == "" {
		base = regionHosts[cfg.Region]
	}
	if base == "" {
		base = regionHosts[config.DefaultFingerprintRegion]
	}
	return &FingerprintClient{
		http:    utils.NewHTTPClient(cfg.Timeout, map[string]string{"Auth-API-Key": cfg.APIKey}),
		baseURL: base,
	}
}

type visitorsResponse struct {
	VisitorID string  `json:"visitorId"`
	Visits    []Visit `json:"visits"`
}

// GetRecentVisits 拉取最近一次访问，limit=1 即可满足判定需要
func (c *FingerprintClient) GetRecentVisits(ctx context.Context, fingerprint string) ([]Visit, error) {
	endpoint := fmt.Sprintf("%s/visitors/%s?limit=1", c.baseURL, url.PathEscape(fingerprint))
	var resp visitorsResponse
	if err := c.http.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.Visits, nil
}

// FraudChecker 判断一次观看上报是否来自真实设备
type FraudChecker struct {
	client        VisitHistoryClient
	recentWindow  time.Duration
	minConfidence float64
	timeout       time.Duration
	now           func() time.Time
}

// NewFraudChecker 创建判定器
func NewFraudChecker(client VisitHistoryClient, cfg config.ViewConfig, timeout time.Duration) *FraudChecker {
	return &FraudChecker{
		client:        client,
		recentWindow:  cfg.RecentVisitWindow,
		minConfidence: cfg.MinConfidence,
		timeout:       timeout,
		now:           time.Now,
	}
}

// IsViewPlausible 最近一次访问在窗口期内，或置信度足够高，即视为可信。
// 服务不可达、超时、非 2xx 或没有任何访问记录都返回 ErrViewRecord。
func (f *FraudChecker) IsViewPlausible(ctx context.Context, fingerprint string) (bool, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	visits, err := f.client.GetRecentVisits(ctx, fingerprint)
	if err != nil {
		var statusErr *utils.StatusError
		if errors.As(err, &statusErr) {
			log.Printf("[Fraud] 指纹服务返回异常状态 %d", statusErr.StatusCode)
		} else {
			log.Printf("[Fraud] 请求指纹服务失败: %v", err)
		}
		return false, ErrViewRecord.Wrap(err)
	}
	if len(visits) == 0 {
		return false, ErrViewRecord.WithReason("设备没有访问记录")
	}

	latest := visits[0]
	for _, v := range visits[1:] {
		if v.Timestamp > latest.Timestamp {
			latest = v
		}
	}

	recent := f.now().Sub(latest.Time()) < f.recentWindow
	return recent || latest.Confidence.Score > f.minConfidence, nil
}
