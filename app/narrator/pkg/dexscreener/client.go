package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/logger"
)

const defaultBaseURL = "https://api.dexscreener.com"

// Client DexScreener API 客户端
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient 创建一个新的 DexScreener 客户端，timeout 单位为秒
func NewClient(baseURL string, timeout int) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	t := time.Duration(timeout) * time.Second
	if t == 0 {
		t = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: t},
	}
}

// TokenResponse latest/dex/tokens 响应
type TokenResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []Pair `json:"pairs"`
}

// Pair 单个交易对，只保留需要的字段
type Pair struct {
	ChainID     string          `json:"chainId"`
	DexID       string          `json:"dexId"`
	PairAddress string          `json:"pairAddress"`
	PriceUSD    string          `json:"priceUsd"`
	MarketCap   json.RawMessage `json:"marketCap"`
}

// MarketCap 获取代币市值。
// 取第一个交易对的 marketCap，缺失或无法解析时返回 0；网络错误、非 200、响应无法解码时返回错误。
func (c *Client) MarketCap(ctx context.Context, token string) (float64, error) {
	resp, err := c.Tokens(ctx, token)
	if err != nil {
		return 0, err
	}
	if len(resp.Pairs) == 0 {
		logger.Log.Warnf("dexscreener 未返回交易对 [%s]", token)
		return 0, nil
	}

	mc, ok := parseNumber(resp.Pairs[0].MarketCap)
	if !ok {
		logger.Log.Warnf("dexscreener marketCap 无法解析 [%s]: %s", token, string(resp.Pairs[0].MarketCap))
		return 0, nil
	}
	return mc, nil
}

// Tokens 查询代币的全部交易对
func (c *Client) Tokens(ctx context.Context, token string) (*TokenResponse, error) {
	u := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, url.PathEscape(token))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dexscreener api error (status %d): %s", res.StatusCode, string(body))
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}
	return &tokenResp, nil
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parseNumber 接受 JSON 数字或数字字符串，字符串只取开头的数字部分
func parseNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
