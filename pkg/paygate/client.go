// Package paygate 提供外部支付处理网关的客户端封装
package paygate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// 预定义错误
var (
	// ErrTimeout 网关在限定时间内未响应，结果未知，可检查状态后重试
	ErrTimeout = errors.New("payment gateway timeout")
	// ErrDeclined 网关明确拒绝本次交易
	ErrDeclined = errors.New("payment declined")
)

// Config 支付网关配置
type Config struct {
	BaseURL    string        `mapstructure:"gateway_url"`
	MerchantID string        `mapstructure:"merchant_id"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ChargeRequest 扣款请求
type ChargeRequest struct {
	PaymentNo  string  `json:"payment_no"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	Method     string  `json:"method"`
	CardToken  string  `json:"card_token,omitempty"`
	ReturnURL  string  `json:"return_url,omitempty"`
	MerchantID string  `json:"merchant_id"`
}

// ChargeResponse 扣款响应
type ChargeResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"` // succeeded / declined
	DeclineReason string `json:"decline_reason,omitempty"`
}

// RefundRequest 退款请求
type RefundRequest struct {
	TransactionID string  `json:"transaction_id"`
	RefundNo      string  `json:"refund_no"`
	Amount        float64 `json:"amount"`
	Reason        string  `json:"reason,omitempty"`
}

// RefundResponse 退款响应
type RefundResponse struct {
	RefundID string `json:"refund_id"`
	Status   string `json:"status"`
}

// Processor 支付处理器接口
// 业务层依赖该接口，便于测试时注入 mock 实现
type Processor interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error)
	Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error)
}

// Client 支付网关 HTTP 客户端
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient 创建支付网关客户端
func NewClient(config *Config) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Charge 发起扣款
// 超时返回 ErrTimeout（结果未知），网关拒绝返回 ErrDeclined
func (c *Client) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error) {
	req.MerchantID = c.config.MerchantID

	var resp ChargeResponse
	if err := c.post(ctx, "/v1/charges", req, &resp); err != nil {
		return nil, err
	}

	if resp.Status == "declined" {
		return &resp, fmt.Errorf("%w: %s", ErrDeclined, resp.DeclineReason)
	}

	return &resp, nil
}

// Refund 发起退款
func (c *Client) Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error) {
	var resp RefundResponse
	if err := c.post(ctx, "/v1/refunds", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post 发送签名 POST 请求
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return ErrTimeout
		}
		return err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 500 {
		return fmt.Errorf("gateway error: status %d", httpResp.StatusCode)
	}

	return json.NewDecoder(httpResp.Body).Decode(out)
}

// isTimeout 判断是否为网络超时错误
func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
