package paygate

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockProcessor 模拟支付处理器（测试与本地开发用）
type MockProcessor struct {
	mu sync.Mutex

	// FailNext 下一次扣款返回拒绝
	FailNext bool
	// TimeoutNext 下一次扣款返回超时
	TimeoutNext bool

	Charges []*ChargeRequest
	Refunds []*RefundRequest
}

// NewMockProcessor 创建模拟支付处理器
func NewMockProcessor() *MockProcessor {
	return &MockProcessor{}
}

// Charge 模拟扣款
func (m *MockProcessor) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Charges = append(m.Charges, req)

	if m.TimeoutNext {
		m.TimeoutNext = false
		return nil, ErrTimeout
	}
	if m.FailNext {
		m.FailNext = false
		return &ChargeResponse{Status: "declined", DeclineReason: "insufficient funds"},
			fmt.Errorf("%w: insufficient funds", ErrDeclined)
	}

	return &ChargeResponse{
		TransactionID: fmt.Sprintf("txn_%d", time.Now().UnixNano()),
		Status:        "succeeded",
	}, nil
}

// Refund 模拟退款
func (m *MockProcessor) Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Refunds = append(m.Refunds, req)

	return &RefundResponse{
		RefundID: fmt.Sprintf("rfd_%d", time.Now().UnixNano()),
		Status:   "succeeded",
	}, nil
}
