package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockGateway is an in-memory payment gateway for testing.
// Simulates charge and refund flows without calling a real provider.
type MockGateway struct {
	mu sync.Mutex

	// CreateChargeFunc allows customizing charge creation behavior.
	CreateChargeFunc func(ctx context.Context, params CreateChargeParams) (*ChargeResult, error)

	// GetStatusFunc allows customizing status lookup behavior.
	GetStatusFunc func(ctx context.Context, intentID string) (ChargeStatus, error)

	// CreateRefundFunc allows customizing refund behavior.
	CreateRefundFunc func(ctx context.Context, params CreateRefundParams) (*RefundResult, error)

	// Charges stores created charges keyed by intent ID.
	Charges map[string]*ChargeResult

	// Refunds stores created refunds keyed by refund ID.
	Refunds map[string]*RefundResult

	// byIdempotencyKey maps idempotency keys to intent IDs so retried
	// CreateCharge calls return the original charge.
	byIdempotencyKey map[string]string

	// CallLog tracks method calls for test assertions.
	CallLog []string
}

// NewMockGateway creates a new mock payment gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Charges:          make(map[string]*ChargeResult),
		Refunds:          make(map[string]*RefundResult),
		byIdempotencyKey: make(map[string]string),
		CallLog:          []string{},
	}
}

// Name returns the gateway name used to scope payment references.
func (m *MockGateway) Name() string {
	return GatewayMock
}

// CreateCharge creates a mock charge in pending status.
func (m *MockGateway) CreateCharge(ctx context.Context, params CreateChargeParams) (*ChargeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateCharge(%d, %s)", params.AmountCents, params.Currency))

	if m.CreateChargeFunc != nil {
		return m.CreateChargeFunc(ctx, params)
	}

	if params.IdempotencyKey != "" {
		if intentID, ok := m.byIdempotencyKey[params.IdempotencyKey]; ok {
			return m.Charges[intentID], nil
		}
	}

	charge := &ChargeResult{
		IntentID:    "pi_" + uuid.New().String(),
		Status:      StatusPending,
		AmountCents: params.AmountCents,
		Currency:    params.Currency,
		CreatedAt:   time.Now(),
	}

	m.Charges[charge.IntentID] = charge
	if params.IdempotencyKey != "" {
		m.byIdempotencyKey[params.IdempotencyKey] = charge.IntentID
	}
	return charge, nil
}

// GetStatus retrieves a mock charge's status.
func (m *MockGateway) GetStatus(ctx context.Context, intentID string) (ChargeStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, fmt.Sprintf("GetStatus(%s)", intentID))

	if m.GetStatusFunc != nil {
		return m.GetStatusFunc(ctx, intentID)
	}

	charge, exists := m.Charges[intentID]
	if !exists {
		return "", ErrChargeNotFound
	}
	return charge.Status, nil
}

// CreateRefund creates a mock refund against an existing charge.
func (m *MockGateway) CreateRefund(ctx context.Context, params CreateRefundParams) (*RefundResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateRefund(%s, %d)", params.IntentID, params.AmountCents))

	if m.CreateRefundFunc != nil {
		return m.CreateRefundFunc(ctx, params)
	}

	charge, exists := m.Charges[params.IntentID]
	if !exists {
		return nil, ErrChargeNotFound
	}

	amount := params.AmountCents
	if amount == 0 {
		amount = charge.AmountCents
	}

	refund := &RefundResult{
		RefundID:    "re_" + uuid.New().String(),
		IntentID:    params.IntentID,
		Status:      StatusSucceeded,
		AmountCents: amount,
		CreatedAt:   time.Now(),
	}

	m.Refunds[refund.RefundID] = refund
	return refund, nil
}

// SimulateSucceeded moves a charge to succeeded status.
// Used in tests to simulate successful payment confirmation.
func (m *MockGateway) SimulateSucceeded(intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	charge, exists := m.Charges[intentID]
	if !exists {
		return ErrChargeNotFound
	}

	charge.Status = StatusSucceeded
	return nil
}

// SimulateFailed moves a charge to failed status with a failure code.
// Used in tests to simulate declines.
func (m *MockGateway) SimulateFailed(intentID, code, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	charge, exists := m.Charges[intentID]
	if !exists {
		return ErrChargeNotFound
	}

	charge.Status = StatusFailed
	charge.FailureCode = code
	charge.FailureMessage = message
	return nil
}
