package rewards

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskOrderPoints is the asynq task type for posting earned order points.
const TaskOrderPoints = "rewards:order_points"

// OrderPointsPayload carries the data needed to post points for an order.
type OrderPointsPayload struct {
	UserID  string `json:"userId"`
	OrderID string `json:"orderId"`
	Points  int64  `json:"points"`
}

// NewOrderPointsTask builds the asynq task enqueued at checkout.
func NewOrderPointsTask(p OrderPointsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal order points payload: %w", err)
	}
	return asynq.NewTask(TaskOrderPoints, data, asynq.MaxRetry(5)), nil
}

// HandleOrderPoints posts the order's earned points. Replays are safe:
// the order id keys the ledger entry, so a duplicate delivery no-ops.
func (s *Service) HandleOrderPoints(ctx context.Context, t *asynq.Task) error {
	var p OrderPointsPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal order points payload: %w", err)
	}
	if p.Points <= 0 {
		return nil
	}
	uniqueKey := fmt.Sprintf("%s:%s", ActionOrderPoints, p.OrderID)
	_, err := s.Apply(ctx, p.UserID, ActionOrderPoints, p.Points, p.OrderID, uniqueKey)
	return err
}
