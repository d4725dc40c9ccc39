package ports

import (
	"context"

	"github.com/pedalcraft/commerce-backend/internal/core/domain/order"
)

// EmailService sends transactional mail. Failures are logged by callers and
// never fail the triggering operation.
type EmailService interface {
	SendOrderConfirmation(ctx context.Context, toEmail, toName string, o *order.Order) error
}
