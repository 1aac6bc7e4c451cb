package interfaces

import (
	"context"

	"github.com/psteco/hnat/pkg/domain/model"
)

// Notifier delivers run notifications to an external channel
type Notifier interface {
	Notify(ctx context.Context, n *model.Notification) error
}
