package reconcile

import (
	"context"

	"go.uber.org/zap"

	"wompi_webhook/internal/dedup"
	"wompi_webhook/internal/wompi"
)

// Service runs resolution and write-back for one validated notification.
type Service struct {
	resolver     *Resolver
	orchestrator *Orchestrator
	logger       *zap.Logger
}

// NewService creates a Service over store using DefaultAliases.
func NewService(store Store, guard dedup.Guard, logger *zap.Logger) *Service {
	return NewServiceWithAliases(store, DefaultAliases, guard, logger)
}

// NewServiceWithAliases is NewService with a custom field spelling table.
func NewServiceWithAliases(store Store, aliases Aliases, guard dedup.Guard, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		resolver:     NewResolver(store, aliases, logger),
		orchestrator: NewOrchestrator(store, aliases, guard, logger),
		logger:       logger,
	}
}

// Process resolves n against the store and writes the result back. The
// returned Ack is always a success; stage failures show up only as false
// musaUpdated or ventaCreated flags.
func (s *Service) Process(ctx context.Context, n *wompi.Notification) Ack {
	s.logger.Debug("payment snapshot", zap.Any("snapshot", n.Snapshot()))

	res := s.resolver.Resolve(ctx, n)
	out := s.orchestrator.Apply(ctx, n, res)

	s.logger.Info("notification processed",
		zap.String("reference", n.Reference),
		zap.String("status", n.Status),
		zap.String("update", string(out.Update.State)),
		zap.String("update_reason", out.Update.Reason),
		zap.String("sale", string(out.Sale.State)),
		zap.String("sale_reason", out.Sale.Reason),
	)

	return Ack{
		Success:       true,
		Message:       "webhook processed",
		TransactionID: n.TransactionID,
		Reference:     n.Reference,
		Status:        n.Status,
		VentaID:       optional(out.SaleID),
		MusaID:        optional(res.CustomerID),
		MusaUpdated:   out.CustomerUpdated(),
		VentaCreated:  out.SaleCreated(),
	}
}
