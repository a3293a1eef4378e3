package collection

import "context"

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing collection operation.
type OperationLog struct {
	Operation      string
	OwnerID        OwnerID
	DeckID         string
	InventoryRowID string
	ReservationID  string
	Quantity       int
	AmountCents    PriceCents
	Status         string
	Error          error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithFillMode selects STRICT or PERMISSIVE slot-cap enforcement.
func WithFillMode(mode FillMode) ServiceOption {
	return func(service *Service) {
		service.fillMode = mode
	}
}

// WithFolderRestoreOnRelease makes ReleaseDeck restore each row's folder to
// the reservation's original-folder snapshot when the row has no other
// reservations. Off by default.
func WithFolderRestoreOnRelease() ServiceOption {
	return func(service *Service) {
		service.restoreFolderOnRelease = true
	}
}
