package context

import "context"

// ReservationIDKey is the context key for credit reservation IDs.
const ReservationIDKey contextKey = "reservation_id"

// WithReservationID tags ledger calls made for one upload with its reservation.
func WithReservationID(ctx context.Context, reservationID string) context.Context {
	return context.WithValue(ctx, ReservationIDKey, reservationID)
}

// GetReservationID retrieves the reservation ID from the context.
// Returns an empty string if no reservation ID is present.
func GetReservationID(ctx context.Context) string {
	if id, ok := ctx.Value(ReservationIDKey).(string); ok {
		return id
	}
	return ""
}
