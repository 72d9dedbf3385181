// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a reservation reaches the
// confirmed status.  It contains enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type ReservationConfirmedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	TableID       uint64 `json:"table_id"`
	TableNumber   string `json:"table_number"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Guests        uint32 `json:"guests"`
	ConfirmedAt   string `json:"confirmed_at"`
}
