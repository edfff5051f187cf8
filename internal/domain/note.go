package domain

import "time"

// Note is a free-text note attached to a plant, a packet lot, or neither.
type Note struct {
	ID          string    `json:"id"`
	PlantID     *string   `json:"plant_id,omitempty"`
	PacketLotID *string   `json:"packet_lot_id,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}
