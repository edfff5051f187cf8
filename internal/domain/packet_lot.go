package domain

import (
	"fmt"
	"time"
)

// PacketLot is one physical seed packet (or batch of packets) for a plant.
type PacketLot struct {
	ID        string    `json:"id"`
	PlantID   string    `json:"plant_id"`
	LotCode   string    `json:"lot_code,omitempty"`
	Quantity  int       `json:"quantity"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PacketLotWithPhotos is a packet lot together with its photo references.
type PacketLotWithPhotos struct {
	PacketLot
	Photos []Photo `json:"photos"`
}

// PhotoType classifies what a packet photo shows.
type PhotoType string

// Photo types.
const (
	PhotoTypeFront   PhotoType = "front"
	PhotoTypeBack    PhotoType = "back"
	PhotoTypeCloseup PhotoType = "closeup"
	PhotoTypePlant   PhotoType = "plant"
)

// Valid reports whether t is a known photo type.
func (t PhotoType) Valid() bool {
	switch t {
	case PhotoTypeFront, PhotoTypeBack, PhotoTypeCloseup, PhotoTypePlant:
		return true
	}
	return false
}

// ParsePhotoType parses a photo type string.
func ParsePhotoType(s string) (PhotoType, error) {
	t := PhotoType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown photo type %q", s)
	}
	return t, nil
}

// Photo is a reference to an image of a packet lot.
// Only the URI is stored; the image itself lives wherever the client put it.
type Photo struct {
	ID          string    `json:"id"`
	PacketLotID string    `json:"packet_lot_id"`
	URI         string    `json:"uri"`
	Type        PhotoType `json:"type"`
	BlurHash    string    `json:"blur_hash,omitempty"` // Placeholder, only when URI is a readable local file
	CreatedAt   time.Time `json:"created_at"`
}
