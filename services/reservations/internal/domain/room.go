package domain

import (
	"fmt"
	"strings"

	"github.com/diagnosis/luxsuv-hotel/internal/utils"
)

type RoomType string

const (
	RoomSingle RoomType = "Single"
	RoomDouble RoomType = "Double"
	RoomSuite  RoomType = "Suite"
)

// Room is static inventory. Whether it is free is never stored here; it is
// derived from the ledger for a given stay.
type Room struct {
	Number            int      `json:"number"`
	Type              RoomType `json:"type"`
	NightlyPriceCents int64    `json:"nightly_price_cents"`
}

func NewRoom(number int, roomType RoomType, nightlyPriceCents int64) (Room, error) {
	if number <= 0 {
		return Room{}, fmt.Errorf("%w: room number must be positive", ErrInvalidRoom)
	}
	if nightlyPriceCents < 0 {
		return Room{}, fmt.Errorf("%w: nightly price must not be negative", ErrInvalidRoom)
	}
	roomType = RoomType(strings.TrimSpace(string(roomType)))
	if roomType == "" {
		return Room{}, fmt.Errorf("%w: room type is required", ErrInvalidRoom)
	}
	return Room{Number: number, Type: roomType, NightlyPriceCents: nightlyPriceCents}, nil
}

// PriceFor is nights x nightly price.
func (r Room) PriceFor(stay DateRange) int64 {
	return int64(stay.Nights()) * r.NightlyPriceCents
}

func (r Room) String() string {
	return fmt.Sprintf("Room %d (%s) - %s per night", r.Number, r.Type, utils.FormatCents(r.NightlyPriceCents))
}
