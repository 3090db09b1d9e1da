package repository

import (
	"iter"
	"slices"
	"sync"

	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
)

// RoomRegistry is the hotel's room inventory. It knows nothing about
// reservations; removal safety is checked by the caller against the ledger.
type RoomRegistry interface {
	Add(room domain.Room) error
	Remove(number int) (domain.Room, error)
	Get(number int) (domain.Room, error)
	Exists(number int) bool
	All() iter.Seq[domain.Room]
	Len() int
}

type roomRegistry struct {
	mu    sync.RWMutex
	rooms map[int]domain.Room
	order []int
}

func NewRoomRegistry() RoomRegistry {
	return &roomRegistry{rooms: make(map[int]domain.Room)}
}

func (r *roomRegistry) Add(room domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room.Number]; ok {
		return domain.ErrDuplicateRoom
	}
	r.rooms[room.Number] = room
	r.order = append(r.order, room.Number)
	return nil
}

func (r *roomRegistry) Remove(number int) (domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[number]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	delete(r.rooms, number)
	if i := slices.Index(r.order, number); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return room, nil
}

func (r *roomRegistry) Get(number int) (domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[number]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return room, nil
}

func (r *roomRegistry) Exists(number int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[number]
	return ok
}

// All yields rooms in insertion order. Each range works on a snapshot taken
// when iteration starts.
func (r *roomRegistry) All() iter.Seq[domain.Room] {
	return func(yield func(domain.Room) bool) {
		r.mu.RLock()
		snapshot := make([]domain.Room, 0, len(r.order))
		for _, n := range r.order {
			snapshot = append(snapshot, r.rooms[n])
		}
		r.mu.RUnlock()

		for _, room := range snapshot {
			if !yield(room) {
				return
			}
		}
	}
}

func (r *roomRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
