package repository // repository defines data access for rooms

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/hospital-bed-management/internal/model"
)

// RoomRepo provides methods to work with rooms in the database.
// Rooms are static inventory; there is no delete path.
type RoomRepo struct {
    db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo {
    return &RoomRepo{db: db}
}

// Create inserts a single room record. On success the room's ID is populated.
func (r *RoomRepo) Create(ctx context.Context, m *model.Room) error {
    const q = `INSERT INTO rooms (room_number, floor_number, ward, is_active)
	           VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, m.RoomNumber, m.FloorNumber, m.Ward, m.IsActive)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    m.ID = uint64(id)
    return nil
}

// GetByID retrieves a room by its id.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
    const q = `SELECT id, room_number, floor_number, ward, is_active, created_at, updated_at
	           FROM rooms WHERE id = ?`
    var m model.Room
    err := r.db.QueryRowContext(ctx, q, id).
        Scan(&m.ID, &m.RoomNumber, &m.FloorNumber, &m.Ward, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrRoomNotFound
        }
        return nil, err
    }
    return &m, nil
}

// List retrieves all rooms ordered by floor then room number.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
    const q = `SELECT id, room_number, floor_number, ward, is_active, created_at, updated_at
	           FROM rooms
	           ORDER BY floor_number, room_number`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var result []model.Room
    for rows.Next() {
        var m model.Room
        if err := rows.Scan(&m.ID, &m.RoomNumber, &m.FloorNumber, &m.Ward, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
            return nil, err
        }
        result = append(result, m)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}
