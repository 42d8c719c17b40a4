package repository // repository defines data access for beds

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/hospital-bed-management/internal/model"
)

// BedDetail is a bed together with its room context.  It is the shape
// returned by read endpoints and by the engine after a successful
// transition so that callers never need a second lookup to render
// floor views.
type BedDetail struct {
    ID                    uint64     `json:"id"`
    RoomID                uint64     `json:"room_id"`
    RoomNumber            string     `json:"room_number"`
    FloorNumber           uint32     `json:"floor_number"`
    Ward                  string     `json:"ward"`
    BedNumber             uint32     `json:"bed_number"`
    BedType               string     `json:"bed_type"`
    Status                string     `json:"status"`
    MaintenanceReportedAt *time.Time `json:"maintenance_reported_at,omitempty"`
    LastCleanedAt         *time.Time `json:"last_cleaned_at,omitempty"`
}

// BedRepo provides methods to work with beds in the database.
type BedRepo struct {
    db *sql.DB
}

// NewBedRepo constructs a BedRepo with the given DB handle.
func NewBedRepo(db *sql.DB) *BedRepo {
    return &BedRepo{db: db}
}

// DB exposes the underlying pool so that callers owning a unit of work
// can begin a transaction spanning several repositories.
func (r *BedRepo) DB() *sql.DB { return r.db }

const bedColumns = `id, room_id, bed_number, bed_type, status, maintenance_reported_at, last_cleaned_at, created_at, updated_at`

func scanBed(row *sql.Row) (*model.Bed, error) {
    var b model.Bed
    err := row.Scan(
        &b.ID, &b.RoomID, &b.BedNumber, &b.BedType, &b.Status,
        &b.MaintenanceReportedAt, &b.LastCleanedAt, &b.CreatedAt, &b.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrBedNotFound
        }
        return nil, err
    }
    return &b, nil
}

// Create inserts a single bed record. On success the bed's ID is
// populated. New beds always start in the available status.
func (r *BedRepo) Create(ctx context.Context, b *model.Bed) error {
    const q = `INSERT INTO beds (room_id, bed_number, bed_type, status)
	           VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, b.RoomID, b.BedNumber, b.BedType, model.BedAvailable)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    b.Status = model.BedAvailable
    return nil
}

// CreateBulk inserts multiple beds for one room in a single statement.
func (r *BedRepo) CreateBulk(ctx context.Context, beds []model.Bed) error {
    if len(beds) == 0 {
        return nil
    }
    query := `INSERT INTO beds (room_id, bed_number, bed_type, status) VALUES `
    args := make([]interface{}, 0, len(beds)*4)
    for i, b := range beds {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        args = append(args, b.RoomID, b.BedNumber, b.BedType, model.BedAvailable)
    }
    _, err := r.db.ExecContext(ctx, query, args...)
    return err
}

// GetByID retrieves a bed by its id without room context.
func (r *BedRepo) GetByID(ctx context.Context, id uint64) (*model.Bed, error) {
    const q = `SELECT ` + bedColumns + ` FROM beds WHERE id = ?`
    return scanBed(r.db.QueryRowContext(ctx, q, id))
}

// GetForUpdateTx loads a bed inside the supplied transaction with a row
// lock (SELECT ... FOR UPDATE).  Every status mutation goes through
// this read so that two concurrent writers serialize on the bed row
// and the loser observes the winner's committed status.  The caller
// owns commit/rollback.
func (r *BedRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Bed, error) {
    const q = `SELECT ` + bedColumns + ` FROM beds WHERE id = ? FOR UPDATE`
    return scanBed(tx.QueryRowContext(ctx, q, id))
}

// UpdateStatusTx sets the bed's status within the provided transaction.
func (r *BedRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
    const q = `UPDATE beds SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
    res, err := tx.ExecContext(ctx, q, status, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrBedNotFound
    }
    return nil
}

// StampMaintenanceReportedTx records when the bed was flagged for
// maintenance.  Called together with the status update in one tx.
func (r *BedRepo) StampMaintenanceReportedTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
    const q = `UPDATE beds SET maintenance_reported_at = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, at.UTC(), id)
    return err
}

// StampLastCleanedTx records when the bed was last marked cleaned.
func (r *BedRepo) StampLastCleanedTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
    const q = `UPDATE beds SET last_cleaned_at = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, at.UTC(), id)
    return err
}

const bedDetailSelect = `SELECT b.id, b.room_id, r.room_number, r.floor_number, r.ward,
	                      b.bed_number, b.bed_type, b.status,
	                      b.maintenance_reported_at, b.last_cleaned_at
	               FROM beds b
	               JOIN rooms r ON r.id = b.room_id`

func scanBedDetail(row *sql.Row) (*BedDetail, error) {
    var d BedDetail
    err := row.Scan(
        &d.ID, &d.RoomID, &d.RoomNumber, &d.FloorNumber, &d.Ward,
        &d.BedNumber, &d.BedType, &d.Status,
        &d.MaintenanceReportedAt, &d.LastCleanedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrBedNotFound
        }
        return nil, err
    }
    return &d, nil
}

// GetDetail retrieves a bed together with its room and floor context.
func (r *BedRepo) GetDetail(ctx context.Context, id uint64) (*BedDetail, error) {
    const q = bedDetailSelect + ` WHERE b.id = ?`
    return scanBedDetail(r.db.QueryRowContext(ctx, q, id))
}

// GetDetailTx is GetDetail within an existing transaction, used by the
// engine to return the post-transition bed before committing.
func (r *BedRepo) GetDetailTx(ctx context.Context, tx *sql.Tx, id uint64) (*BedDetail, error) {
    const q = bedDetailSelect + ` WHERE b.id = ?`
    return scanBedDetail(tx.QueryRowContext(ctx, q, id))
}

// ListByRoom retrieves all beds of a room ordered by bed number.
func (r *BedRepo) ListByRoom(ctx context.Context, roomID uint64) ([]model.Bed, error) {
    const q = `SELECT ` + bedColumns + ` FROM beds WHERE room_id = ? ORDER BY bed_number`
    rows, err := r.db.QueryContext(ctx, q, roomID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var result []model.Bed
    for rows.Next() {
        var b model.Bed
        if err := rows.Scan(
            &b.ID, &b.RoomID, &b.BedNumber, &b.BedType, &b.Status,
            &b.MaintenanceReportedAt, &b.LastCleanedAt, &b.CreatedAt, &b.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        result = append(result, b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}

// UpdateTypeByID changes the bed_type of a bed.  Provisioning edits
// never touch the status column; only the engine writes status.
func (r *BedRepo) UpdateTypeByID(ctx context.Context, id uint64, bedType string) error {
    const q = `UPDATE beds SET bed_type = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, bedType, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrBedNotFound
    }
    return nil
}
