package repository // repository defines read-only reporting queries

import (
    "context"
    "database/sql"
    "time"
)

// ReportRepo bundles the read-only aggregations over beds, the status
// log and assignment history.  Reporting has no state of its own and
// never takes locks; whatever snapshot the database returns is good
// enough for dashboards.
type ReportRepo struct {
    db *sql.DB
}

// NewReportRepo constructs a ReportRepo with the given DB handle.
func NewReportRepo(db *sql.DB) *ReportRepo {
    return &ReportRepo{db: db}
}

// FloorOccupancy summarizes bed usage on one floor.
type FloorOccupancy struct {
    FloorNumber   uint32  `json:"floor_number"`
    TotalBeds     uint32  `json:"total_beds"`
    OccupiedBeds  uint32  `json:"occupied_beds"`
    OccupancyRate float64 `json:"occupancy_rate"`
}

// OccupancySummary is the hospital-wide view returned by the
// occupancy report: counts per status plus a per-floor breakdown.
type OccupancySummary struct {
    TotalBeds     uint32           `json:"total_beds"`
    ByStatus      map[string]uint32 `json:"by_status"`
    OccupancyRate float64          `json:"occupancy_rate"`
    Floors        []FloorOccupancy `json:"floors"`
}

// Occupancy computes the current occupancy summary.
func (r *ReportRepo) Occupancy(ctx context.Context) (*OccupancySummary, error) {
    sum := &OccupancySummary{ByStatus: make(map[string]uint32)}

    const statusQ = `SELECT status, COUNT(*) FROM beds GROUP BY status`
    rows, err := r.db.QueryContext(ctx, statusQ)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var status string
        var count uint32
        if err := rows.Scan(&status, &count); err != nil {
            return nil, err
        }
        sum.ByStatus[status] = count
        sum.TotalBeds += count
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if sum.TotalBeds > 0 {
        sum.OccupancyRate = float64(sum.ByStatus["occupied"]) / float64(sum.TotalBeds)
    }

    const floorQ = `SELECT r.floor_number,
	                       COUNT(*),
	                       SUM(CASE WHEN b.status = 'occupied' THEN 1 ELSE 0 END)
	                FROM beds b
	                JOIN rooms r ON r.id = b.room_id
	                GROUP BY r.floor_number
	                ORDER BY r.floor_number`
    frows, err := r.db.QueryContext(ctx, floorQ)
    if err != nil {
        return nil, err
    }
    defer frows.Close()
    for frows.Next() {
        var f FloorOccupancy
        if err := frows.Scan(&f.FloorNumber, &f.TotalBeds, &f.OccupiedBeds); err != nil {
            return nil, err
        }
        if f.TotalBeds > 0 {
            f.OccupancyRate = float64(f.OccupiedBeds) / float64(f.TotalBeds)
        }
        sum.Floors = append(sum.Floors, f)
    }
    if err := frows.Err(); err != nil {
        return nil, err
    }
    return sum, nil
}

// TurnoverSummary reports discharge volume over a trailing window.
type TurnoverSummary struct {
    WindowDays       int     `json:"window_days"`
    Releases         uint32  `json:"releases"`
    AvgLengthOfStay  float64 `json:"avg_length_of_stay_days"`
    ReleasesPerDay   float64 `json:"releases_per_day"`
}

// Turnover counts assignments released in the last N days and the
// average length of stay of admissions discharged in that window.
func (r *ReportRepo) Turnover(ctx context.Context, days int) (*TurnoverSummary, error) {
    if days <= 0 {
        days = 7
    }
    sum := &TurnoverSummary{WindowDays: days}

    const releasesQ = `SELECT COUNT(*)
	                   FROM bed_assignments
	                   WHERE released_at IS NOT NULL
	                     AND released_at >= UTC_TIMESTAMP() - INTERVAL ? DAY`
    if err := r.db.QueryRowContext(ctx, releasesQ, days).Scan(&sum.Releases); err != nil {
        return nil, err
    }

    const losQ = `SELECT COALESCE(AVG(length_of_stay_days), 0)
	              FROM admissions
	              WHERE status IN ('discharged', 'deceased')
	                AND discharge_date >= UTC_TIMESTAMP() - INTERVAL ? DAY`
    if err := r.db.QueryRowContext(ctx, losQ, days).Scan(&sum.AvgLengthOfStay); err != nil {
        return nil, err
    }

    sum.ReleasesPerDay = float64(sum.Releases) / float64(days)
    return sum, nil
}

// AttentionBed is a bed waiting on housekeeping or maintenance along
// with how long it has been waiting, derived from its latest status
// log entry.
type AttentionBed struct {
    BedID       uint64    `json:"bed_id"`
    BedNumber   uint32    `json:"bed_number"`
    RoomNumber  string    `json:"room_number"`
    FloorNumber uint32    `json:"floor_number"`
    Status      string    `json:"status"`
    Since       time.Time `json:"since"`
}

// AttentionQueue lists beds currently in cleaning or maintenance,
// longest-waiting first.  Since falls back to the bed's updated_at
// when the bed predates the status log.
func (r *ReportRepo) AttentionQueue(ctx context.Context) ([]AttentionBed, error) {
    const q = `SELECT b.id, b.bed_number, r.room_number, r.floor_number, b.status,
	                  COALESCE(
	                      (SELECT MAX(l.created_at) FROM bed_status_logs l
	                       WHERE l.bed_id = b.id AND l.new_status = b.status),
	                      b.updated_at)
	           FROM beds b
	           JOIN rooms r ON r.id = b.room_id
	           WHERE b.status IN ('cleaning', 'maintenance')
	           ORDER BY 6 ASC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    result := make([]AttentionBed, 0)
    for rows.Next() {
        var a AttentionBed
        if err := rows.Scan(&a.BedID, &a.BedNumber, &a.RoomNumber, &a.FloorNumber, &a.Status, &a.Since); err != nil {
            return nil, err
        }
        result = append(result, a)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}
