package repository // repository defines data access for admissions

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/hospital-bed-management/internal/model"
)

// AdmissionRepo provides methods to work with admissions in the
// database.  Admissions are created by the intake workflow; this
// service only reads them and writes the discharge fields during a
// release, so the write surface here is deliberately narrow.
type AdmissionRepo struct {
    db *sql.DB
}

// NewAdmissionRepo constructs an AdmissionRepo with the given DB handle.
func NewAdmissionRepo(db *sql.DB) *AdmissionRepo {
    return &AdmissionRepo{db: db}
}

const admissionColumns = `id, patient_id, status, admission_date, discharge_date, discharge_summary, discharge_type, length_of_stay_days, created_at, updated_at`

func scanAdmission(row *sql.Row) (*model.Admission, error) {
    var a model.Admission
    err := row.Scan(
        &a.ID, &a.PatientID, &a.Status, &a.AdmissionDate,
        &a.DischargeDate, &a.DischargeSummary, &a.DischargeType, &a.LengthOfStayDays,
        &a.CreatedAt, &a.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrAdmissionNotFound
        }
        return nil, err
    }
    return &a, nil
}

// GetByID retrieves an admission by its id.
func (r *AdmissionRepo) GetByID(ctx context.Context, id uint64) (*model.Admission, error) {
    const q = `SELECT ` + admissionColumns + ` FROM admissions WHERE id = ?`
    return scanAdmission(r.db.QueryRowContext(ctx, q, id))
}

// GetForUpdateTx loads an admission inside the supplied transaction
// with a row lock so that a release and a concurrent transfer on the
// same admission serialize.  The caller owns commit/rollback.
func (r *AdmissionRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Admission, error) {
    const q = `SELECT ` + admissionColumns + ` FROM admissions WHERE id = ? FOR UPDATE`
    return scanAdmission(tx.QueryRowContext(ctx, q, id))
}

// DischargeTx writes the discharge fields of an admission within the
// provided transaction: final status, discharge date, summary, type
// and computed length of stay in whole days.
func (r *AdmissionRepo) DischargeTx(ctx context.Context, tx *sql.Tx, id uint64, status string, dischargeDate time.Time, summary, dischargeType string, lengthOfStayDays uint32) error {
    const q = `UPDATE admissions
	           SET status = ?, discharge_date = ?, discharge_summary = ?, discharge_type = ?, length_of_stay_days = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
    res, err := tx.ExecContext(ctx, q, status, dischargeDate.UTC(), summary, dischargeType, lengthOfStayDays, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrAdmissionNotFound
    }
    return nil
}
