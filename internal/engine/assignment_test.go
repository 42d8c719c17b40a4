package engine

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/hospital-bed-management/internal/model"
    "github.com/iliyamo/hospital-bed-management/internal/repository"
)

func newAssignmentEngine(t *testing.T, n Notifier) (*AssignmentEngine, sqlmock.Sqlmock, func()) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    e := NewAssignmentEngine(db,
        repository.NewBedRepo(db),
        repository.NewAdmissionRepo(db),
        repository.NewAssignmentRepo(db),
        repository.NewStatusLogRepo(db),
        n, zerolog.Nop())
    return e, mock, func() { db.Close() }
}

func admissionRows(id int64, status string, admitted time.Time) *sqlmock.Rows {
    now := time.Now()
    return sqlmock.NewRows([]string{"id", "patient_id", "status", "admission_date", "discharge_date", "discharge_summary", "discharge_type", "length_of_stay_days", "created_at", "updated_at"}).
        AddRow(id, 100, status, admitted, nil, nil, nil, nil, now, now)
}

func assignmentRows(id, admissionID, bedID int64, assignedAt time.Time) *sqlmock.Rows {
    now := time.Now()
    return sqlmock.NewRows([]string{"id", "admission_id", "bed_id", "assigned_by", "assigned_at", "released_at", "is_current", "reason", "created_at", "updated_at"}).
        AddRow(id, admissionID, bedID, 7, assignedAt, nil, true, nil, now, now)
}

func TestLengthOfStayDays(t *testing.T) {
    day := func(d int, hour int) time.Time {
        return time.Date(2026, 8, 1+d, hour, 0, 0, 0, time.UTC)
    }
    cases := []struct {
        name      string
        admitted  time.Time
        discharge time.Time
        want      uint32
    }{
        {"same instant", day(0, 10), day(0, 10), 1},
        {"same day later", day(0, 8), day(0, 23), 1},
        {"just past midnight", day(0, 23), day(1, 0), 1},
        {"three days morning discharge", day(0, 14), day(3, 9), 3},
        {"three days late discharge", day(0, 1), day(3, 23), 3},
        {"ten days", day(0, 12), day(10, 12), 10},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            assert.Equal(t, tc.want, lengthOfStayDays(tc.admitted, tc.discharge))
        })
    }
}

func TestAssignHappyPath(t *testing.T) {
    e, mock, done := newAssignmentEngine(t, nil)
    defer done()

    admitted := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

    mock.ExpectBegin()
    mock.ExpectQuery("FROM beds WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(1)).
        WillReturnRows(bedRows(1, model.BedAvailable))
    mock.ExpectQuery("FROM admissions WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(5)).
        WillReturnRows(admissionRows(5, model.AdmissionActive, admitted))
    mock.ExpectQuery("admission_id = (.+) AND is_current = TRUE").
        WithArgs(int64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"id"})) // no current assignment
    mock.ExpectExec("UPDATE beds SET status").
        WithArgs(model.BedOccupied, int64(1)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO bed_assignments").
        WithArgs(int64(5), int64(1), int64(7), sqlmock.AnyArg(), nil).
        WillReturnResult(sqlmock.NewResult(31, 1))
    mock.ExpectExec("INSERT INTO bed_status_logs").
        WithArgs(int64(1), model.BedAvailable, model.BedOccupied, int64(7), "Assigned to admission ID: 5", int64(5), int64(31)).
        WillReturnResult(sqlmock.NewResult(41, 1))
    mock.ExpectQuery("JOIN rooms r ON r.id = b.room_id").
        WithArgs(int64(1)).
        WillReturnRows(detailRows(1, model.BedOccupied))
    mock.ExpectCommit()

    res, err := e.Assign(context.Background(), 5, 1, 7)
    require.NoError(t, err)
    assert.Equal(t, uint64(31), res.Assignment.ID)
    assert.True(t, res.Assignment.IsCurrent)
    assert.Equal(t, model.BedOccupied, res.Bed.Status)
    assert.Nil(t, res.OldBed)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignAcceptsReservedBed(t *testing.T) {
    e, mock, done := newAssignmentEngine(t, nil)
    defer done()

    admitted := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

    mock.ExpectBegin()
    mock.ExpectQuery("FROM beds WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(1)).
        WillReturnRows(bedRows(1, model.BedReserved))
    mock.ExpectQuery("FROM admissions WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(5)).
        WillReturnRows(admissionRows(5, model.AdmissionActive, admitted))
    mock.ExpectQuery("admission_id = (.+) AND is_current = TRUE").
        WithArgs(int64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))
    mock.ExpectExec("UPDATE beds SET status").
        WithArgs(model.BedOccupied, int64(1)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO bed_assignments").
        WithArgs(int64(5), int64(1), int64(7), sqlmock.AnyArg(), nil).
        WillReturnResult(sqlmock.NewResult(31, 1))
    mock.ExpectExec("INSERT INTO bed_status_logs").
        WithArgs(int64(1), model.BedReserved, model.BedOccupied, int64(7), "Assigned to admission ID: 5", int64(5), int64(31)).
        WillReturnResult(sqlmock.NewResult(41, 1))
    mock.ExpectQuery("JOIN rooms r ON r.id = b.room_id").
        WithArgs(int64(1)).
        WillReturnRows(detailRows(1, model.BedOccupied))
    mock.ExpectCommit()

    _, err := e.Assign(context.Background(), 5, 1, 7)
    require.NoError(t, err)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignBedNotAvailable(t *testing.T) {
    for _, current := range []string{model.BedOccupied, model.BedCleaning, model.BedMaintenance} {
        t.Run(current, func(t *testing.T) {
            e, mock, done := newAssignmentEngine(t, nil)
            defer done()

            mock.ExpectBegin()
            mock.ExpectQuery("FROM beds WHERE id = (.+) FOR UPDATE").
                WithArgs(int64(1)).
                WillReturnRows(bedRows(1, current))
            mock.ExpectRollback()

            _, err := e.Assign(context.Background(), 5, 1, 7)
            require.Error(t, err)
            assert.Equal(t, KindConflict, KindOf(err))

            var derr *Error
            require.True(t, errors.As(err, &derr))
            assert.Contains(t, derr.Message, "Please select an available bed.")
        })
    }
}

func TestAssignAdmissionAlreadyDischarged(t *testing.T) {
    e, mock, done := newAssignmentEngine(t, nil)
    defer done()

    admitted := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

    mock.ExpectBegin()
    mock.ExpectQuery("FROM beds WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(1)).
        WillReturnRows(bedRows(1, model.BedAvailable))
    mock.ExpectQuery("FROM admissions WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(5)).
        WillReturnRows(admissionRows(5, model.AdmissionDischarged, admitted))
    mock.ExpectRollback()

    _, err := e.Assign(context.Background(), 5, 1, 7)
    require.Error(t, err)
    assert.Equal(t, KindConflict, KindOf(err))

    var derr *Error
    require.True(t, errors.As(err, &derr))
    assert.Equal(t, "Patient has already been discharged.", derr.Message)
}

func TestAssignAdmissionNotFound(t *testing.T) {
    e, mock, done := newAssignmentEngine(t, nil)
    defer done()

    mock.ExpectBegin()
    mock.ExpectQuery("FROM beds WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(1)).
        WillReturnRows(bedRows(1, model.BedAvailable))
    mock.ExpectQuery("FROM admissions WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))
    mock.ExpectRollback()

    _, err := e.Assign(context.Background(), 5, 1, 7)
    require.Error(t, err)
    assert.Equal(t, KindNotFound, KindOf(err))
}

// Assigning an admission that already occupies a bed vacates the old
// bed to cleaning in the same transaction.
func TestAssignExistingAssignmentBecomesTransfer(t *testing.T) {
    e, mock, done := newAssignmentEngine(t, nil)
    defer done()

    admitted := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
    assignedAt := time.Date(2026, 8, 25, 11, 0, 0, 0, time.UTC)

    mock.ExpectBegin()
    mock.ExpectQuery("FROM beds WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(2)).
        WillReturnRows(bedRows(2, model.BedAvailable))
    mock.ExpectQuery("FROM admissions WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(5)).
        WillReturnRows(admissionRows(5, model.AdmissionActive, admitted))
    mock.ExpectQuery("admission_id = (.+) AND is_current = TRUE").
        WithArgs(int64(5)).
        WillReturnRows(assignmentRows(31, 5, 1, assignedAt))
    mock.ExpectQuery("FROM beds WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(1)).
        WillReturnRows(bedRows(1, model.BedOccupied))
    mock.ExpectExec("UPDATE bed_assignments").
        WithArgs(sqlmock.AnyArg(), nil, int64(31)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("UPDATE beds SET status").
        WithArgs(model.BedCleaning, int64(1)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO bed_status_logs").
        WithArgs(int64(1), model.BedOccupied, model.BedCleaning, int64(7), "Transfer to bed 2", int64(5), int64(31)).
        WillReturnResult(sqlmock.NewResult(42, 1))
    mock.ExpectQuery("JOIN rooms r ON r.id = b.room_id").
        WithArgs(int64(1)).
        WillReturnRows(detailRows(1, model.BedCleaning))
    mock.ExpectExec("UPDATE beds SET status").
        WithArgs(model.BedOccupied, int64(2)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO bed_assignments").
        WithArgs(int64(5), int64(2), int64(7), sqlmock.AnyArg(), nil).
        WillReturnResult(sqlmock.NewResult(32, 1))
    mock.ExpectExec("INSERT INTO bed_status_logs").
        WithArgs(int64(2), model.BedAvailable, model.BedOccupied, int64(7), "Assigned to admission ID: 5", int64(5), int64(32)).
        WillReturnResult(sqlmock.NewResult(43, 1))
    mock.ExpectQuery("JOIN rooms r ON r.id = b.room_id").
        WithArgs(int64(2)).
        WillReturnRows(detailRows(2, model.BedOccupied))
    mock.ExpectCommit()

    res, err := e.Assign(context.Background(), 5, 2, 7)
    require.NoError(t, err)
    require.NotNil(t, res.OldBed)
    assert.Equal(t, model.BedCleaning, res.OldBed.Status)
    assert.Equal(t, model.BedOccupied, res.Bed.Status)
    assert.Equal(t, uint64(32), res.Assignment.ID)
    assert.NoError(t, mock.ExpectationsWereMet())
}

// Assigning the admission to the bed it already occupies is a
// conflict, not a no-op.
func TestAssignSameBedConflict(t *testing.T) {
    e, mock, done := newAssignmentEngine(t, nil)
    defer done()

    admitted := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
    assignedAt := time.Date(2026, 8, 25, 11, 0, 0, 0, time.UTC)

    mock.ExpectBegin()
    mock.ExpectQuery("FROM beds WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(1)).
        WillReturnRows(bedRows(1, model.BedReserved))
    mock.ExpectQuery("FROM admissions WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(5)).
        WillReturnRows(admissionRows(5, model.AdmissionActive, admitted))
    mock.ExpectQuery("admission_id = (.+) AND is_current = TRUE").
        WithArgs(int64(5)).
        WillReturnRows(assignmentRows(31, 5, 1, assignedAt))
    mock.ExpectRollback()

    _, err := e.Assign(context.Background(), 5, 1, 7)
    require.Error(t, err)
    assert.Equal(t, KindConflict, KindOf(err))
}

func TestTransferRequiresCurrentAssignment(t *testing.T) {
    e, mock, done := newAssignmentEngine(t, nil)
    defer done()

    mock.ExpectBegin()
    mock.ExpectQuery("admission_id = (.+) AND is_current = TRUE").
        WithArgs(int64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))
    mock.ExpectRollback()

    _, err := e.Transfer(context.Background(), 5, 2, 7, "closer to nurses station")
    require.Error(t, err)
    assert.Equal(t, KindNotFound, KindOf(err))
}

func TestReleaseHappyPath(t *testing.T) {
    e, mock, done := newAssignmentEngine(t, nil)
    defer done()

    admitted := time.Date(2026, 8, 27, 14, 0, 0, 0, time.UTC)
    dischargedAt := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
    e.now = func() time.Time { return dischargedAt }
    assignedAt := admitted.Add(time.Hour)

    mock.ExpectBegin()
    mock.ExpectQuery("FROM admissions WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(5)).
        WillReturnRows(admissionRows(5, model.AdmissionActive, admitted))
    mock.ExpectQuery("admission_id = (.+) AND is_current = TRUE").
        WithArgs(int64(5)).
        WillReturnRows(assignmentRows(31, 5, 1, assignedAt))
    mock.ExpectQuery("FROM beds WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(1)).
        WillReturnRows(bedRows(1, model.BedOccupied))
    mock.ExpectExec("UPDATE admissions").
        WithArgs(model.AdmissionDischarged, dischargedAt, "recovered", model.DischargeRoutine, int64(3), int64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("UPDATE bed_assignments").
        WithArgs(dischargedAt, nil, int64(31)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("UPDATE beds SET status").
        WithArgs(model.BedCleaning, int64(1)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery("JOIN rooms r ON r.id = b.room_id").
        WithArgs(int64(1)).
        WillReturnRows(detailRows(1, model.BedCleaning))
    mock.ExpectCommit()

    // the advisory bed log is appended outside the transaction after
    // the commit succeeded
    mock.ExpectExec("INSERT INTO bed_status_logs").
        WithArgs(int64(1), model.BedOccupied, model.BedCleaning, int64(7), "Patient discharged", int64(5), int64(31)).
        WillReturnResult(sqlmock.NewResult(51, 1))

    res, err := e.Release(context.Background(), 5, "", model.DischargeRoutine, "recovered")
    require.NoError(t, err)
    assert.Equal(t, uint32(3), res.LengthOfStayDays)
    assert.Equal(t, model.AdmissionDischarged, res.Admission.Status)
    assert.Equal(t, model.BedCleaning, res.Bed.Status)
    assert.False(t, res.Assignment.IsCurrent)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseDeceasedDischarge(t *testing.T) {
    e, mock, done := newAssignmentEngine(t, nil)
    defer done()

    admitted := time.Date(2026, 8, 29, 23, 0, 0, 0, time.UTC)
    dischargedAt := time.Date(2026, 8, 30, 1, 0, 0, 0, time.UTC)
    e.now = func() time.Time { return dischargedAt }

    mock.ExpectBegin()
    mock.ExpectQuery("FROM admissions WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(5)).
        WillReturnRows(admissionRows(5, model.AdmissionActive, admitted))
    mock.ExpectQuery("admission_id = (.+) AND is_current = TRUE").
        WithArgs(int64(5)).
        WillReturnRows(assignmentRows(31, 5, 1, admitted))
    mock.ExpectQuery("FROM beds WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(1)).
        WillReturnRows(bedRows(1, model.BedOccupied))
    mock.ExpectExec("UPDATE admissions").
        WithArgs(model.AdmissionDeceased, dischargedAt, "", model.DischargeDeceased, int64(1), int64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("UPDATE bed_assignments").
        WithArgs(dischargedAt, nil, int64(31)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("UPDATE beds SET status").
        WithArgs(model.BedCleaning, int64(1)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery("JOIN rooms r ON r.id = b.room_id").
        WithArgs(int64(1)).
        WillReturnRows(detailRows(1, model.BedCleaning))
    mock.ExpectCommit()
    mock.ExpectExec("INSERT INTO bed_status_logs").
        WithArgs(int64(1), model.BedOccupied, model.BedCleaning, int64(7), "Patient discharged", int64(5), int64(31)).
        WillReturnResult(sqlmock.NewResult(52, 1))

    res, err := e.Release(context.Background(), 5, "", model.DischargeDeceased, "")
    require.NoError(t, err)
    assert.Equal(t, model.AdmissionDeceased, res.Admission.Status)
    assert.Equal(t, uint32(1), res.LengthOfStayDays)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseWithoutAssignment(t *testing.T) {
    e, mock, done := newAssignmentEngine(t, nil)
    defer done()

    admitted := time.Date(2026, 8, 27, 14, 0, 0, 0, time.UTC)

    mock.ExpectBegin()
    mock.ExpectQuery("FROM admissions WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(5)).
        WillReturnRows(admissionRows(5, model.AdmissionActive, admitted))
    mock.ExpectQuery("admission_id = (.+) AND is_current = TRUE").
        WithArgs(int64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))
    mock.ExpectRollback()

    _, err := e.Release(context.Background(), 5, "", model.DischargeRoutine, "")
    require.Error(t, err)
    assert.Equal(t, KindNotFound, KindOf(err))

    var derr *Error
    require.True(t, errors.As(err, &derr))
    assert.Equal(t, "No active bed assignment found for this admission.", derr.Message)
}

func TestReleaseAlreadyDischarged(t *testing.T) {
    e, mock, done := newAssignmentEngine(t, nil)
    defer done()

    admitted := time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC)

    mock.ExpectBegin()
    mock.ExpectQuery("FROM admissions WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(5)).
        WillReturnRows(admissionRows(5, model.AdmissionDischarged, admitted))
    mock.ExpectRollback()

    _, err := e.Release(context.Background(), 5, "", model.DischargeRoutine, "")
    require.Error(t, err)
    assert.Equal(t, KindConflict, KindOf(err))
}
