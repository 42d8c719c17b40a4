package repository

import (
    "context"
    "database/sql"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/hospital-bed-management/internal/model"
)

func setupBedRepo(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *BedRepo) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    return db, mock, NewBedRepo(db)
}

func TestBedCreate_StartsAvailable(t *testing.T) {
    db, mock, repo := setupBedRepo(t)
    defer db.Close()

    mock.ExpectExec("INSERT INTO beds").
        WithArgs(int64(3), int64(2), "ICU", model.BedAvailable).
        WillReturnResult(sqlmock.NewResult(17, 1))

    bed := &model.Bed{RoomID: 3, BedNumber: 2, BedType: "ICU"}
    err := repo.Create(context.Background(), bed)

    require.NoError(t, err)
    assert.Equal(t, uint64(17), bed.ID)
    assert.Equal(t, model.BedAvailable, bed.Status)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBedCreateBulk(t *testing.T) {
    db, mock, repo := setupBedRepo(t)
    defer db.Close()

    // one statement, one value tuple per bed, all starting available
    mock.ExpectExec("INSERT INTO beds").
        WithArgs(
            int64(3), int64(1), "STANDARD", model.BedAvailable,
            int64(3), int64(2), "STANDARD", model.BedAvailable,
        ).
        WillReturnResult(sqlmock.NewResult(0, 2))

    beds := []model.Bed{
        {RoomID: 3, BedNumber: 1, BedType: "STANDARD"},
        {RoomID: 3, BedNumber: 2, BedType: "STANDARD"},
    }
    require.NoError(t, repo.CreateBulk(context.Background(), beds))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBedCreateBulk_Empty(t *testing.T) {
    db, _, repo := setupBedRepo(t)
    defer db.Close()

    // no statement is issued for an empty batch
    require.NoError(t, repo.CreateBulk(context.Background(), nil))
}

func TestBedGetByID_NotFound(t *testing.T) {
    db, mock, repo := setupBedRepo(t)
    defer db.Close()

    mock.ExpectQuery("FROM beds WHERE id = (.+)").
        WithArgs(int64(99)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))

    _, err := repo.GetByID(context.Background(), 99)
    assert.ErrorIs(t, err, ErrBedNotFound)
}

func TestBedGetByID(t *testing.T) {
    db, mock, repo := setupBedRepo(t)
    defer db.Close()

    now := time.Now()
    cleaned := now.Add(-time.Hour)
    rows := sqlmock.NewRows([]string{"id", "room_id", "bed_number", "bed_type", "status", "maintenance_reported_at", "last_cleaned_at", "created_at", "updated_at"}).
        AddRow(4, 3, 2, "ISOLATION", model.BedCleaning, nil, cleaned, now, now)
    mock.ExpectQuery("FROM beds WHERE id = (.+)").
        WithArgs(int64(4)).
        WillReturnRows(rows)

    bed, err := repo.GetByID(context.Background(), 4)
    require.NoError(t, err)
    assert.Equal(t, uint64(4), bed.ID)
    assert.Equal(t, model.BedCleaning, bed.Status)
    require.NotNil(t, bed.LastCleanedAt)
    assert.Nil(t, bed.MaintenanceReportedAt)
}

func TestBedUpdateStatusTx_MissingBed(t *testing.T) {
    db, mock, repo := setupBedRepo(t)
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectExec("UPDATE beds SET status").
        WithArgs(model.BedCleaning, int64(99)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectRollback()

    tx, err := db.BeginTx(context.Background(), nil)
    require.NoError(t, err)
    defer tx.Rollback()

    err = repo.UpdateStatusTx(context.Background(), tx, 99, model.BedCleaning)
    assert.ErrorIs(t, err, ErrBedNotFound)
}

func TestBedUpdateTypeByID(t *testing.T) {
    db, mock, repo := setupBedRepo(t)
    defer db.Close()

    mock.ExpectExec("UPDATE beds SET bed_type").
        WithArgs("ICU", int64(4)).
        WillReturnResult(sqlmock.NewResult(0, 1))

    require.NoError(t, repo.UpdateTypeByID(context.Background(), 4, "ICU"))
    assert.NoError(t, mock.ExpectationsWereMet())
}
