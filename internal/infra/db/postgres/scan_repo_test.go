package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/leakscan/internal/domain/scanerrors"
	domain "github.com/bryanwahyu/leakscan/internal/domain/scans"
)

func TestScanRepositorySaveUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs("id-1", sqlmock.AnyArg(), "/tmp", "out.json", "img", "running", 0, 0, "", "", int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewScanRepository(db).Save(context.Background(), &domain.Scan{
		ID: "id-1", ScanPath: "/tmp", ReportPath: "out.json", Image: "img", Status: domain.StatusRunning,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepositoryLatest(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "triggered_at", "scan_path", "report_path", "image", "status",
		"exit_code", "findings", "artifact_url", "analysis", "duration_ms"}
	mock.ExpectQuery("FROM leakscan_scans ORDER BY").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("b", at, "/b", "b.json", "img", "success", 0, 0, "", "", 1).
			AddRow("a", at, "/a", "a.json", "img", "error", 0, 0, "", "", 2))

	list, err := NewScanRepository(db).Latest(context.Background(), 500)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.ScanID("b"), list[0].ID)
	assert.Equal(t, domain.StatusError, list[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanErrorRepositoryRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO leakscan_scan_errors").
		WithArgs("id-1", "run", 1, "unexpected error: boom", at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery("FROM leakscan_scan_errors").
		WithArgs("id-1", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "scan_id", "phase", "exit_code", "message", "created_at"}).
			AddRow(5, "id-1", "run", 1, "unexpected error: boom", at))

	repo := NewScanErrorRepository(db)
	e := &scanerrors.ScanError{ScanID: "id-1", Phase: scanerrors.PhaseRun, ExitCode: 1, Message: "unexpected error: boom", CreatedAt: at}
	require.NoError(t, repo.Save(context.Background(), e))
	assert.Equal(t, int64(5), e.ID)

	list, err := repo.ListByScan(context.Background(), "id-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *e, *list[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}
