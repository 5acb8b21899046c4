package repositories

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/desertthunder/seatx/internal/models"
)

func TestSearchRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewSearchRepository(db)
			rec := models.NewSearchRecord(0, models.SearchRequest{RollNumber: "", Date: "2025-05-12"})

			if err := repo.Create(rec); err == nil {
				t.Fatal("expected validation error for empty roll number")
			}
		})

		t.Run("SequenceFailure", func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create sqlmock: %v", err)
			}
			defer db.Close()

			mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

			err = NewSearchRepository(db).Create(newRecord("RA2211003010001"))
			if err == nil || !strings.Contains(err.Error(), "failed to generate sequence") {
				t.Fatalf("expected sequence error, got %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})

		t.Run("InsertFailure", func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create sqlmock: %v", err)
			}
			defer db.Close()

			mock.ExpectBegin()
			mock.ExpectExec("UPDATE searches_sequence").WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectQuery("SELECT value FROM searches_sequence").
				WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(7))
			mock.ExpectCommit()
			mock.ExpectExec("INSERT INTO searches").WillReturnError(errors.New("disk I/O error"))

			rec := newRecord("RA2211003010001")
			err = NewSearchRepository(db).Create(rec)
			if err == nil || !strings.Contains(err.Error(), "failed to insert search") {
				t.Fatalf("expected insert error, got %v", err)
			}
			if rec.Sequence() != 7 {
				t.Errorf("expected sequence 7, got %d", rec.Sequence())
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("CorruptResults", func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create sqlmock: %v", err)
			}
			defer db.Close()

			now := time.Now()
			rows := sqlmock.NewRows(strings.Split(strings.ReplaceAll(searchColumns, " ", ""), ",")).
				AddRow("id-1", 1, "RA2211003010001", "2025-05-12", "", "completed", "", 100, "{not json", now, now, nil)
			mock.ExpectQuery("SELECT (.+) FROM searches WHERE id = ?").WithArgs("id-1").WillReturnRows(rows)

			_, err = NewSearchRepository(db).Get("id-1")
			if err == nil || !strings.Contains(err.Error(), "failed to decode results") {
				t.Fatalf("expected decode error, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			rec := newRecord("RA2211003010001")
			rec.SetID("nonexistent-id")

			if err := NewSearchRepository(db).Update(rec); err == nil {
				t.Fatal("expected error when updating nonexistent search")
			}
		})

		t.Run("ExecFailure", func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create sqlmock: %v", err)
			}
			defer db.Close()

			mock.ExpectExec("UPDATE searches").WillReturnError(errors.New("database is locked"))

			rec := newRecord("RA2211003010001")
			rec.SetID("id-1")
			err = NewSearchRepository(db).Update(rec)
			if err == nil || !strings.Contains(err.Error(), "failed to update search") {
				t.Fatalf("expected update error, got %v", err)
			}
		})
	})

	t.Run("List", func(t *testing.T) {
		t.Run("QueryFailure", func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create sqlmock: %v", err)
			}
			defer db.Close()

			mock.ExpectQuery("SELECT (.+) FROM searches").WillReturnError(errors.New("no such table: searches"))

			_, err = NewSearchRepository(db).List(map[string]any{"status": "completed"})
			if err == nil || !strings.Contains(err.Error(), "failed to query searches") {
				t.Fatalf("expected query error, got %v", err)
			}
		})
	})
}

func TestHistoryAdapterErrors(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	adapter := NewHistoryAdapter(NewSearchRepository(db))

	_, err := adapter.RecordSearch(models.SearchRequest{RollNumber: "RA2211003010001"}, "sess-1")
	if err == nil {
		t.Fatal("expected error when recording search without a date")
	}
}
