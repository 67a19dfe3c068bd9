package repository

import (
	"context"
	"testing"
	"time"

	"MatSync/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("打开 mock 数据库失败: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	if err != nil {
		t.Fatalf("打开 gorm 连接失败: %v", err)
	}
	return gormDB, mock
}

func TestInsertIgnoreDuplicates(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCandidateRepository(db)

	// 两条入参、一条与已有 external_id 冲突：RETURNING 只返回真正插入的行
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "candidate_events" .* ON CONFLICT \("external_id"\) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectCommit()

	inserted, err := repo.InsertIgnoreDuplicates(context.Background(), []*model.CandidateEvent{
		{ExternalID: "tw-1001", Name: "Metro Duals", StartDate: time.Now(), Status: model.CandidateStatusPending},
		{ExternalID: "tw-1002", Name: "River Classic", StartDate: time.Now(), Status: model.CandidateStatusPending},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIgnoreDuplicates_EmptyBatch(t *testing.T) {
	db, _ := setupMockDB(t)
	repo := NewCandidateRepository(db)

	// 空批次不触达数据库
	inserted, err := repo.InsertIgnoreDuplicates(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
}

func TestMarkAutoApproved(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCandidateRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "candidate_events" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.MarkAutoApproved(context.Background(), "tw-1001", 42)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUnmatched(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCandidateRepository(db)

	rows := sqlmock.NewRows([]string{"id", "external_id", "name", "status"}).
		AddRow(int64(1), "tw-1001", "Metro Duals", model.CandidateStatusPending)
	mock.ExpectQuery(`SELECT \* FROM "candidate_events" WHERE flo_event_id IS NULL AND status = \$1`).
		WillReturnRows(rows)

	candidates, err := repo.ListUnmatched(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "tw-1001", candidates[0].ExternalID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
