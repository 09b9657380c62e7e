package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/roam-social/roam-feed/internal/core/storage"
)

func TestAdapter_MarkAttended(t *testing.T) {
	tests := []struct {
		name       string
		mockResult func(mock sqlmock.Sqlmock)
		wantErr    error
	}{
		{
			name: "success",
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(queryMarkAttended)).
					WithArgs("user-1", "tm-1").
					WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("user-1"))
			},
		},
		{
			name: "already joined maps to ErrDuplicate",
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(queryMarkAttended)).
					WithArgs("user-1", "tm-1").
					WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
			},
			wantErr: storage.ErrDuplicate,
		},
		{
			name: "query failure surfaces",
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(queryMarkAttended)).
					WithArgs("user-1", "tm-1").
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: errors.New("failed to mark attendance"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock, db := newMockAdapter(t)
			defer db.Close()

			tc.mockResult(mock)

			err := adapter.MarkAttended(context.Background(), "user-1", "tm-1")
			switch {
			case tc.wantErr == nil:
				require.NoError(t, err)
			case errors.Is(tc.wantErr, storage.ErrDuplicate):
				require.ErrorIs(t, err, storage.ErrDuplicate)
			default:
				require.ErrorContains(t, err, tc.wantErr.Error())
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
