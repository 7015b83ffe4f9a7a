package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invitease/internal/domain"
)

var receiverColumnNames = []string{
	"id", "whatsapp_number", "full_name", "username", "profile_image",
	"created_from_invitation", "converted_to_sender", "linked_sender_id", "created_at", "updated_at",
}

func TestReceiverRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO receivers`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("rcv-uuid-1"))
			},
		},
		{
			name: "duplicate contact",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO receivers`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: "receivers_whatsapp_number_key"})
			},
			wantErr: domain.ErrDuplicateContact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewReceiverRepository(db)
			rec := &domain.Receiver{
				WhatsAppNumber:        "+4477",
				FullName:              "Jo Guest",
				CreatedFromInvitation: true,
				CreatedAt:             now,
				UpdatedAt:             now,
			}
			err = repo.Create(ctx, rec)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "rcv-uuid-1", rec.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReceiverRepository_GetByContact(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM receivers WHERE whatsapp_number = \$1`).
		WithArgs("+4477").
		WillReturnRows(sqlmock.NewRows(receiverColumnNames).AddRow(
			"rcv-1", "+4477", "Jo Guest", "jo", "", true, true, "snd-9", now, now,
		))

	repo := NewReceiverRepository(db)
	got, err := repo.GetByContact(context.Background(), "+4477")
	require.NoError(t, err)
	assert.Equal(t, "rcv-1", got.ID)
	assert.True(t, got.ConvertedToSender)
	require.NotNil(t, got.LinkedSenderID)
	assert.Equal(t, "snd-9", *got.LinkedSenderID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiverRepository_GetByContact_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM receivers WHERE whatsapp_number = \$1`).
		WithArgs("+0000").
		WillReturnError(sql.ErrNoRows)

	repo := NewReceiverRepository(db)
	_, err = repo.GetByContact(context.Background(), "+0000")
	assert.ErrorIs(t, err, domain.ErrReceiverNotFound)
}

func TestReceiverRepository_GetByID_NullLink(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM receivers WHERE id = \$1`).
		WithArgs("rcv-1").
		WillReturnRows(sqlmock.NewRows(receiverColumnNames).AddRow(
			"rcv-1", "+4477", "Jo Guest", nil, "", true, false, nil, now, now,
		))

	repo := NewReceiverRepository(db)
	got, err := repo.GetByID(context.Background(), "rcv-1")
	require.NoError(t, err)
	assert.Empty(t, got.Username)
	assert.Nil(t, got.LinkedSenderID)
	assert.False(t, got.ConvertedToSender)
}

func TestReceiverRepository_Update(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	linked := "snd-9"
	rec := &domain.Receiver{
		ID:                "rcv-1",
		WhatsAppNumber:    "+4477",
		FullName:          "Jo Guest",
		ConvertedToSender: true,
		LinkedSenderID:    &linked,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE receivers`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewReceiverRepository(db)
		require.NoError(t, repo.Update(context.Background(), rec))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE receivers`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewReceiverRepository(db)
		err = repo.Update(context.Background(), rec)
		assert.ErrorIs(t, err, domain.ErrReceiverNotFound)
	})
}
