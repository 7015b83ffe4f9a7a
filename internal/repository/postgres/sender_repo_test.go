package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invitease/internal/domain"
)

var senderColumnNames = []string{
	"id", "username", "full_name", "email", "whatsapp_number", "profile_image",
	"login_method", "verified", "password_hash", "salt", "oauth", "created_at", "updated_at",
}

func senderRow(t *testing.T, s *domain.Sender) *sqlmock.Rows {
	t.Helper()
	oauth, err := json.Marshal(s.OAuth)
	require.NoError(t, err)
	return sqlmock.NewRows(senderColumnNames).AddRow(
		s.ID, s.Username, s.FullName, s.Email, s.WhatsAppNumber, s.ProfileImage,
		s.LoginMethod, s.Verified, s.PasswordHash, s.Salt, oauth, s.CreatedAt, s.UpdatedAt,
	)
}

func TestSenderRepository_Create(t *testing.T) {
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
				mock.ExpectQuery(`INSERT INTO senders`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("snd-uuid-1"))
			},
		},
		{
			name: "duplicate email",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO senders`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: "senders_email_key"})
			},
			wantErr: domain.ErrDuplicateEmail,
		},
		{
			name: "duplicate contact",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO senders`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: "senders_whatsapp_number_key"})
			},
			wantErr: domain.ErrDuplicateContact,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO senders`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewSenderRepository(db)
			s := &domain.Sender{
				FullName:       "Ada",
				Email:          "ada@example.com",
				WhatsAppNumber: "+4477",
				LoginMethod:    domain.LoginMethodEmail,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			err = repo.Create(ctx, s)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "snd-uuid-1", s.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSenderRepository_GetByEmail(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stored := &domain.Sender{
		ID:             "snd-1",
		Username:       "ada",
		FullName:       "Ada",
		Email:          "ada@example.com",
		WhatsAppNumber: "+4477",
		LoginMethod:    domain.LoginMethodEmail,
		OAuth:          []domain.OAuthBinding{{Provider: "google", ProviderID: "g-1"}},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM senders WHERE email = \$1`).
		WithArgs("ada@example.com").
		WillReturnRows(senderRow(t, stored))

	repo := NewSenderRepository(db)
	got, err := repo.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "snd-1", got.ID)
	assert.Equal(t, "+4477", got.WhatsAppNumber)
	assert.True(t, got.HasOAuthBinding("google", "g-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSenderRepository_GetByContact_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM senders WHERE whatsapp_number = \$1`).
		WithArgs("+0000").
		WillReturnError(sql.ErrNoRows)

	repo := NewSenderRepository(db)
	_, err = repo.GetByContact(context.Background(), "+0000")
	assert.ErrorIs(t, err, domain.ErrSenderNotFound)
}

func TestSenderRepository_GetByOAuth(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stored := &domain.Sender{
		ID:          "snd-1",
		FullName:    "Grace",
		Email:       "grace@example.com",
		LoginMethod: domain.LoginMethodGoogle,
		OAuth:       []domain.OAuthBinding{{Provider: "google", ProviderID: "g-42"}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	needle, err := json.Marshal([]domain.OAuthBinding{{Provider: "google", ProviderID: "g-42"}})
	require.NoError(t, err)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM senders WHERE oauth @> \$1`).
		WithArgs(needle).
		WillReturnRows(senderRow(t, stored))

	repo := NewSenderRepository(db)
	got, err := repo.GetByOAuth(context.Background(), "google", "g-42")
	require.NoError(t, err)
	assert.Equal(t, "snd-1", got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSenderRepository_Update(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := &domain.Sender{
		ID:          "snd-1",
		FullName:    "Ada",
		Email:       "ada@example.com",
		LoginMethod: domain.LoginMethodEmail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE senders`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewSenderRepository(db)
		require.NoError(t, repo.Update(context.Background(), s))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE senders`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewSenderRepository(db)
		err = repo.Update(context.Background(), s)
		assert.ErrorIs(t, err, domain.ErrSenderNotFound)
	})
}

func TestNullString(t *testing.T) {
	assert.False(t, nullString("").Valid, "empty maps to NULL for sparse uniques")
	v := nullString("+4477")
	assert.True(t, v.Valid)
	assert.Equal(t, "+4477", v.String)
}
