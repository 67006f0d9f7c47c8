package user_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/fintrack/internal/errs"
	"github.com/MrJamesThe3rd/fintrack/internal/user"
)

func TestService_Register(t *testing.T) {
	type testCase struct {
		name      string
		params    user.RegisterParams
		setupMock func(m *user.MockRepository)
		wantErr   error
	}

	valid := user.RegisterParams{Username: "alice", Email: "a@x.com", Password: "pw"}

	tests := []testCase{
		{
			name:   "Success",
			params: valid,
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().
					CreateUser(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u *user.User) error {
						u.ID = 1
						u.CreatedAt = time.Now()
						return nil
					})
			},
		},
		{
			name:    "MissingUsername",
			params:  user.RegisterParams{Email: "a@x.com", Password: "pw"},
			wantErr: errs.ErrInvalidInput,
		},
		{
			name:    "BadEmail",
			params:  user.RegisterParams{Username: "alice", Email: "nope", Password: "pw"},
			wantErr: errs.ErrInvalidInput,
		},
		{
			name:    "PasswordTooLong",
			params:  user.RegisterParams{Username: "alice", Email: "a@x.com", Password: strings.Repeat("p", 73)},
			wantErr: errs.ErrInvalidInput,
		},
		{
			name:   "Duplicate",
			params: valid,
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(errs.ErrDuplicateIdentity)
			},
			wantErr: errs.ErrDuplicateIdentity,
		},
		{
			name:   "RepoError",
			params: valid,
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			wantErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := user.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := user.NewService(repo).WithHashCost(bcrypt.MinCost)
			got, err := svc.Register(context.Background(), tt.params)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Nil(t, got)

				if kind := errs.Kind(tt.wantErr); kind != nil {
					assert.ErrorIs(t, err, kind)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(1), got.ID)
			assert.Equal(t, "alice", got.Username)
			assert.NotEqual(t, "pw", got.PasswordHash)
			assert.True(t, got.PasswordMatches("pw"))
			assert.False(t, got.PasswordMatches("wrong"))
		})
	}
}

func TestService_GetByUsername(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	repo.EXPECT().GetUserByUsername(gomock.Any(), "bob").Return(nil, errs.ErrNotFound)

	_, err := user.NewService(repo).GetByUsername(context.Background(), "bob")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
