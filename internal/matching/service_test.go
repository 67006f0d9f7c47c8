package matching_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/fintrack/internal/errs"
	"github.com/MrJamesThe3rd/fintrack/internal/matching"
)

func TestService_Suggest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := matching.NewMockRepository(ctrl)
	svc := matching.NewService(repo, matching.NewMockCategories(ctrl))

	repo.EXPECT().FindMatch(gomock.Any(), int64(1), "CONTINENTE LISBOA").Return(int64(5), true, nil)

	id, ok, err := svc.Suggest(context.Background(), 1, "CONTINENTE LISBOA")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(5), id)

	_, ok, err = svc.Suggest(context.Background(), 1, "   ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_Learn(t *testing.T) {
	type testCase struct {
		name      string
		pattern   string
		setupMock func(repo *matching.MockRepository, categories *matching.MockCategories)
		wantErr   error
	}

	tests := []testCase{
		{
			name:    "Success",
			pattern: " continente ",
			setupMock: func(repo *matching.MockRepository, categories *matching.MockCategories) {
				categories.EXPECT().Visible(gomock.Any(), int64(1), int64(5)).Return(true, nil)
				repo.EXPECT().
					UpsertRule(gomock.Any(), &matching.Rule{UserID: 1, Pattern: "continente", CategoryID: 5}).
					DoAndReturn(func(_ context.Context, r *matching.Rule) error {
						r.ID = 9
						return nil
					})
			},
		},
		{
			name:    "EmptyPattern",
			pattern: "",
			wantErr: errs.ErrInvalidInput,
		},
		{
			name:    "InvisibleCategory",
			pattern: "continente",
			setupMock: func(_ *matching.MockRepository, categories *matching.MockCategories) {
				categories.EXPECT().Visible(gomock.Any(), int64(1), int64(5)).Return(false, nil)
			},
			wantErr: errs.ErrInvalidReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := matching.NewMockRepository(ctrl)
			categories := matching.NewMockCategories(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(repo, categories)
			}

			got, err := matching.NewService(repo, categories).Learn(context.Background(), 1, tt.pattern, 5)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(9), got.ID)
		})
	}
}
