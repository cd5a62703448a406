package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/mocks"
	apperrors "volunteer_platform/pkg/errors"
	"volunteer_platform/pkg/logger"
)

func TestUserService_UpdateMe(t *testing.T) {
	t.Run("renames and refreshes the cached identity", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		users := mocks.NewMockUserRepository(ctrl)
		cache := mocks.NewMockIdentityCache(ctrl)

		renamed := &domain.User{ID: 4, Name: "Robin", Role: domain.RoleVolunteer, PasswordHash: "hash"}
		users.EXPECT().UpdateName(gomock.Any(), int64(4), "Robin").Return(renamed, nil).Times(1)
		cache.EXPECT().SetMany(gomock.Any(), []domain.Identity{{ID: 4, Name: "Robin", Role: domain.RoleVolunteer}}).Times(1)

		user, err := NewUserService(users, cache, logger.NewNop()).UpdateMe(context.Background(), 4, "  Robin ")
		req.NoError(err)
		req.Equal("Robin", user.Name)
		req.Empty(user.PasswordHash)
	})

	t.Run("rejects blank and overlong names", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := NewUserService(mocks.NewMockUserRepository(ctrl), mocks.NewMockIdentityCache(ctrl), logger.NewNop())

		for _, name := range []string{"", "   ", strings.Repeat("n", 101)} {
			_, err := svc.UpdateMe(context.Background(), 4, name)
			require.ErrorIs(t, err, apperrors.ErrBadRequest)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		users := mocks.NewMockUserRepository(ctrl)
		users.EXPECT().UpdateName(gomock.Any(), int64(9), "Robin").Return(nil, apperrors.ErrUserNotFound).Times(1)

		_, err := NewUserService(users, nil, logger.NewNop()).UpdateMe(context.Background(), 9, "Robin")
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}
