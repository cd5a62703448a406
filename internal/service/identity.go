package service

import (
	"context"

	"github.com/samber/lo"

	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/repository"
	"volunteer_platform/pkg/logger"
)

// IdentityResolver returns a display identity for every requested id.
// Ids that cannot be resolved get domain.PlaceholderIdentity.
type IdentityResolver interface {
	Resolve(ctx context.Context, ids []int64) map[int64]domain.Identity
}

type identityResolver struct {
	users repository.UserRepository
	cache repository.IdentityCache
	log   logger.Logger
}

func NewIdentityResolver(users repository.UserRepository, cache repository.IdentityCache, log logger.Logger) IdentityResolver {
	return &identityResolver{users: users, cache: cache, log: log}
}

func (r *identityResolver) Resolve(ctx context.Context, ids []int64) map[int64]domain.Identity {
	ids = lo.Uniq(ids)
	resolved := r.cache.GetMany(ctx, ids)
	if resolved == nil {
		resolved = make(map[int64]domain.Identity, len(ids))
	}

	missing := lo.Filter(ids, func(id int64, _ int) bool {
		_, ok := resolved[id]
		return !ok
	})

	if len(missing) > 0 {
		found, err := r.users.GetIdentities(ctx, missing)
		if err != nil {
			r.log.Warn("Identity lookup failed, using placeholders", "error", err, "count", len(missing))
			found = nil
		}
		if len(found) > 0 {
			r.cache.SetMany(ctx, lo.Values(found))
		}
		for _, id := range missing {
			if identity, ok := found[id]; ok {
				resolved[id] = identity
				continue
			}
			resolved[id] = domain.PlaceholderIdentity(id)
		}
	}

	return resolved
}
