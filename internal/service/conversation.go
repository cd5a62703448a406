package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"volunteer_platform/internal/domain"
)

// Conversations lists one row per peer found among the user's most recent messages.
// Only the newest ChatConfig.ConversationWindow messages are scanned, so peers whose
// whole history is older than that window are not listed.
func (s *chatService) Conversations(ctx context.Context, userID int64) ([]domain.ConversationSummary, error) {
	recent, err := s.messages.ListRecent(ctx, userID, s.cfg.ConversationWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}

	latest := make(map[int64]*domain.Message)
	peers := make([]int64, 0)
	for _, message := range recent {
		peer := message.PeerOf(userID)
		if _, seen := latest[peer]; seen {
			continue
		}
		latest[peer] = message
		peers = append(peers, peer)
	}

	if len(peers) == 0 {
		return []domain.ConversationSummary{}, nil
	}

	unread, err := s.messages.CountUnreadBySenders(ctx, userID, peers)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread by peer: %w", err)
	}

	identities := s.identities.Resolve(ctx, peers)

	summaries := lo.Map(peers, func(peer int64, _ int) domain.ConversationSummary {
		identity, ok := identities[peer]
		if !ok {
			identity = domain.PlaceholderIdentity(peer)
		}
		return domain.ConversationSummary{
			Peer:        identity,
			LastMessage: latest[peer],
			UnreadCount: unread[peer],
		}
	})

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].LastMessage, summaries[j].LastMessage
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	return summaries, nil
}
