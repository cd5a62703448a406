package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"volunteer_platform/internal/domain"
	apperrors "volunteer_platform/pkg/errors"
	"volunteer_platform/pkg/logger"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	GetByID(ctx context.Context, id int64) (*domain.Message, error)
	// MarkDelivered transitions every undelivered message addressed to receiverID
	// and returns only the rows this call transitioned.
	MarkDelivered(ctx context.Context, receiverID int64, at time.Time) ([]domain.Delivery, error)
	MarkDeliveredByIDs(ctx context.Context, receiverID int64, ids []int64, at time.Time) ([]domain.Delivery, error)
	// MarkRead transitions unread messages from senderID to receiverID and returns their ids.
	MarkRead(ctx context.Context, receiverID, senderID int64, at time.Time) (domain.ReadResult, error)
	CountUnread(ctx context.Context, receiverID int64) (int64, error)
	CountUnreadBySenders(ctx context.Context, receiverID int64, senderIDs []int64) (map[int64]int64, error)
	ListRecent(ctx context.Context, userID int64, limit int) ([]*domain.Message, error)
	ListConversation(ctx context.Context, userID, peerID, beforeID int64, limit int) ([]*domain.Message, error)
	Search(ctx context.Context, userID int64, query string, limit int) ([]*domain.Message, error)
	DeleteConversation(ctx context.Context, userID, peerID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type messageRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMessageRepository(db *pgxpool.Pool, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

const messageColumns = `id, sender_id, receiver_id, text, created_at, delivered_at, read_at`

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (sender_id, receiver_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, message.SenderID, message.ReceiverID, message.Text).
		Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23503 = foreign_key_violation: the receiver does not exist
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperrors.ErrUserNotFound
		}
		r.log.Error("Failed to create message", "error", err, "sender_id", message.SenderID, "receiver_id", message.ReceiverID)
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	message, err := scanMessage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}
		r.log.Error("Failed to get message", "error", err, "message_id", id)
		return nil, err
	}

	return message, nil
}

func (r *messageRepository) MarkDelivered(ctx context.Context, receiverID int64, at time.Time) ([]domain.Delivery, error) {
	query := `
		UPDATE messages
		SET delivered_at = $2
		WHERE receiver_id = $1 AND delivered_at IS NULL
		RETURNING id, sender_id, delivered_at
	`

	return r.collectDeliveries(ctx, query, receiverID, at)
}

func (r *messageRepository) MarkDeliveredByIDs(ctx context.Context, receiverID int64, ids []int64, at time.Time) ([]domain.Delivery, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		UPDATE messages
		SET delivered_at = $2
		WHERE receiver_id = $1 AND delivered_at IS NULL AND id = ANY($3)
		RETURNING id, sender_id, delivered_at
	`

	return r.collectDeliveries(ctx, query, receiverID, at, ids)
}

func (r *messageRepository) collectDeliveries(ctx context.Context, query string, args ...any) ([]domain.Delivery, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to mark messages delivered", "error", err)
		return nil, err
	}

	deliveries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Delivery, error) {
		var d domain.Delivery
		err := row.Scan(&d.MessageID, &d.SenderID, &d.DeliveredAt)
		return d, err
	})
	if err != nil {
		r.log.Error("Failed to scan delivered messages", "error", err)
		return nil, err
	}

	return deliveries, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, receiverID, senderID int64, at time.Time) (domain.ReadResult, error) {
	// the CTE keeps the pre-update delivered_at so rows delivered by this read can be reported
	query := `
		WITH target AS (
			SELECT id, delivered_at IS NULL AS undelivered
			FROM messages
			WHERE receiver_id = $1 AND sender_id = $2 AND read_at IS NULL
			FOR UPDATE
		)
		UPDATE messages m
		SET read_at = $3, delivered_at = COALESCE(m.delivered_at, $3)
		FROM target t
		WHERE m.id = t.id
		RETURNING m.id, t.undelivered
	`

	rows, err := r.db.Query(ctx, query, receiverID, senderID, at)
	if err != nil {
		r.log.Error("Failed to mark messages read", "error", err, "receiver_id", receiverID, "sender_id", senderID)
		return domain.ReadResult{}, err
	}
	defer rows.Close()

	var result domain.ReadResult
	for rows.Next() {
		var (
			id          int64
			undelivered bool
		)
		if err := rows.Scan(&id, &undelivered); err != nil {
			r.log.Error("Failed to scan read messages", "error", err)
			return domain.ReadResult{}, err
		}
		result.MessageIDs = append(result.MessageIDs, id)
		if undelivered {
			result.Delivered = append(result.Delivered, domain.Delivery{MessageID: id, SenderID: senderID, DeliveredAt: at})
		}
	}
	if err := rows.Err(); err != nil {
		r.log.Error("Failed to mark messages read", "error", err, "receiver_id", receiverID, "sender_id", senderID)
		return domain.ReadResult{}, err
	}

	slices.Sort(result.MessageIDs)
	return result, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, receiverID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND read_at IS NULL`

	var total int64
	if err := r.db.QueryRow(ctx, query, receiverID).Scan(&total); err != nil {
		r.log.Error("Failed to count unread messages", "error", err, "receiver_id", receiverID)
		return 0, err
	}

	return total, nil
}

func (r *messageRepository) CountUnreadBySenders(ctx context.Context, receiverID int64, senderIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(senderIDs))
	if len(senderIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT sender_id, COUNT(*)
		FROM messages
		WHERE receiver_id = $1 AND read_at IS NULL AND sender_id = ANY($2)
		GROUP BY sender_id
	`

	rows, err := r.db.Query(ctx, query, receiverID, senderIDs)
	if err != nil {
		r.log.Error("Failed to count unread by sender", "error", err, "receiver_id", receiverID)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var senderID, count int64
		if err := rows.Scan(&senderID, &count); err != nil {
			r.log.Error("Failed to scan unread count", "error", err)
			return nil, err
		}
		counts[senderID] = count
	}

	return counts, rows.Err()
}

func (r *messageRepository) ListRecent(ctx context.Context, userID int64, limit int) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	return r.queryMessages(ctx, query, userID, limit)
}

func (r *messageRepository) ListConversation(ctx context.Context, userID, peerID, beforeID int64, limit int) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
		  AND ($3::bigint = 0 OR id < $3)
		ORDER BY id DESC
		LIMIT $4
	`

	return r.queryMessages(ctx, query, userID, peerID, beforeID, limit)
}

func (r *messageRepository) Search(ctx context.Context, userID int64, search string, limit int) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE (sender_id = $1 OR receiver_id = $1) AND text ILIKE $2
		ORDER BY id DESC
		LIMIT $3
	`

	return r.queryMessages(ctx, query, userID, "%"+escapeLike(search)+"%", limit)
}

func (r *messageRepository) DeleteConversation(ctx context.Context, userID, peerID int64) (int64, error) {
	query := `
		DELETE FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
	`

	tag, err := r.db.Exec(ctx, query, userID, peerID)
	if err != nil {
		r.log.Error("Failed to delete conversation", "error", err, "user_id", userID, "peer_id", peerID)
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (r *messageRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete message", "error", err, "message_id", id)
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMessageNotFound
	}

	return nil
}

func (r *messageRepository) queryMessages(ctx context.Context, query string, args ...any) ([]*domain.Message, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query messages", "error", err)
		return nil, err
	}
	defer rows.Close()

	messages := make([]*domain.Message, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	message := &domain.Message{}
	err := row.Scan(
		&message.ID, &message.SenderID, &message.ReceiverID, &message.Text,
		&message.CreatedAt, &message.DeliveredAt, &message.ReadAt,
	)
	if err != nil {
		return nil, err
	}
	return message, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
