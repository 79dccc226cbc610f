package conversation

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/conversation-clipboard/internal/platform/db"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository provides PostgreSQL backed access to conversations, participants and labels.
type Repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// WithTx runs fn with a repository bound to a single transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, *Repository) error) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("conversation: repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &Repository{db: tx, pool: r.pool})
	})
}

// LoadByIDs returns the conversations matching ids in the order they were requested.
// Unknown ids are skipped.
func (r *Repository) LoadByIDs(ctx context.Context, ids []int64) ([]Conversation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.subject, c.owner_id, c.is_closed, c.created_at, c.updated_at
		FROM unnest($1::bigint[]) WITH ORDINALITY AS req(id, ord)
		JOIN conversations c ON c.id = req.id
		ORDER BY req.ord`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	conversations := make([]Conversation, 0, len(ids))
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Subject, &c.OwnerID, &c.IsClosed, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return conversations, nil
}

// ParticipatingIDs returns the subset of conversationIDs userID participates in.
// It issues a single query regardless of the number of ids.
func (r *Repository) ParticipatingIDs(ctx context.Context, conversationIDs []int64, userID int64) (map[int64]struct{}, error) {
	found := make(map[int64]struct{})
	if len(conversationIDs) == 0 {
		return found, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT conversation_id
		FROM conversation_participants
		WHERE conversation_id = ANY($1) AND user_id = $2`, conversationIDs, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return found, nil
}

// CountLabels returns how many custom labels userID owns.
func (r *Repository) CountLabels(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM conversation_labels WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// SetClosed flips the closed flag on the given conversations owned by ownerID.
func (r *Repository) SetClosed(ctx context.Context, ids []int64, ownerID int64, closed bool) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoConversations
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET is_closed = $3, updated_at = NOW()
		WHERE id = ANY($1) AND owner_id = $2 AND is_closed <> $3`, ids, ownerID, closed)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Leave hides the conversations for userID. A permanent leave also drops the
// user's own labels from those conversations.
func (r *Repository) Leave(ctx context.Context, ids []int64, userID int64, permanent bool) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoConversations
	}
	state := HideStateHidden
	if permanent {
		state = HideStateLeftForGood
	}
	var affected int64
	err := r.WithTx(ctx, func(ctx context.Context, tx *Repository) error {
		tag, err := tx.db.Exec(ctx, `
			UPDATE conversation_participants
			SET hide_state = $3
			WHERE conversation_id = ANY($1) AND user_id = $2 AND hide_state < $3`, ids, userID, int16(state))
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		if !permanent {
			return nil
		}
		_, err = tx.db.Exec(ctx, `
			DELETE FROM conversation_label_assignments a
			USING conversation_labels l
			WHERE a.label_id = l.id AND l.user_id = $2 AND a.conversation_id = ANY($1)`, ids, userID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// AssignLabels attaches labels owned by userID to the given conversations.
// Labels belonging to other users are ignored.
func (r *Repository) AssignLabels(ctx context.Context, ids, labelIDs []int64, userID int64) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoConversations
	}
	if len(labelIDs) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `
		INSERT INTO conversation_label_assignments (label_id, conversation_id)
		SELECT l.id, c.id
		FROM conversation_labels l
		CROSS JOIN unnest($1::bigint[]) AS c(id)
		WHERE l.id = ANY($2) AND l.user_id = $3
		ON CONFLICT DO NOTHING`, ids, labelIDs, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
