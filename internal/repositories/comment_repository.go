// internal/repositories/comment_repository.go
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"maumlog/internal/database"
	"maumlog/internal/models"

	"go.uber.org/zap"
)

// commentRepository implements CommentRepository with high-performance patterns
type commentRepository struct {
	*BaseRepository
}

// NewCommentRepository creates a new instance of CommentRepository
func NewCommentRepository(db *database.Manager, logger *zap.Logger) CommentRepository {
	return &commentRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// ===============================
// BASIC CRUD OPERATIONS
// ===============================

// Create inserts a comment and keeps the cached counters in step, all in one
// transaction. A parent_comment_id that does not exist, or that points at a
// comment on a different post, is cleared so the comment lands as a root
// instead of a dangling reply.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		if comment.ParentCommentID != nil {
			var parentPostID int64
			err := tx.QueryRowContext(ctx,
				`SELECT post_id FROM comments WHERE id = $1`,
				*comment.ParentCommentID,
			).Scan(&parentPostID)
			switch {
			case err == sql.ErrNoRows:
				comment.ParentCommentID = nil
			case err != nil:
				return fmt.Errorf("failed to resolve parent comment: %w", err)
			case parentPostID != comment.PostID:
				comment.ParentCommentID = nil
			}
		}

		query := `
			INSERT INTO comments (
				post_id, user_id, content, is_anonymous, parent_comment_id
			) VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at`

		err := tx.QueryRowContext(
			ctx, query,
			comment.PostID, comment.UserID, comment.Content,
			comment.IsAnonymous, comment.ParentCommentID,
		).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}

		if comment.ParentCommentID != nil {
			_, err = tx.ExecContext(ctx,
				`UPDATE comments SET reply_count = reply_count + 1 WHERE id = $1`,
				*comment.ParentCommentID,
			)
			if err != nil {
				return fmt.Errorf("failed to bump parent reply count: %w", err)
			}
		}

		if _, _, err := reconcilePostCommentCount(ctx, tx, comment.PostID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		r.GetLogger().Error("Failed to create comment",
			zap.Error(err),
			zap.Int64("post_id", comment.PostID),
			zap.Int64("user_id", comment.UserID),
		)
		return err
	}

	comment.LikeCount = 0
	comment.ReplyCount = 0

	r.GetLogger().Info("Comment created successfully",
		zap.Int64("comment_id", comment.ID),
		zap.Int64("post_id", comment.PostID),
		zap.Int64("user_id", comment.UserID),
	)
	return nil
}

// GetByID retrieves a comment by ID with author information
func (r *commentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := `
		SELECT
			c.id, c.post_id, c.user_id, c.content, c.is_anonymous,
			c.parent_comment_id, c.like_count, c.reply_count,
			c.created_at, c.updated_at,
			u.nickname, u.profile_image_url
		FROM comments c
		INNER JOIN users u ON c.user_id = u.id
		WHERE c.id = $1`

	var comment models.Comment
	var nickname sql.NullString
	var imageURL sql.NullString

	err := r.QueryRowContext(ctx, query, id).Scan(
		&comment.ID, &comment.PostID, &comment.UserID, &comment.Content,
		&comment.IsAnonymous, &comment.ParentCommentID,
		&comment.LikeCount, &comment.ReplyCount,
		&comment.CreatedAt, &comment.UpdatedAt,
		&nickname, &imageURL,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comment by ID: %w", err)
	}

	if !comment.IsAnonymous {
		if nickname.Valid {
			comment.AuthorNickname = &nickname.String
		}
		if imageURL.Valid {
			comment.AuthorImageURL = &imageURL.String
		}
	}
	return &comment, nil
}

// Update updates a comment's content, scoped to the owning user
func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	query := `
		UPDATE comments SET
			content = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $3
		RETURNING updated_at`

	err := r.QueryRowContext(
		ctx, query,
		comment.ID, comment.Content, comment.UserID,
	).Scan(&comment.UpdatedAt)
	if err != nil {
		if r.IsNotFound(err) {
			return fmt.Errorf("comment not found or not owned by user")
		}
		return fmt.Errorf("failed to update comment: %w", err)
	}

	r.GetLogger().Info("Comment updated successfully",
		zap.Int64("comment_id", comment.ID),
		zap.Int64("user_id", comment.UserID),
	)
	return nil
}

// Delete removes a comment and its whole reply subtree, then settles the
// parent reply_count and the post comment_count inside the same transaction.
func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	return r.WithTransaction(ctx, func(tx *sql.Tx) error {
		var postID int64
		var parentID *int64
		err := tx.QueryRowContext(ctx,
			`SELECT post_id, parent_comment_id FROM comments WHERE id = $1`, id,
		).Scan(&postID, &parentID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("comment not found")
		}
		if err != nil {
			return fmt.Errorf("failed to load comment for delete: %w", err)
		}

		// Collect the subtree, then delete likes and rows together.
		subtree := `
			WITH RECURSIVE thread AS (
				SELECT id FROM comments WHERE id = $1
				UNION ALL
				SELECT c.id FROM comments c
				INNER JOIN thread t ON c.parent_comment_id = t.id
			)
			SELECT id FROM thread`

		_, err = tx.ExecContext(ctx,
			`DELETE FROM comment_likes WHERE comment_id IN (`+subtree+`)`, id)
		if err != nil {
			return fmt.Errorf("failed to delete comment likes: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`DELETE FROM comments WHERE id IN (`+subtree+`)`, id)
		if err != nil {
			return fmt.Errorf("failed to delete comment thread: %w", err)
		}

		if parentID != nil {
			_, err = tx.ExecContext(ctx,
				`UPDATE comments SET reply_count = GREATEST(reply_count - 1, 0) WHERE id = $1`,
				*parentID,
			)
			if err != nil {
				return fmt.Errorf("failed to settle parent reply count: %w", err)
			}
		}

		if _, _, err := reconcilePostCommentCount(ctx, tx, postID); err != nil {
			return err
		}
		return nil
	})
}

// ===============================
// LISTING OPERATIONS
// ===============================

// ListByPostID returns the post's full comment set oldest first. The viewer's
// like flag rides along so the service never re-queries per comment.
func (r *commentRepository) ListByPostID(ctx context.Context, postID int64, viewerID *int64) ([]*models.Comment, error) {
	query := `
		SELECT
			c.id, c.post_id, c.user_id, c.content, c.is_anonymous,
			c.parent_comment_id, c.like_count, c.reply_count,
			c.created_at, c.updated_at,
			u.nickname, u.profile_image_url,
			(vl.user_id IS NOT NULL) AS user_liked
		FROM comments c
		INNER JOIN users u ON c.user_id = u.id
		LEFT JOIN comment_likes vl ON vl.comment_id = c.id AND vl.user_id = $2
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC`

	var viewer interface{}
	if viewerID != nil {
		viewer = *viewerID
	}

	rows, err := r.QueryContext(ctx, query, postID, viewer)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		var comment models.Comment
		var nickname sql.NullString
		var imageURL sql.NullString

		err := rows.Scan(
			&comment.ID, &comment.PostID, &comment.UserID, &comment.Content,
			&comment.IsAnonymous, &comment.ParentCommentID,
			&comment.LikeCount, &comment.ReplyCount,
			&comment.CreatedAt, &comment.UpdatedAt,
			&nickname, &imageURL,
			&comment.UserLiked,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}

		if !comment.IsAnonymous {
			if nickname.Valid {
				comment.AuthorNickname = &nickname.String
			}
			if imageURL.Valid {
				comment.AuthorImageURL = &imageURL.String
			}
		}
		comments = append(comments, &comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}

// CountByPostID returns the authoritative comment row count for a post
func (r *commentRepository) CountByPostID(ctx context.Context, postID int64) (int, error) {
	var count int
	err := r.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

// ===============================
// ENGAGEMENT OPERATIONS
// ===============================

// ToggleLike flips the viewer's like on a comment and returns the new state
// along with the reconciled like count.
func (r *commentRepository) ToggleLike(ctx context.Context, commentID, userID int64) (bool, int, error) {
	var liked bool
	var likeCount int

	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2`,
			commentID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to clear comment like: %w", err)
		}

		removed, _ := result.RowsAffected()
		if removed == 0 {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO comment_likes (comment_id, user_id) VALUES ($1, $2)`,
				commentID, userID,
			)
			if err != nil {
				return fmt.Errorf("failed to add comment like: %w", err)
			}
			liked = true
		}

		likeCount, _, err = reconcileCommentLikeCount(ctx, tx, commentID)
		return err
	})
	if err != nil {
		return false, 0, err
	}
	return liked, likeCount, nil
}

// ReconcileLikeCount recounts the comment's like rows and rewrites the cached
// column only when it drifted. A nil tx runs against the pooled connection.
func (r *commentRepository) ReconcileLikeCount(ctx context.Context, tx *sql.Tx, commentID int64) (int, bool, error) {
	if tx != nil {
		return reconcileCommentLikeCount(ctx, tx, commentID)
	}

	var count int
	var corrected bool
	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		count, corrected, err = reconcileCommentLikeCount(ctx, tx, commentID)
		return err
	})
	return count, corrected, err
}

func reconcileCommentLikeCount(ctx context.Context, tx *sql.Tx, commentID int64) (int, bool, error) {
	var actual, cached int
	err := tx.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM comment_likes WHERE comment_id = $1),
			like_count
		FROM comments WHERE id = $1`, commentID,
	).Scan(&actual, &cached)
	if err != nil {
		return 0, false, fmt.Errorf("failed to recount comment likes: %w", err)
	}

	if actual == cached {
		return actual, false, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE comments SET like_count = $2 WHERE id = $1`, commentID, actual)
	if err != nil {
		return 0, false, fmt.Errorf("failed to settle comment like count: %w", err)
	}
	return actual, true, nil
}
