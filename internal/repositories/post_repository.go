// file: internal/repositories/post_repository.go
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"maumlog/internal/database"
	"maumlog/internal/models"
	"maumlog/internal/pagination"

	"go.uber.org/zap"
)

// postRepository implements PostRepository with high-performance patterns
type postRepository struct {
	*BaseRepository
}

// NewPostRepository creates a new instance of PostRepository
func NewPostRepository(db *database.Manager, logger *zap.Logger) PostRepository {
	return &postRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// postKeyset is the newest-first walk shared by every post listing.
var postKeyset = pagination.Keyset{
	SortField:     "p.created_at",
	Order:         pagination.OrderDesc,
	TiebreakField: "p.id",
}

// popularOrderBy ranks posts by like count with recency tiebreaks. Like
// counts shift too quickly for a cursor to resume a stable walk, so the
// popular listing is served as a single top page.
const popularOrderBy = "p.like_count DESC, p.created_at DESC, p.id DESC"

// SortPopular selects the popular ordering on post listings.
const SortPopular = "like_count"

// trimTopPage trims an over-fetched single-page result to limit. The popular
// listing never hands out cursors; has_next only signals that the ranking
// continues past the page.
func trimTopPage(posts []*models.Post, limit int) ([]*models.Post, models.PageInfo) {
	var info models.PageInfo
	if len(posts) > limit {
		info.HasNext = true
		posts = posts[:limit]
	}
	return posts, info
}

// ===============================
// BASIC CRUD OPERATIONS
// ===============================

// Create creates a new post
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (
			user_id, board, title, content, is_anonymous
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.QueryRowContext(
		ctx, query,
		post.UserID, post.Board, post.Title, post.Content, post.IsAnonymous,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		r.GetLogger().Error("Failed to create post",
			zap.Error(err),
			zap.Int64("user_id", post.UserID),
			zap.String("board", string(post.Board)),
		)
		return fmt.Errorf("failed to create post: %w", err)
	}

	post.LikeCount = 0
	post.CommentCount = 0

	r.GetLogger().Info("Post created successfully",
		zap.Int64("post_id", post.ID),
		zap.Int64("user_id", post.UserID),
		zap.String("board", string(post.Board)),
	)
	return nil
}

// GetByID retrieves a post by ID with author information and the viewer's
// like flag
func (r *postRepository) GetByID(ctx context.Context, id int64, viewerID *int64) (*models.Post, error) {
	query := `
		SELECT 
			p.id, p.user_id, p.board, p.title, p.content, p.is_anonymous,
			p.like_count, p.comment_count, p.created_at, p.updated_at,
			u.nickname,
			(vl.user_id IS NOT NULL) AS user_liked
		FROM posts p
		INNER JOIN users u ON p.user_id = u.id
		LEFT JOIN post_likes vl ON vl.post_id = p.id AND vl.user_id = $2
		WHERE p.id = $1`

	var viewer interface{}
	if viewerID != nil {
		viewer = *viewerID
	}

	post, err := scanPost(r.QueryRowContext(ctx, query, id, viewer))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post by ID: %w", err)
	}
	return post, nil
}

// Update updates a post's editable fields, scoped to the owning user
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts SET
			title = $2, content = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $4
		RETURNING updated_at`

	err := r.QueryRowContext(
		ctx, query,
		post.ID, post.Title, post.Content, post.UserID,
	).Scan(&post.UpdatedAt)
	if err != nil {
		if r.IsNotFound(err) {
			return fmt.Errorf("post not found or not owned by user")
		}
		return fmt.Errorf("failed to update post: %w", err)
	}
	return nil
}

// Delete removes a post together with its likes, comments, and comment likes
func (r *postRepository) Delete(ctx context.Context, id int64) error {
	return r.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM comment_likes WHERE comment_id IN (
				SELECT id FROM comments WHERE post_id = $1
			)`, id)
		if err != nil {
			return fmt.Errorf("failed to delete comment likes: %w", err)
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete post likes: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			return fmt.Errorf("post not found")
		}
		return nil
	})
}

// ===============================
// LISTING OPERATIONS
// ===============================

// ListByBoard walks one board newest first using the keyset cursor carried
// in params; sort=like_count switches to the single-page popular ranking.
func (r *postRepository) ListByBoard(ctx context.Context, board models.Board, params models.PaginationParams, viewerID *int64) (*models.PaginatedResponse[*models.Post], error) {
	if params.Sort == SortPopular {
		return r.listBoardPopular(ctx, board, params, viewerID)
	}

	plan := postKeyset.Build(params.Cursor, params.Limit, params.Direction, 2)

	query := `
		SELECT 
			p.id, p.user_id, p.board, p.title, p.content, p.is_anonymous,
			p.like_count, p.comment_count, p.created_at, p.updated_at,
			u.nickname,
			(vl.user_id IS NOT NULL) AS user_liked
		FROM posts p
		INNER JOIN users u ON p.user_id = u.id
		LEFT JOIN post_likes vl ON vl.post_id = p.id AND vl.user_id = $2
		WHERE p.board = $1`

	var viewer interface{}
	if viewerID != nil {
		viewer = *viewerID
	}
	args := []interface{}{board, viewer}

	if plan.Predicate != "" {
		query += " AND " + plan.Predicate
		args = append(args, plan.Args...)
	}
	query += fmt.Sprintf(" ORDER BY %s LIMIT %d", plan.OrderBy, plan.FetchLimit)

	posts, err := r.queryPosts(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	items, pageInfo := pagination.Page(posts, plan.Limit, params.Cursor != "",
		func(p *models.Post) (time.Time, int64) { return p.CreatedAt, p.ID })

	return &models.PaginatedResponse[*models.Post]{Items: items, PageInfo: pageInfo}, nil
}

// listBoardPopular serves the like_count ranking as one top page.
func (r *postRepository) listBoardPopular(ctx context.Context, board models.Board, params models.PaginationParams, viewerID *int64) (*models.PaginatedResponse[*models.Post], error) {
	limit := pagination.ClampLimit(params.Limit)

	query := fmt.Sprintf(`
		SELECT
			p.id, p.user_id, p.board, p.title, p.content, p.is_anonymous,
			p.like_count, p.comment_count, p.created_at, p.updated_at,
			u.nickname,
			(vl.user_id IS NOT NULL) AS user_liked
		FROM posts p
		INNER JOIN users u ON p.user_id = u.id
		LEFT JOIN post_likes vl ON vl.post_id = p.id AND vl.user_id = $2
		WHERE p.board = $1
		ORDER BY %s LIMIT %d`, popularOrderBy, limit+1)

	var viewer interface{}
	if viewerID != nil {
		viewer = *viewerID
	}

	posts, err := r.queryPosts(ctx, query, board, viewer)
	if err != nil {
		return nil, err
	}

	items, pageInfo := trimTopPage(posts, limit)
	return &models.PaginatedResponse[*models.Post]{Items: items, PageInfo: pageInfo}, nil
}

// ListByUserID walks one author's posts newest first
func (r *postRepository) ListByUserID(ctx context.Context, userID int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Post], error) {
	plan := postKeyset.Build(params.Cursor, params.Limit, params.Direction, 1)

	query := `
		SELECT 
			p.id, p.user_id, p.board, p.title, p.content, p.is_anonymous,
			p.like_count, p.comment_count, p.created_at, p.updated_at,
			u.nickname,
			(vl.user_id IS NOT NULL) AS user_liked
		FROM posts p
		INNER JOIN users u ON p.user_id = u.id
		LEFT JOIN post_likes vl ON vl.post_id = p.id AND vl.user_id = $1
		WHERE p.user_id = $1`

	args := []interface{}{userID}
	if plan.Predicate != "" {
		query += " AND " + plan.Predicate
		args = append(args, plan.Args...)
	}
	query += fmt.Sprintf(" ORDER BY %s LIMIT %d", plan.OrderBy, plan.FetchLimit)

	posts, err := r.queryPosts(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	items, pageInfo := pagination.Page(posts, plan.Limit, params.Cursor != "",
		func(p *models.Post) (time.Time, int64) { return p.CreatedAt, p.ID })

	return &models.PaginatedResponse[*models.Post]{Items: items, PageInfo: pageInfo}, nil
}

func (r *postRepository) queryPosts(ctx context.Context, query string, args ...interface{}) ([]*models.Post, error) {
	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

// rowScanner lets scanPost serve both sql.Row and sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var nickname sql.NullString

	err := row.Scan(
		&post.ID, &post.UserID, &post.Board, &post.Title, &post.Content,
		&post.IsAnonymous, &post.LikeCount, &post.CommentCount,
		&post.CreatedAt, &post.UpdatedAt,
		&nickname,
		&post.UserLiked,
	)
	if err != nil {
		return nil, err
	}

	if !post.IsAnonymous && nickname.Valid {
		post.AuthorNickname = &nickname.String
	}
	return &post, nil
}

// ===============================
// ENGAGEMENT OPERATIONS
// ===============================

// ToggleLike flips the viewer's like on a post and returns the new state
// along with the reconciled like count.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID int64) (bool, int, error) {
	var liked bool
	var likeCount int

	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`,
			postID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to clear post like: %w", err)
		}

		removed, _ := result.RowsAffected()
		if removed == 0 {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)`,
				postID, userID,
			)
			if err != nil {
				return fmt.Errorf("failed to add post like: %w", err)
			}
			liked = true
		}

		likeCount, _, err = reconcilePostLikeCount(ctx, tx, postID)
		return err
	})
	if err != nil {
		return false, 0, err
	}
	return liked, likeCount, nil
}

// HasLiked reports whether the user currently likes the post
func (r *postRepository) HasLiked(ctx context.Context, postID, userID int64) (bool, error) {
	var exists bool
	err := r.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM post_likes WHERE post_id = $1 AND user_id = $2)`,
		postID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check post like: %w", err)
	}
	return exists, nil
}

// ===============================
// COUNTER RECONCILIATION
// ===============================

// CountComments returns the authoritative comment row count for a post
func (r *postRepository) CountComments(ctx context.Context, postID int64) (int, error) {
	var count int
	err := r.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

// CountLikes returns the authoritative like row count for a post
func (r *postRepository) CountLikes(ctx context.Context, postID int64) (int, error) {
	var count int
	err := r.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count post likes: %w", err)
	}
	return count, nil
}

// ReconcileCommentCount recounts the post's comment rows and rewrites the
// cached column only when it drifted. A nil tx runs against the pooled
// connection.
func (r *postRepository) ReconcileCommentCount(ctx context.Context, tx *sql.Tx, postID int64) (int, bool, error) {
	if tx != nil {
		return reconcilePostCommentCount(ctx, tx, postID)
	}

	var count int
	var corrected bool
	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		count, corrected, err = reconcilePostCommentCount(ctx, tx, postID)
		return err
	})
	return count, corrected, err
}

// ReconcileLikeCount recounts the post's like rows and rewrites the cached
// column only when it drifted. A nil tx runs against the pooled connection.
func (r *postRepository) ReconcileLikeCount(ctx context.Context, tx *sql.Tx, postID int64) (int, bool, error) {
	if tx != nil {
		return reconcilePostLikeCount(ctx, tx, postID)
	}

	var count int
	var corrected bool
	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		count, corrected, err = reconcilePostLikeCount(ctx, tx, postID)
		return err
	})
	return count, corrected, err
}

func reconcilePostCommentCount(ctx context.Context, tx *sql.Tx, postID int64) (int, bool, error) {
	var actual, cached int
	err := tx.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM comments WHERE post_id = $1),
			comment_count
		FROM posts WHERE id = $1`, postID,
	).Scan(&actual, &cached)
	if err != nil {
		return 0, false, fmt.Errorf("failed to recount comments: %w", err)
	}

	if actual == cached {
		return actual, false, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE posts SET comment_count = $2 WHERE id = $1`, postID, actual)
	if err != nil {
		return 0, false, fmt.Errorf("failed to settle comment count: %w", err)
	}
	return actual, true, nil
}

func reconcilePostLikeCount(ctx context.Context, tx *sql.Tx, postID int64) (int, bool, error) {
	var actual, cached int
	err := tx.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM post_likes WHERE post_id = $1),
			like_count
		FROM posts WHERE id = $1`, postID,
	).Scan(&actual, &cached)
	if err != nil {
		return 0, false, fmt.Errorf("failed to recount post likes: %w", err)
	}

	if actual == cached {
		return actual, false, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE posts SET like_count = $2 WHERE id = $1`, postID, actual)
	if err != nil {
		return 0, false, fmt.Errorf("failed to settle post like count: %w", err)
	}
	return actual, true, nil
}
