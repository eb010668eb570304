// ===============================
// internal/handlers/api/v1/comments/comments_controller.go
// ===============================

package comments

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"maumlog/internal/contextutils"
	"maumlog/internal/response"
	"maumlog/internal/services"
	"maumlog/internal/thread"
	"maumlog/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
	"go.uber.org/zap"
)

// CommentController handles the comment API surface: CRUD, the ranked tree
// view and like toggles.
type CommentController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
	queryDecoder      *schema.Decoder
}

// NewCommentController creates a comment controller
func NewCommentController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *CommentController {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &CommentController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
		queryDecoder:      decoder,
	}
}

// ===============================
// COMMENT CRUD ENDPOINTS
// ===============================

// CreateComment handles POST /api/v1/comments
func (c *CommentController) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	var req services.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}
	req.UserID = userID

	if err := validation.ValidateStruct(&req); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError(err.Error(), err))
		return
	}

	comment, err := c.serviceCollection.GetCommentService().CreateComment(r.Context(), &req)
	if err != nil {
		c.handleServiceError(w, r, err, "create comment")
		return
	}

	c.logger.Info("Comment created via API",
		zap.Int64("comment_id", comment.ID),
		zap.Int64("post_id", comment.PostID),
		zap.Int64("user_id", userID),
		zap.Bool("is_reply", comment.ParentCommentID != nil),
	)

	c.responseBuilder.WriteCreated(w, r, comment)
}

// GetComment handles GET /api/v1/comments/{commentID}
func (c *CommentController) GetComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := c.idParam(r, "commentID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid comment ID", err))
		return
	}

	comment, err := c.serviceCollection.GetCommentService().GetCommentByID(r.Context(), commentID)
	if err != nil {
		c.handleServiceError(w, r, err, "get comment")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, comment)
}

// UpdateComment handles PUT /api/v1/comments/{commentID}
func (c *CommentController) UpdateComment(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	commentID, err := c.idParam(r, "commentID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid comment ID", err))
		return
	}

	var req services.UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}
	req.CommentID = commentID
	req.UserID = userID

	if err := validation.ValidateStruct(&req); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError(err.Error(), err))
		return
	}

	comment, err := c.serviceCollection.GetCommentService().UpdateComment(r.Context(), &req)
	if err != nil {
		c.handleServiceError(w, r, err, "update comment")
		return
	}

	c.logger.Info("Comment updated via API",
		zap.Int64("comment_id", commentID),
		zap.Int64("user_id", userID),
	)

	c.responseBuilder.WriteSuccess(w, r, comment)
}

// DeleteComment handles DELETE /api/v1/comments/{commentID}
func (c *CommentController) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	commentID, err := c.idParam(r, "commentID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid comment ID", err))
		return
	}

	if err := c.serviceCollection.GetCommentService().DeleteComment(r.Context(), commentID, userID); err != nil {
		c.handleServiceError(w, r, err, "delete comment")
		return
	}

	c.logger.Info("Comment deleted via API",
		zap.Int64("comment_id", commentID),
		zap.Int64("user_id", userID),
	)

	c.responseBuilder.WriteNoContent(w, r)
}

// ===============================
// TREE AND ENGAGEMENT ENDPOINTS
// ===============================

// treeQuery carries the GET query parameters of the tree endpoint.
type treeQuery struct {
	Sort      string `schema:"sort"`
	SplitBest bool   `schema:"split_best"`
}

// GetCommentTree handles GET /api/v1/posts/{postID}/comments
func (c *CommentController) GetCommentTree(w http.ResponseWriter, r *http.Request) {
	postID, err := c.idParam(r, "postID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid post ID", err))
		return
	}

	var q treeQuery
	if err := c.queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid query parameters", err))
		return
	}

	sort := thread.SortRanked
	switch q.Sort {
	case "", string(thread.SortRanked):
	case string(thread.SortChronological):
		sort = thread.SortChronological
	default:
		c.responseBuilder.WriteError(w, r, services.NewValidationError(
			fmt.Sprintf("unknown sort mode %q", q.Sort), nil))
		return
	}

	req := &services.CommentTreeRequest{
		PostID:    postID,
		Sort:      sort,
		SplitBest: q.SplitBest,
	}
	if userID := contextutils.GetUserID(r.Context()); userID != 0 {
		req.ViewerID = &userID
	}

	tree, err := c.serviceCollection.GetCommentService().GetCommentTree(r.Context(), req)
	if err != nil {
		c.handleServiceError(w, r, err, "get comment tree")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, tree)
}

// ToggleLike handles POST /api/v1/comments/{commentID}/like
func (c *CommentController) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	commentID, err := c.idParam(r, "commentID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid comment ID", err))
		return
	}

	result, err := c.serviceCollection.GetCommentService().ToggleLike(r.Context(), commentID, userID)
	if err != nil {
		c.handleServiceError(w, r, err, "toggle comment like")
		return
	}

	c.logger.Info("Comment like toggled via API",
		zap.Int64("comment_id", commentID),
		zap.Int64("user_id", userID),
		zap.Bool("liked", result.Liked),
	)

	c.responseBuilder.WriteSuccess(w, r, result)
}

// ===============================
// HELPER METHODS
// ===============================

// handleServiceError handles service errors with proper logging and response
func (c *CommentController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	c.logger.Error("Comment service error",
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)

	c.responseBuilder.WriteError(w, r, err)
}

// idParam extracts a positive int64 route parameter.
func (c *CommentController) idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}
