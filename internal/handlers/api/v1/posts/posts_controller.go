// ===============================
// internal/handlers/api/v1/posts/posts_controller.go
// ===============================

package posts

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"maumlog/internal/contextutils"
	"maumlog/internal/models"
	"maumlog/internal/response"
	"maumlog/internal/services"
	"maumlog/internal/validation"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PostController handles the post API surface for both boards: CRUD,
// cursor-paged listings, like toggles and encouragements.
type PostController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
	paginationParser  *response.PaginationParser
}

// NewPostController creates a post controller
func NewPostController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *PostController {
	return &PostController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
		paginationParser:  response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

// ===============================
// POST CRUD ENDPOINTS
// ===============================

// CreatePost handles POST /api/v1/posts
func (c *PostController) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	var req services.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}
	req.UserID = userID

	if err := validation.ValidateStruct(&req); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError(err.Error(), err))
		return
	}

	post, err := c.serviceCollection.GetPostService().CreatePost(r.Context(), &req)
	if err != nil {
		c.handleServiceError(w, r, err, "create post")
		return
	}

	c.logger.Info("Post created via API",
		zap.Int64("post_id", post.ID),
		zap.Int64("user_id", userID),
		zap.String("board", string(post.Board)),
		zap.Bool("anonymous", post.IsAnonymous),
	)

	c.responseBuilder.WriteCreated(w, r, post)
}

// GetPost handles GET /api/v1/posts/{postID}
func (c *PostController) GetPost(w http.ResponseWriter, r *http.Request) {
	postID, err := c.idParam(r, "postID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid post ID", err))
		return
	}

	var viewerID *int64
	if userID := contextutils.GetUserID(r.Context()); userID != 0 {
		viewerID = &userID
	}

	post, err := c.serviceCollection.GetPostService().GetPostByID(r.Context(), postID, viewerID)
	if err != nil {
		c.handleServiceError(w, r, err, "get post")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, post)
}

// UpdatePost handles PUT /api/v1/posts/{postID}
func (c *PostController) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	postID, err := c.idParam(r, "postID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid post ID", err))
		return
	}

	var req services.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}
	req.PostID = postID
	req.UserID = userID

	if err := validation.ValidateStruct(&req); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError(err.Error(), err))
		return
	}

	post, err := c.serviceCollection.GetPostService().UpdatePost(r.Context(), &req)
	if err != nil {
		c.handleServiceError(w, r, err, "update post")
		return
	}

	c.logger.Info("Post updated via API",
		zap.Int64("post_id", postID),
		zap.Int64("user_id", userID),
	)

	c.responseBuilder.WriteSuccess(w, r, post)
}

// DeletePost handles DELETE /api/v1/posts/{postID}
func (c *PostController) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	postID, err := c.idParam(r, "postID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid post ID", err))
		return
	}

	if err := c.serviceCollection.GetPostService().DeletePost(r.Context(), postID, userID); err != nil {
		c.handleServiceError(w, r, err, "delete post")
		return
	}

	c.logger.Info("Post deleted via API",
		zap.Int64("post_id", postID),
		zap.Int64("user_id", userID),
	)

	c.responseBuilder.WriteNoContent(w, r)
}

// ===============================
// LISTING ENDPOINTS
// ===============================

// ListBoard handles GET /api/v1/boards/{board}/posts
func (c *PostController) ListBoard(w http.ResponseWriter, r *http.Request) {
	board := models.Board(chi.URLParam(r, "board"))
	if !board.Valid() {
		c.responseBuilder.WriteError(w, r, services.NewValidationError(
			fmt.Sprintf("unknown board %q", string(board)), nil))
		return
	}

	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid pagination parameters", err))
		return
	}

	req := &services.ListBoardRequest{
		Board:  board,
		Params: *params,
	}
	if userID := contextutils.GetUserID(r.Context()); userID != 0 {
		req.ViewerID = &userID
	}

	page, err := c.serviceCollection.GetPostService().ListBoard(r.Context(), req)
	if err != nil {
		c.handleServiceError(w, r, err, "list board")
		return
	}

	c.responseBuilder.WritePaginated(w, r, page.Items, params.Limit, page.PageInfo)
}

// GetMyPosts handles GET /api/v1/users/me/posts
func (c *PostController) GetMyPosts(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid pagination parameters", err))
		return
	}

	page, err := c.serviceCollection.GetPostService().GetPostsByUser(r.Context(), userID, *params)
	if err != nil {
		c.handleServiceError(w, r, err, "list user posts")
		return
	}

	c.responseBuilder.WritePaginated(w, r, page.Items, params.Limit, page.PageInfo)
}

// ===============================
// ENGAGEMENT ENDPOINTS
// ===============================

// ToggleLike handles POST /api/v1/posts/{postID}/like
func (c *PostController) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	postID, err := c.idParam(r, "postID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid post ID", err))
		return
	}

	result, err := c.serviceCollection.GetPostService().ToggleLike(r.Context(), postID, userID)
	if err != nil {
		c.handleServiceError(w, r, err, "toggle post like")
		return
	}

	c.logger.Info("Post like toggled via API",
		zap.Int64("post_id", postID),
		zap.Int64("user_id", userID),
		zap.Bool("liked", result.Liked),
	)

	c.responseBuilder.WriteSuccess(w, r, result)
}

// SendEncouragement handles POST /api/v1/posts/{postID}/encourage
func (c *PostController) SendEncouragement(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	postID, err := c.idParam(r, "postID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid post ID", err))
		return
	}

	var req services.EncouragementRequest
	if r.Body != nil {
		// Message body is optional.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	req.PostID = postID
	req.ActorID = userID

	if err := validation.ValidateStruct(&req); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError(err.Error(), err))
		return
	}

	if err := c.serviceCollection.GetPostService().SendEncouragement(r.Context(), &req); err != nil {
		c.handleServiceError(w, r, err, "send encouragement")
		return
	}

	c.logger.Info("Encouragement sent via API",
		zap.Int64("post_id", postID),
		zap.Int64("actor_id", userID),
	)

	c.responseBuilder.WriteNoContent(w, r)
}

// ===============================
// HELPER METHODS
// ===============================

// handleServiceError handles service errors with proper logging and response
func (c *PostController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	c.logger.Error("Post service error",
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)

	c.responseBuilder.WriteError(w, r, err)
}

// idParam extracts a positive int64 route parameter.
func (c *PostController) idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}
