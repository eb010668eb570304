package comments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"maumlog/internal/middleware"
	"maumlog/internal/models"
	"maumlog/internal/response"
	"maumlog/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubCommentService records calls and returns canned results.
type stubCommentService struct {
	created  *services.CreateCommentRequest
	tree     *models.CommentTree
	treeReq  *services.CommentTreeRequest
	likeResp *services.LikeResult
}

func (s *stubCommentService) CreateComment(ctx context.Context, req *services.CreateCommentRequest) (*models.Comment, error) {
	s.created = req
	return &models.Comment{ID: 1, PostID: req.PostID, UserID: req.UserID, Content: req.Content}, nil
}

func (s *stubCommentService) GetCommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	if id == 404 {
		return nil, services.EntityNotFoundError("comment", id)
	}
	return &models.Comment{ID: id, PostID: 10, UserID: 1, Content: "댓글"}, nil
}

func (s *stubCommentService) UpdateComment(ctx context.Context, req *services.UpdateCommentRequest) (*models.Comment, error) {
	return &models.Comment{ID: req.CommentID, PostID: 10, UserID: req.UserID, Content: req.Content}, nil
}

func (s *stubCommentService) DeleteComment(ctx context.Context, commentID, userID int64) error {
	return nil
}

func (s *stubCommentService) GetCommentTree(ctx context.Context, req *services.CommentTreeRequest) (*models.CommentTree, error) {
	s.treeReq = req
	if s.tree != nil {
		return s.tree, nil
	}
	return &models.CommentTree{Roots: []*models.CommentNode{}, Best: []*models.CommentNode{}}, nil
}

func (s *stubCommentService) ToggleLike(ctx context.Context, commentID, userID int64) (*services.LikeResult, error) {
	if s.likeResp != nil {
		return s.likeResp, nil
	}
	return &services.LikeResult{Liked: true, LikeCount: 1}, nil
}

func newTestRouter(stub *stubCommentService) http.Handler {
	logger := zap.NewNop()
	builder := response.NewBuilder(response.DefaultConfig(), logger)
	collection := &services.ServiceCollection{CommentService: stub}
	controller := NewCommentController(collection, logger, builder)

	r := chi.NewRouter()
	r.Use(middleware.Identity(logger))
	r.Get("/api/v1/posts/{postID}/comments", controller.GetCommentTree)
	r.Get("/api/v1/comments/{commentID}", controller.GetComment)
	r.Group(func(auth chi.Router) {
		auth.Use(middleware.RequireIdentity())
		auth.Post("/api/v1/comments", controller.CreateComment)
		auth.Post("/api/v1/comments/{commentID}/like", controller.ToggleLike)
	})
	return r
}

func TestCreateCommentRequiresIdentity(t *testing.T) {
	router := newTestRouter(&stubCommentService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments",
		strings.NewReader(`{"post_id":10,"content":"안녕하세요"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateCommentSetsUserFromHeader(t *testing.T) {
	stub := &stubCommentService{}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments",
		strings.NewReader(`{"post_id":10,"content":"안녕하세요","user_id":999}`))
	req.Header.Set(middleware.UserIDHeader, "7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, stub.created)
	assert.Equal(t, int64(7), stub.created.UserID, "body user_id must not override the identity header")
}

func TestGetCommentTreeParsesQuery(t *testing.T) {
	stub := &stubCommentService{}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/posts/10/comments?sort=chronological&split_best=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.treeReq)
	assert.Equal(t, int64(10), stub.treeReq.PostID)
	assert.Equal(t, "chronological", string(stub.treeReq.Sort))
	assert.True(t, stub.treeReq.SplitBest)
	assert.Nil(t, stub.treeReq.ViewerID)
}

func TestGetCommentTreeRejectsUnknownSort(t *testing.T) {
	router := newTestRouter(&stubCommentService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/10/comments?sort=hot", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCommentNotFound(t *testing.T) {
	router := newTestRouter(&stubCommentService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/comments/404", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var envelope struct {
		Success bool `json:"success"`
		Error   *struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Type)
}

func TestToggleLikeReturnsResult(t *testing.T) {
	stub := &stubCommentService{likeResp: &services.LikeResult{Liked: true, LikeCount: 4}}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments/50/like", nil)
	req.Header.Set(middleware.UserIDHeader, "7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Success bool                 `json:"success"`
		Data    *services.LikeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	require.NotNil(t, envelope.Data)
	assert.True(t, envelope.Data.Liked)
	assert.Equal(t, 4, envelope.Data.LikeCount)
}
