package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestThreadHandler_ExpressInterest_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ThreadHandler{threads: nil}
	r.POST("/posts/:id/interest", handler.ExpressInterest)

	postID := uuid.New()
	req, _ := http.NewRequest("POST", "/posts/"+postID.String()+"/interest", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestThreadHandler_ExpressInterest_InvalidPostID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	handler := &ThreadHandler{threads: nil}
	r.POST("/posts/:id/interest", handler.ExpressInterest)

	req, _ := http.NewRequest("POST", "/posts/not-a-uuid/interest", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestThreadHandler_SendMessage_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ThreadHandler{threads: nil}
	r.POST("/threads/:id/messages", handler.SendMessage)

	threadID := uuid.New()
	req, _ := http.NewRequest("POST", "/threads/"+threadID.String()+"/messages", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestThreadHandler_ListMessages_InvalidThreadID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	handler := &ThreadHandler{threads: nil}
	r.GET("/threads/:id/messages", handler.ListMessages)

	req, _ := http.NewRequest("GET", "/threads/not-a-uuid/messages", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
