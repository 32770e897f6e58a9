package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pkg/response"
	"github.com/qs3c/revastra_server/internal/service"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// StartConversation 发起会话，已有会话时直接返回
// POST /api/v1/conversations
func (h *ChatHandler) StartConversation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.chatService.StartConversation(c.Request.Context(), userID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, resp)
}

// ListConversations 会话列表
// GET /api/v1/conversations
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.chatService.ListConversations(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, items)
}

// ListMessages 消息列表
// GET /api/v1/conversations/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.MessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	messages, total, err := h.chatService.ListMessages(c.Request.Context(), userID, conversationID, req.Page, req.PageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	page, pageSize := pageOf(req.Page, req.PageSize)
	response.SuccessPage(c, total, page, pageSize, messages)
}

// SendMessage 发送消息；JSON 发文本，multipart 可附带一张图片（字段 image）
// POST /api/v1/conversations/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	var image *service.FileUpload
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if _, err := c.FormFile("image"); err == nil {
			upload, f, ok := formUpload(c, "image")
			if !ok {
				return
			}
			defer f.Close()
			image = upload
		}
	}

	msg, err := h.chatService.SendMessage(c.Request.Context(), userID, conversationID, req.Content, image)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, msg)
}

// MarkRead 标记已读
// POST /api/v1/conversations/:id/read
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	n, err := h.chatService.MarkRead(c.Request.Context(), userID, conversationID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"marked": n})
}

// UnreadCount 未读消息总数
// GET /api/v1/conversations/unread-count
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	n, err := h.chatService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"unread": n})
}
