package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"aklny/internal/apperror"
	"aklny/internal/auth"
	"aklny/internal/model"
	"aklny/internal/repository"

	"github.com/google/uuid"
)

// ChatHistoryLimit is how many messages a joining client receives.
const ChatHistoryLimit = 50

type SendMessageRequest struct {
	Room        string `json:"room"`
	Message     string `json:"message"`
	RecipientID string `json:"recipientId"`
	MessageType string `json:"messageType"`
}

type ChatService interface {
	// JoinRoom authorizes the caller for room and returns its recent history.
	JoinRoom(ctx context.Context, caller *auth.Claims, room string) ([]model.ChatMessage, error)
	// Send stores a message from the caller. The sender is always the caller.
	Send(ctx context.Context, caller *auth.Claims, req SendMessageRequest) (*model.ChatMessage, error)
	// MarkRead marks the messages in room addressed to the caller as read.
	MarkRead(ctx context.Context, caller *auth.Claims, room string) (int64, error)
}

type chatService struct {
	chats  repository.ChatRepository
	orders repository.OrderRepository
	now    func() time.Time
}

func NewChatService(chats repository.ChatRepository, orders repository.OrderRepository) ChatService {
	return &chatService{chats: chats, orders: orders, now: func() time.Time { return time.Now().UTC() }}
}

// authorizeRoom guards the reserved rooms: user_<id> belongs to that user and
// order_<id> to the order's participants. Other rooms are open to any caller.
func (s *chatService) authorizeRoom(ctx context.Context, caller *auth.Claims, room string) error {
	room = strings.TrimSpace(room)
	if room == "" {
		return apperror.Validation("room is required")
	}

	switch {
	case strings.HasPrefix(room, "user_"):
		if caller.Role != model.RoleAdmin && room != UserRoom(caller.UserID) {
			return apperror.Forbidden("you cannot join another user's room")
		}
	case strings.HasPrefix(room, "order_"):
		id, err := uuid.Parse(strings.TrimPrefix(room, "order_"))
		if err != nil {
			return apperror.Validation("invalid order room")
		}
		order, err := s.orders.FindByID(ctx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperror.NotFound("order not found")
			}
			return apperror.Internal(err)
		}
		if !canViewOrder(caller, order) {
			return apperror.Forbidden("you are not a participant of this order")
		}
	}
	return nil
}

func (s *chatService) JoinRoom(ctx context.Context, caller *auth.Claims, room string) ([]model.ChatMessage, error) {
	if err := s.authorizeRoom(ctx, caller, room); err != nil {
		return nil, err
	}
	history, err := s.chats.History(ctx, room, ChatHistoryLimit)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("load chat history: %w", err))
	}
	return history, nil
}

func (s *chatService) Send(ctx context.Context, caller *auth.Claims, req SendMessageRequest) (*model.ChatMessage, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, apperror.Validation("message is required")
	}
	if utf8.RuneCountInString(text) > model.MaxChatMessageLength {
		return nil, apperror.Validation(fmt.Sprintf("message exceeds %d characters", model.MaxChatMessageLength))
	}

	messageType := req.MessageType
	switch messageType {
	case "":
		messageType = model.MessageTypeText
	case model.MessageTypeText, model.MessageTypeImage:
	default:
		return nil, apperror.Validation("messageType must be text or image")
	}

	if err := s.authorizeRoom(ctx, caller, req.Room); err != nil {
		return nil, err
	}

	now := s.now()
	msg := &model.ChatMessage{
		Room:        req.Room,
		SenderID:    caller.UserID,
		RecipientID: req.RecipientID,
		Message:     text,
		MessageType: messageType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.chats.Save(ctx, msg); err != nil {
		return nil, apperror.Internal(fmt.Errorf("save chat message: %w", err))
	}
	return msg, nil
}

func (s *chatService) MarkRead(ctx context.Context, caller *auth.Claims, room string) (int64, error) {
	if err := s.authorizeRoom(ctx, caller, room); err != nil {
		return 0, err
	}
	n, err := s.chats.MarkRead(ctx, room, caller.UserID, "")
	if err != nil {
		return 0, apperror.Internal(fmt.Errorf("mark messages read: %w", err))
	}
	return n, nil
}
