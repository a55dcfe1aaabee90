// File: internal/chat/service.go
package chat

import (
	"context"
	"strings"
	"time"

	"swapseva_backend/internal/common"
	"swapseva_backend/internal/notification"
	"swapseva_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the interface for chat business logic.
type Service interface {
	SendMessage(ctx context.Context, senderID uuid.UUID, req SendMessageRequest) (*Message, error)
	MarkRead(ctx context.Context, chatID uuid.UUID, userID uuid.UUID) error
	CompleteTrade(ctx context.Context, chatID uuid.UUID, userID uuid.UUID) (*Chat, error)
	GetChat(ctx context.Context, chatID uuid.UUID, userID uuid.UUID) (*ChatResponse, error)
	ListChatsForUser(ctx context.Context, userID uuid.UUID) ([]ChatResponse, error)
}

// ServiceImplementation provides chat business logic.
type ServiceImplementation struct {
	repo                Repository
	notificationService notification.Service
	userService         shared.Service
	relay               shared.Relay
	logger              *zap.Logger
}

// NewService creates a new chat service. relay may be nil.
func NewService(
	repo Repository,
	notificationService notification.Service,
	userService shared.Service,
	relay shared.Relay,
	logger *zap.Logger,
) Service {
	return &ServiceImplementation{
		repo:                repo,
		notificationService: notificationService,
		userService:         userService,
		relay:               relay,
		logger:              logger.Named("ChatService"),
	}
}

// SendMessage appends a message to a chat. The database write is the source of
// truth; the notification and the realtime push are best-effort afterwards.
func (s *ServiceImplementation) SendMessage(ctx context.Context, senderID uuid.UUID, req SendMessageRequest) (*Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, common.ErrBadRequest.WithDetails("Message content cannot be empty.")
	}

	chat, err := s.repo.FindByID(ctx, req.ChatID, false)
	if err != nil {
		return nil, err
	}
	if !chat.IsParticipant(senderID) {
		return nil, common.ErrForbidden.WithDetails("You are not a participant in this chat.")
	}

	message := &Message{
		ChatID:   chat.ID,
		SenderID: senderID,
		Content:  content,
	}
	if err := s.repo.AppendMessage(ctx, chat, message); err != nil {
		s.logger.Error("Failed to append message",
			zap.Error(err),
			zap.String("chatID", chat.ID.String()),
			zap.String("senderID", senderID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not send message.")
	}

	counterpartID := chat.CounterpartID(senderID)

	// The message row already exists; a failed notification must not fail
	// the send.
	_, notifErr := s.notificationService.CreateNotification(ctx, notification.CreateInput{
		RecipientID: counterpartID,
		SenderID:    &senderID,
		Type:        notification.TypeMessage,
		Title:       "New message",
		Message:     truncateForPreview(content),
		Data: notification.JSONMap{
			"chat_id":    chat.ID.String(),
			"message_id": message.ID.String(),
		},
	})
	if notifErr != nil {
		s.logger.Warn("Failed to create message notification",
			zap.Error(notifErr),
			zap.String("chatID", chat.ID.String()))
	}

	if s.relay != nil {
		s.relay.SendToUser(counterpartID, shared.NewEvent(shared.EventNewMessage, message))
	}

	return message, nil
}

// MarkRead marks all counterpart messages read and zeroes the caller's unread
// counter. Safe to call repeatedly.
func (s *ServiceImplementation) MarkRead(ctx context.Context, chatID uuid.UUID, userID uuid.UUID) error {
	chat, err := s.repo.FindByID(ctx, chatID, false)
	if err != nil {
		return err
	}
	if !chat.IsParticipant(userID) {
		return common.ErrForbidden.WithDetails("You are not a participant in this chat.")
	}
	if err := s.repo.MarkRead(ctx, chat, userID); err != nil {
		s.logger.Error("Failed to mark chat read", zap.Error(err), zap.String("chatID", chatID.String()))
		return common.ErrInternalServer.WithDetails("Could not update read state.")
	}
	return nil
}

// CompleteTrade transitions the chat's trade to completed. Either participant
// may complete; a repeat call fails with an invalid-state error and leaves the
// original completion time untouched.
func (s *ServiceImplementation) CompleteTrade(ctx context.Context, chatID uuid.UUID, userID uuid.UUID) (*Chat, error) {
	chat, err := s.repo.FindByID(ctx, chatID, false)
	if err != nil {
		return nil, err
	}
	if !chat.IsParticipant(userID) {
		return nil, common.ErrForbidden.WithDetails("You are not a participant in this chat.")
	}

	completedAt := time.Now()
	swapped, err := s.repo.CompleteTrade(ctx, chatID, completedAt)
	if err != nil {
		s.logger.Error("Failed to complete trade", zap.Error(err), zap.String("chatID", chatID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not complete trade.")
	}
	if !swapped {
		return nil, common.ErrInvalidState.WithDetails("This trade has already been completed.")
	}

	counterpartID := chat.CounterpartID(userID)
	_, notifErr := s.notificationService.CreateNotification(ctx, notification.CreateInput{
		RecipientID: counterpartID,
		SenderID:    &userID,
		Type:        notification.TypeBarterCompleted,
		Title:       "Trade completed",
		Message:     "Your trade partner marked the trade as completed.",
		Data: notification.JSONMap{
			"chat_id": chat.ID.String(),
		},
	})
	if notifErr != nil {
		s.logger.Warn("Failed to create trade-completed notification",
			zap.Error(notifErr),
			zap.String("chatID", chat.ID.String()))
	}

	if s.relay != nil {
		event := shared.NewEvent(shared.EventTradeCompleted, map[string]string{"chat_id": chat.ID.String()})
		s.relay.SendToUser(chat.InitiatorID, event)
		s.relay.SendToUser(chat.ResponderID, event)
	}

	updated, err := s.repo.FindByID(ctx, chatID, false)
	if err != nil {
		chat.Status = StatusCompleted
		chat.CompletedAt = &completedAt
		return chat, nil
	}

	s.logger.Info("Trade completed",
		zap.String("chatID", chatID.String()),
		zap.String("completedBy", userID.String()))
	return updated, nil
}

// GetChat returns a chat with its messages and implicitly marks it read for
// the caller.
func (s *ServiceImplementation) GetChat(ctx context.Context, chatID uuid.UUID, userID uuid.UUID) (*ChatResponse, error) {
	chat, err := s.repo.FindByID(ctx, chatID, true)
	if err != nil {
		return nil, err
	}
	if !chat.IsParticipant(userID) {
		return nil, common.ErrForbidden.WithDetails("You are not a participant in this chat.")
	}

	if err := s.repo.MarkRead(ctx, chat, userID); err != nil {
		// Reading the chat should still succeed if the read-state write fails.
		s.logger.Warn("Failed to mark chat read on fetch", zap.Error(err), zap.String("chatID", chatID.String()))
	} else {
		if chat.InitiatorID == userID {
			chat.InitiatorUnread = 0
		} else {
			chat.ResponderUnread = 0
		}
		// The messages were preloaded before the read-state write; reflect it.
		for i := range chat.Messages {
			if chat.Messages[i].SenderID != userID {
				chat.Messages[i].IsRead = true
			}
		}
	}

	response := ToChatResponse(chat)
	response.Messages = chat.Messages
	response.Counterpart = s.participantInfo(ctx, chat.CounterpartID(userID))
	return &response, nil
}

// ListChatsForUser returns all of a user's chats, most recently updated first,
// with counterpart info and the last message of each chat.
func (s *ServiceImplementation) ListChatsForUser(ctx context.Context, userID uuid.UUID) ([]ChatResponse, error) {
	chats, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list chats", zap.Error(err), zap.String("userID", userID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not retrieve chats.")
	}

	chatIDs := make([]uuid.UUID, len(chats))
	for i := range chats {
		chatIDs[i] = chats[i].ID
	}
	lastMessages, err := s.repo.FindLastMessages(ctx, chatIDs)
	if err != nil {
		s.logger.Warn("Failed to load last messages for chat list", zap.Error(err))
		lastMessages = map[uuid.UUID]Message{}
	}

	responses := make([]ChatResponse, len(chats))
	for i := range chats {
		response := ToChatResponse(&chats[i])
		response.Counterpart = s.participantInfo(ctx, chats[i].CounterpartID(userID))
		if last, ok := lastMessages[chats[i].ID]; ok {
			lastCopy := last
			response.LastMessage = &lastCopy
		}
		responses[i] = response
	}
	return responses, nil
}

func (s *ServiceImplementation) participantInfo(ctx context.Context, userID uuid.UUID) *ParticipantInfo {
	u, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to load chat participant info", zap.Error(err), zap.String("userID", userID.String()))
		return &ParticipantInfo{ID: userID}
	}
	return &ParticipantInfo{
		ID:                u.ID,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		ProfilePictureURL: u.ProfilePictureURL,
	}
}

func truncateForPreview(content string) string {
	const maxPreview = 120
	runes := []rune(content)
	if len(runes) <= maxPreview {
		return content
	}
	return string(runes[:maxPreview]) + "…"
}
