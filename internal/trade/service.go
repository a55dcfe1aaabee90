// File: internal/trade/service.go
package trade

import (
	"context"
	"fmt"
	"time"

	"swapseva_backend/internal/chat"
	"swapseva_backend/internal/common"
	"swapseva_backend/internal/notification"
	"swapseva_backend/internal/offering"
	"swapseva_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service defines the interface for the trade workflow.
type Service interface {
	// RequestTrade initiates a trade against one of the recipient's offerings.
	RequestTrade(ctx context.Context, requesterID uuid.UUID, req ConnectRequest) (*TradeRequest, error)
	// AcceptTrade lets the offering owner accept, selecting one of the
	// requester's candidate items.
	AcceptTrade(ctx context.Context, accepterID uuid.UUID, req AcceptTradeRequest) (*TradeRequest, error)
	// ConfirmTrade lets the original requester confirm the accepted trade,
	// materializing the chat. Returns the created chat's id.
	ConfirmTrade(ctx context.Context, confirmerID uuid.UUID, req ConfirmTradeRequest) (uuid.UUID, error)
	// DeclineTrade terminates a pending or accepted trade.
	DeclineTrade(ctx context.Context, declinerID uuid.UUID, req DeclineTradeRequest) error
}

// ServiceImplementation drives the trade workflow state machine.
type ServiceImplementation struct {
	repo                Repository
	offeringService     offering.Service
	notificationService notification.Service
	chatRepo            chat.Repository
	userService         shared.Service
	logger              *zap.Logger
}

// NewService creates a new trade service.
func NewService(
	repo Repository,
	offeringService offering.Service,
	notificationService notification.Service,
	chatRepo chat.Repository,
	userService shared.Service,
	logger *zap.Logger,
) Service {
	return &ServiceImplementation{
		repo:                repo,
		offeringService:     offeringService,
		notificationService: notificationService,
		chatRepo:            chatRepo,
		userService:         userService,
		logger:              logger.Named("TradeService"),
	}
}

// RequestTrade validates the target offering and the requester's tradable
// inventory, then creates a pending trade request plus the barter_request
// notification carrying display snapshots.
func (s *ServiceImplementation) RequestTrade(ctx context.Context, requesterID uuid.UUID, req ConnectRequest) (*TradeRequest, error) {
	if requesterID == req.RecipientID {
		return nil, common.ErrInvalidState.WithDetails("You cannot trade with yourself.")
	}

	target, err := s.offeringService.GetOfferingByID(ctx, req.OfferingID)
	if err != nil {
		return nil, err
	}
	if target.UserID != req.RecipientID {
		return nil, common.ErrBadRequest.WithDetails("The offering does not belong to the specified recipient.")
	}
	if !target.IsApproved || target.IsRejected {
		return nil, common.ErrInvalidState.WithDetails("This offering is not available for trade.")
	}

	candidates, err := s.offeringService.ListTradableOfferings(ctx, requesterID, target.Type)
	if err != nil {
		s.logger.Error("Failed to load requester's tradable offerings", zap.Error(err), zap.String("requesterID", requesterID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not prepare trade request.")
	}
	if len(candidates) == 0 {
		return nil, common.ErrInvalidState.WithDetails(
			fmt.Sprintf("You have nothing to trade: no approved %s offerings.", target.Type))
	}

	offeredIDs := make([]string, len(candidates))
	offeredSnapshots := make([]OfferingSnapshot, len(candidates))
	for i := range candidates {
		offeredIDs[i] = candidates[i].ID.String()
		offeredSnapshots[i] = SnapshotOffering(&candidates[i])
	}

	tradeRequest := &TradeRequest{
		RequesterID:         requesterID,
		RecipientID:         req.RecipientID,
		RequestedOfferingID: target.ID,
		OfferedItemIDs:      offeredIDs,
		Status:              StatusPending,
	}
	if err := s.repo.Create(ctx, tradeRequest); err != nil {
		s.logger.Error("Failed to create trade request", zap.Error(err), zap.String("requesterID", requesterID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not create trade request.")
	}

	_, notifErr := s.notificationService.CreateNotification(ctx, notification.CreateInput{
		RecipientID: req.RecipientID,
		SenderID:    &requesterID,
		Type:        notification.TypeBarterRequest,
		Title:       "New barter request",
		Message:     fmt.Sprintf("%s wants to trade for '%s'.", s.displayName(ctx, requesterID), target.Title),
		Priority:    notification.PriorityHigh,
		Data: notification.JSONMap{
			"trade_request_id":   tradeRequest.ID.String(),
			"requested_offering": SnapshotOffering(target),
			"offered_items":      offeredSnapshots,
		},
	})
	if notifErr != nil {
		// The trade request row is the source of truth; a lost notification
		// is recoverable by the recipient browsing incoming requests.
		s.logger.Error("Failed to create barter_request notification",
			zap.Error(notifErr),
			zap.String("tradeRequestID", tradeRequest.ID.String()))
	}

	s.logger.Info("Trade requested",
		zap.String("tradeRequestID", tradeRequest.ID.String()),
		zap.String("requesterID", requesterID.String()),
		zap.String("recipientID", req.RecipientID.String()),
		zap.Int("offeredItems", len(offeredIDs)))
	return tradeRequest, nil
}

// AcceptTrade advances pending -> accepted for the offering owner, recording
// which of the requester's items was selected.
func (s *ServiceImplementation) AcceptTrade(ctx context.Context, accepterID uuid.UUID, req AcceptTradeRequest) (*TradeRequest, error) {
	notif, err := s.notificationService.GetNotificationByID(ctx, req.NotificationID)
	if err != nil {
		return nil, err
	}
	if notif.RecipientID != accepterID {
		return nil, common.ErrForbidden.WithDetails("This notification does not belong to you.")
	}
	if notif.Type != notification.TypeBarterRequest {
		return nil, common.ErrInvalidState.WithDetails("This notification is not a barter request.")
	}

	tradeRequest, err := s.tradeRequestFromNotification(ctx, notif)
	if err != nil {
		return nil, err
	}
	if tradeRequest.RecipientID != accepterID {
		return nil, common.ErrForbidden.WithDetails("You are not the recipient of this trade request.")
	}
	if !tradeRequest.ContainsOfferedItem(req.SelectedItemID) {
		return nil, common.ErrNotFound.WithDetails("The selected item is not among the offered items.")
	}

	swapped, err := s.repo.Accept(ctx, tradeRequest.ID, req.SelectedItemID)
	if err != nil {
		s.logger.Error("Failed to accept trade request", zap.Error(err), zap.String("tradeRequestID", tradeRequest.ID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not accept trade request.")
	}
	if !swapped {
		return nil, common.ErrInvalidState.WithDetails("This trade request has already been handled.")
	}

	if err := s.notificationService.MarkAsRead(ctx, notif.ID, accepterID); err != nil {
		s.logger.Warn("Failed to mark barter_request notification read", zap.Error(err), zap.String("notificationID", notif.ID.String()))
	}

	selected, err := s.offeringService.GetOfferingByID(ctx, req.SelectedItemID)
	selectedSnapshot := OfferingSnapshot{ID: req.SelectedItemID.String()}
	if err == nil {
		selectedSnapshot = SnapshotOffering(selected)
	}

	_, notifErr := s.notificationService.CreateNotification(ctx, notification.CreateInput{
		RecipientID: tradeRequest.RequesterID,
		SenderID:    &accepterID,
		Type:        notification.TypeBarterAccepted,
		Title:       "Barter request accepted",
		Message:     fmt.Sprintf("%s accepted your barter request. Confirm to start trading.", s.displayName(ctx, accepterID)),
		Priority:    notification.PriorityHigh,
		Data: notification.JSONMap{
			"trade_request_id":  tradeRequest.ID.String(),
			"selected_offering": selectedSnapshot,
		},
	})
	if notifErr != nil {
		s.logger.Error("Failed to create barter_accepted notification",
			zap.Error(notifErr),
			zap.String("tradeRequestID", tradeRequest.ID.String()))
	}

	updated, err := s.repo.FindByID(ctx, tradeRequest.ID)
	if err != nil {
		s.logger.Warn("Failed to reload trade request after accept",
			zap.Error(err),
			zap.String("tradeRequestID", tradeRequest.ID.String()))
		selectedID := req.SelectedItemID
		tradeRequest.Status = StatusAccepted
		tradeRequest.SelectedOfferingID = &selectedID
		return tradeRequest, nil
	}

	s.logger.Info("Trade accepted",
		zap.String("tradeRequestID", tradeRequest.ID.String()),
		zap.String("accepterID", accepterID.String()),
		zap.String("selectedItemID", req.SelectedItemID.String()))
	return updated, nil
}

// ConfirmTrade advances accepted -> confirmed and materializes the chat. The
// status swap, the chat insert, and both trade_confirmed notifications commit
// in one transaction so a crash cannot leave a confirmed trade without a chat.
func (s *ServiceImplementation) ConfirmTrade(ctx context.Context, confirmerID uuid.UUID, req ConfirmTradeRequest) (uuid.UUID, error) {
	notif, err := s.notificationService.GetNotificationByID(ctx, req.NotificationID)
	if err != nil {
		return uuid.Nil, err
	}
	if notif.RecipientID != confirmerID {
		return uuid.Nil, common.ErrForbidden.WithDetails("This notification does not belong to you.")
	}
	if notif.Type != notification.TypeBarterAccepted {
		return uuid.Nil, common.ErrInvalidState.WithDetails("This notification is not an accepted barter request.")
	}

	tradeRequest, err := s.tradeRequestFromNotification(ctx, notif)
	if err != nil {
		return uuid.Nil, err
	}
	if tradeRequest.RequesterID != confirmerID {
		return uuid.Nil, common.ErrForbidden.WithDetails("Only the original requester can confirm this trade.")
	}
	if tradeRequest.RequesterID == tradeRequest.RecipientID {
		return uuid.Nil, common.ErrInvalidState.WithDetails("You cannot trade with yourself.")
	}
	if tradeRequest.SelectedOfferingID == nil {
		return uuid.Nil, common.ErrInvalidState.WithDetails("This trade request has no selected item.")
	}

	now := time.Now()
	newChat := &chat.Chat{
		InitiatorID:         tradeRequest.RequesterID,
		ResponderID:         tradeRequest.RecipientID,
		InitiatorOfferingID: *tradeRequest.SelectedOfferingID,
		ResponderOfferingID: tradeRequest.RequestedOfferingID,
		Status:              chat.StatusConfirmed,
		ConfirmedAt:         now,
	}

	var createdNotifications []*notification.Notification
	txErr := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.chatRepo.CreateTx(tx, newChat); err != nil {
			return err
		}
		swapped, err := s.repo.ConfirmTx(tx, tradeRequest.ID, newChat.ID)
		if err != nil {
			return err
		}
		if !swapped {
			return common.ErrInvalidState.WithDetails("This trade request has already been handled.")
		}

		data := notification.JSONMap{
			"trade_request_id": tradeRequest.ID.String(),
			"chat_id":          newChat.ID.String(),
		}
		for _, party := range []struct {
			recipient uuid.UUID
			sender    uuid.UUID
		}{
			{recipient: tradeRequest.RecipientID, sender: tradeRequest.RequesterID},
			{recipient: tradeRequest.RequesterID, sender: tradeRequest.RecipientID},
		} {
			senderID := party.sender
			created, err := s.notificationService.CreateNotificationTx(tx, notification.CreateInput{
				RecipientID: party.recipient,
				SenderID:    &senderID,
				Type:        notification.TypeTradeConfirmed,
				Title:       "Trade confirmed",
				Message:     "Your trade is confirmed. A chat has been opened for you.",
				Priority:    notification.PriorityHigh,
				Data:        data,
			})
			if err != nil {
				return err
			}
			createdNotifications = append(createdNotifications, created)
		}
		return nil
	})
	if txErr != nil {
		if apiErr, ok := common.IsAPIError(txErr); ok {
			return uuid.Nil, apiErr
		}
		s.logger.Error("Failed to confirm trade", zap.Error(txErr), zap.String("tradeRequestID", tradeRequest.ID.String()))
		return uuid.Nil, common.ErrInternalServer.WithDetails("Could not confirm trade.")
	}

	if err := s.notificationService.MarkAsRead(ctx, notif.ID, confirmerID); err != nil {
		s.logger.Warn("Failed to mark barter_accepted notification read", zap.Error(err), zap.String("notificationID", notif.ID.String()))
	}
	for _, created := range createdNotifications {
		s.notificationService.Publish(created)
	}

	s.logger.Info("Trade confirmed",
		zap.String("tradeRequestID", tradeRequest.ID.String()),
		zap.String("chatID", newChat.ID.String()),
		zap.String("confirmerID", confirmerID.String()))
	return newChat.ID, nil
}

// DeclineTrade terminates a live trade request. The offering owner declines a
// barter_request; the requester declines after a barter_accepted.
func (s *ServiceImplementation) DeclineTrade(ctx context.Context, declinerID uuid.UUID, req DeclineTradeRequest) error {
	notif, err := s.notificationService.GetNotificationByID(ctx, req.NotificationID)
	if err != nil {
		return err
	}
	if notif.RecipientID != declinerID {
		return common.ErrForbidden.WithDetails("This notification does not belong to you.")
	}
	if notif.Type != notification.TypeBarterRequest && notif.Type != notification.TypeBarterAccepted {
		return common.ErrInvalidState.WithDetails("This notification cannot be declined.")
	}

	tradeRequest, err := s.tradeRequestFromNotification(ctx, notif)
	if err != nil {
		return err
	}
	switch notif.Type {
	case notification.TypeBarterRequest:
		if tradeRequest.RecipientID != declinerID {
			return common.ErrForbidden.WithDetails("You are not the recipient of this trade request.")
		}
	case notification.TypeBarterAccepted:
		if tradeRequest.RequesterID != declinerID {
			return common.ErrForbidden.WithDetails("You are not the requester of this trade request.")
		}
	}

	swapped, err := s.repo.Decline(ctx, tradeRequest.ID)
	if err != nil {
		s.logger.Error("Failed to decline trade request", zap.Error(err), zap.String("tradeRequestID", tradeRequest.ID.String()))
		return common.ErrInternalServer.WithDetails("Could not decline trade request.")
	}
	if !swapped {
		return common.ErrInvalidState.WithDetails("This trade request is no longer active.")
	}

	if err := s.notificationService.MarkAsRead(ctx, notif.ID, declinerID); err != nil {
		s.logger.Warn("Failed to mark notification read on decline", zap.Error(err), zap.String("notificationID", notif.ID.String()))
	}

	otherParty := tradeRequest.RequesterID
	if declinerID == tradeRequest.RequesterID {
		otherParty = tradeRequest.RecipientID
	}
	_, notifErr := s.notificationService.CreateNotification(ctx, notification.CreateInput{
		RecipientID: otherParty,
		SenderID:    &declinerID,
		Type:        notification.TypeTradeDeclined,
		Title:       "Trade declined",
		Message:     fmt.Sprintf("%s declined the trade.", s.displayName(ctx, declinerID)),
		Data: notification.JSONMap{
			"trade_request_id": tradeRequest.ID.String(),
		},
	})
	if notifErr != nil {
		s.logger.Error("Failed to create trade_declined notification",
			zap.Error(notifErr),
			zap.String("tradeRequestID", tradeRequest.ID.String()))
	}

	s.logger.Info("Trade declined",
		zap.String("tradeRequestID", tradeRequest.ID.String()),
		zap.String("declinerID", declinerID.String()))
	return nil
}

// tradeRequestFromNotification resolves the trade request referenced by a
// workflow notification's data bag.
func (s *ServiceImplementation) tradeRequestFromNotification(ctx context.Context, notif *notification.Notification) (*TradeRequest, error) {
	raw, ok := notif.Data["trade_request_id"]
	if !ok {
		return nil, common.ErrInvalidState.WithDetails("This notification does not reference a trade request.")
	}
	idStr, ok := raw.(string)
	if !ok {
		return nil, common.ErrInvalidState.WithDetails("This notification does not reference a trade request.")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, common.ErrInvalidState.WithDetails("This notification does not reference a trade request.")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *ServiceImplementation) displayName(ctx context.Context, userID uuid.UUID) string {
	u, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return "A user"
	}
	name := ""
	if u.FirstName != nil {
		name = *u.FirstName
	}
	if u.LastName != nil {
		if name != "" {
			name += " "
		}
		name += *u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}
