package message

import (
	"context"
	"net/http"
	"sort"
	"time"

	"chattr.app/backend/internal/entity"
	messageDto "chattr.app/backend/internal/modules/message/dto"
	messageRepo "chattr.app/backend/internal/modules/message/repository"
	realtime "chattr.app/backend/internal/modules/realtime/service"
	userRepo "chattr.app/backend/internal/modules/user/repository"
	"chattr.app/backend/pkg/apperror"
	commonDto "chattr.app/backend/pkg/dto"
	"chattr.app/backend/pkg/ratelimiter"
	"chattr.app/backend/pkg/sanitize"
	"github.com/redis/go-redis/v9"
)

const (
	sendMessageAction    = "send_message"
	conversationPageSize = 20
)

type MessageService interface {
	ListChatrooms(ctx context.Context, userID uint, query messageDto.ChatroomListQuery) ([]messageDto.ChatroomResponse, error)
	GetConversation(ctx context.Context, userID, chatroomID uint, query commonDto.PageQuery) (commonDto.Page[messageDto.MessageResponse], error)
	CreateChatroom(ctx context.Context, userID uint, req messageDto.CreateChatroomRequest) (*messageDto.CreateChatroomResponse, error)
	SendMessage(ctx context.Context, userID uint, req messageDto.SendMessageRequest) (*messageDto.SendMessageResponse, error)
	// MarkAsRead flips the actor's unread messages in the chatroom and always announces the read.
	MarkAsRead(ctx context.Context, userID, chatroomID uint) (int64, error)
}

type messageService struct {
	repo        messageRepo.MessageRepository
	userRepo    userRepo.UserRepository
	broadcaster realtime.Broadcaster
	redisClient *redis.Client
	cooldown    time.Duration
}

func NewMessageService(repo messageRepo.MessageRepository, userRepo userRepo.UserRepository, broadcaster realtime.Broadcaster, redisClient *redis.Client, cooldown time.Duration) MessageService {
	return &messageService{
		repo:        repo,
		userRepo:    userRepo,
		broadcaster: broadcaster,
		redisClient: redisClient,
		cooldown:    cooldown,
	}
}

func (s *messageService) ListChatrooms(ctx context.Context, userID uint, query messageDto.ChatroomListQuery) ([]messageDto.ChatroomResponse, error) {
	rooms, err := s.repo.ListChatrooms(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(rooms))
	for _, room := range rooms {
		ids = append(ids, room.ID)
	}

	last, err := s.repo.LastMessages(ctx, ids)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.UnreadCounts(ctx, ids, userID)
	if err != nil {
		return nil, err
	}

	out := make([]messageDto.ChatroomResponse, 0, len(rooms))
	for i := range rooms {
		if query.Filter == "unread" && unread[rooms[i].ID] == 0 {
			continue
		}
		resp := toChatroomResponse(&rooms[i])
		if msg, ok := last[rooms[i].ID]; ok {
			m := toMessageResponse(msg)
			resp.LastMessage = &m
		}
		resp.UnreadCount = unread[rooms[i].ID]
		out = append(out, resp)
	}

	// newest activity first, an empty chatroom counts from its creation
	sort.SliceStable(out, func(i, j int) bool {
		return lastActivity(out[i]).After(lastActivity(out[j]))
	})
	return out, nil
}

func (s *messageService) GetConversation(ctx context.Context, userID, chatroomID uint, query commonDto.PageQuery) (commonDto.Page[messageDto.MessageResponse], error) {
	room, err := s.repo.FindChatroom(ctx, chatroomID)
	if err != nil {
		return commonDto.Page[messageDto.MessageResponse]{}, err
	}
	if room == nil || !room.HasParticipant(userID) {
		return commonDto.Page[messageDto.MessageResponse]{}, apperror.Forbidden("You are not authorized to view this chatroom.")
	}

	page := query.Normalize(conversationPageSize)
	messages, total, err := s.repo.ListMessages(ctx, room.ID, userID, page.UnreadOnly(), page.Offset(), page.PageSize)
	if err != nil {
		return commonDto.Page[messageDto.MessageResponse]{}, err
	}

	records := make([]messageDto.MessageResponse, 0, len(messages))
	for i := range messages {
		records = append(records, toMessageResponse(&messages[i]))
	}
	return commonDto.NewPage(records, page, total), nil
}

func (s *messageService) CreateChatroom(ctx context.Context, userID uint, req messageDto.CreateChatroomRequest) (*messageDto.CreateChatroomResponse, error) {
	room, created, err := s.getOrCreateChatroom(ctx, userID, req.ReceiverID)
	if err != nil {
		return nil, err
	}
	return &messageDto.CreateChatroomResponse{
		Chatroom:    toChatroomResponse(room),
		NewChatroom: created,
	}, nil
}

func (s *messageService) SendMessage(ctx context.Context, userID uint, req messageDto.SendMessageRequest) (*messageDto.SendMessageResponse, error) {
	content := sanitize.Text(req.Content)
	if content == "" {
		return nil, apperror.Validation("Please enter a message before sending.")
	}

	var (
		room    *entity.Chatroom
		created bool
		err     error
	)
	if req.ChatroomID != nil {
		room, err = s.repo.FindChatroom(ctx, *req.ChatroomID)
		if err != nil {
			return nil, err
		}
		if room == nil || !room.HasParticipant(userID) {
			return nil, apperror.Forbidden("You are not authorized to send messages in this chatroom.")
		}
		if req.ReceiverID == userID || room.OtherParticipant(userID) != req.ReceiverID {
			return nil, apperror.Validation("The specified receiver is not part of this chatroom.")
		}
	} else {
		room, created, err = s.getOrCreateChatroom(ctx, userID, req.ReceiverID)
		if err != nil {
			return nil, err
		}
	}

	if err := ratelimiter.Guard(ctx, s.redisClient, userID, sendMessageAction, s.cooldown); err != nil {
		return nil, err
	}

	msg := &entity.Message{
		ChatroomID: room.ID,
		SenderID:   userID,
		ReceiverID: req.ReceiverID,
		Content:    content,
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		_ = ratelimiter.ClearRateLimit(ctx, s.redisClient, userID, sendMessageAction)
		return nil, err
	}

	if stored, err := s.repo.FindMessage(ctx, msg.ID); err == nil && stored != nil {
		msg = stored
	}

	s.broadcaster.Broadcast(ctx, realtime.MessageSent(msg))

	return &messageDto.SendMessageResponse{
		Chatroom:    toChatroomResponse(room),
		Message:     toMessageResponse(msg),
		NewChatroom: created,
	}, nil
}

func (s *messageService) MarkAsRead(ctx context.Context, userID, chatroomID uint) (int64, error) {
	room, err := s.repo.FindChatroom(ctx, chatroomID)
	if err != nil {
		return 0, err
	}
	if room == nil || !room.HasParticipant(userID) {
		return 0, apperror.Forbidden("You are not authorized to access this chatroom.")
	}

	updated, err := s.repo.MarkRead(ctx, room.ID, userID)
	if err != nil {
		return 0, err
	}

	s.broadcaster.Broadcast(ctx, realtime.MessageRead(room.ID, room.OtherParticipant(userID), userID))
	return updated, nil
}

// getOrCreateChatroom leans on the pair unique index so concurrent callers end up sharing one row.
func (s *messageService) getOrCreateChatroom(ctx context.Context, userID, receiverID uint) (*entity.Chatroom, bool, error) {
	if receiverID == userID {
		return nil, false, apperror.Validation("You cannot create a chatroom with yourself.")
	}
	exists, err := s.userRepo.Exists(ctx, receiverID)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, apperror.Validation("The specified user does not exist.")
	}

	room, err := s.repo.FindChatroomByPair(ctx, userID, receiverID)
	if err != nil {
		return nil, false, err
	}
	if room != nil {
		return room, false, nil
	}

	one, two := entity.OrderedPair(userID, receiverID)
	created, err := s.repo.CreateChatroomIfAbsent(ctx, &entity.Chatroom{UserOneID: one, UserTwoID: two})
	if err != nil {
		return nil, false, err
	}

	// re read so both outcomes carry the participants
	room, err = s.repo.FindChatroomByPair(ctx, one, two)
	if err != nil {
		return nil, false, err
	}
	if room == nil {
		return nil, false, apperror.New(http.StatusInternalServerError, "Failed to create chatroom.", apperror.ErrInternal)
	}

	if created {
		s.broadcaster.Broadcast(ctx, realtime.ChatroomCreated(room))
	}
	return room, created, nil
}

func toMessageResponse(m *entity.Message) messageDto.MessageResponse {
	sender := m.Sender.Summary()
	if m.Sender == nil {
		sender.ID = m.SenderID
	}
	return messageDto.MessageResponse{
		ID:         m.ID,
		ChatroomID: m.ChatroomID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		IsRead:     m.IsRead,
		Sender:     sender,
		CreatedAt:  m.CreatedAt,
	}
}

func toChatroomResponse(room *entity.Chatroom) messageDto.ChatroomResponse {
	return messageDto.ChatroomResponse{
		ID:        room.ID,
		UserOneID: room.UserOneID,
		UserTwoID: room.UserTwoID,
		UserOne:   room.UserOne.Summary(),
		UserTwo:   room.UserTwo.Summary(),
		CreatedAt: room.CreatedAt,
	}
}

func lastActivity(room messageDto.ChatroomResponse) time.Time {
	if room.LastMessage != nil {
		return room.LastMessage.CreatedAt
	}
	return room.CreatedAt
}
