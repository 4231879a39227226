package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wacrm/pkg/constant"
	"github.com/wacrm/pkg/database"
	"github.com/wacrm/pkg/dtos"
	"github.com/wacrm/pkg/entities"
)

type Service interface {
	ListGateways(ctx context.Context) ([]entities.Gateway, error)
	GetGateway(ctx context.Context, id uint) (entities.Gateway, error)
	CreateGateway(ctx context.Context, req dtos.GatewayCreateDTO) (entities.Gateway, error)
	UpdateGateway(ctx context.Context, id uint, req dtos.GatewayUpdateDTO) (entities.Gateway, error)
	DeleteGateway(ctx context.Context, id uint) error

	Connect(ctx context.Context, id uint) (entities.Gateway, error)
	Disconnect(ctx context.Context, id uint, confirm bool) error
	GetStatus(ctx context.Context, id uint) (dtos.GatewayStatusDTO, error)
	GetQR(ctx context.Context, id uint) (Response, error)
	StartSession(ctx context.Context, id uint) (Response, error)
	RemoveSession(ctx context.Context, id uint) error

	SendText(ctx context.Context, id uint, req dtos.SendTextDTO) (Response, error)
	SendImage(ctx context.Context, id uint, req dtos.SendImageDTO) (Response, error)
	SendFile(ctx context.Context, id uint, req dtos.SendFileDTO) (Response, error)
	MarkRead(ctx context.Context, id uint, req dtos.MarkReadDTO) (Response, error)

	GetChats(ctx context.Context, id uint) ([]any, error)
	GetChatMessages(ctx context.Context, id uint, chatID string, limit int) ([]any, error)
	GetRecentMessages(ctx context.Context, id uint, limit int) ([]RemoteMessage, error)
	PullMessages(ctx context.Context, id uint, limit int) ([]RemoteMessage, error)
}

type service struct {
	repo       Repository
	manager    *Manager
	httpClient *http.Client
}

func NewService(repo Repository, journal *database.Journal, httpClient *http.Client) Service {
	return &service{
		repo:       repo,
		manager:    NewManager(repo, journal, httpClient),
		httpClient: httpClient,
	}
}

func (s *service) ListGateways(ctx context.Context) ([]entities.Gateway, error) {
	return s.repo.ListGateways(ctx)
}

func (s *service) GetGateway(ctx context.Context, id uint) (entities.Gateway, error) {
	return s.repo.FindGatewayByID(ctx, id)
}

func (s *service) CreateGateway(ctx context.Context, req dtos.GatewayCreateDTO) (entities.Gateway, error) {
	gw := entities.Gateway{
		Name:      req.Name,
		Type:      req.Type,
		ServerURL: req.ServerURL,
		APIKey:    req.APIKey,
		Status:    entities.GatewayStatusDisconnected,
		IsActive:  true,
		IsDefault: req.IsDefault,
	}
	if req.IsActive != nil {
		gw.IsActive = *req.IsActive
	}

	if gw.IsDefault {
		if err := s.repo.ClearDefaultForType(ctx, gw.Type); err != nil {
			return entities.Gateway{}, err
		}
	}
	if err := s.repo.CreateGateway(ctx, &gw); err != nil {
		return entities.Gateway{}, err
	}
	return gw, nil
}

func (s *service) UpdateGateway(ctx context.Context, id uint, req dtos.GatewayUpdateDTO) (entities.Gateway, error) {
	gw, err := s.repo.FindGatewayByID(ctx, id)
	if err != nil {
		return entities.Gateway{}, err
	}

	if req.Name != nil {
		gw.Name = *req.Name
	}
	if req.Type != nil {
		gw.Type = *req.Type
	}
	if req.ServerURL != nil {
		gw.ServerURL = *req.ServerURL
	}
	if req.APIKey != nil {
		gw.APIKey = *req.APIKey
	}
	if req.IsActive != nil {
		gw.IsActive = *req.IsActive
	}
	if req.IsDefault != nil {
		gw.IsDefault = *req.IsDefault
		if gw.IsDefault {
			if err := s.repo.ClearDefaultForType(ctx, gw.Type); err != nil {
				return entities.Gateway{}, err
			}
		}
	}

	if err := s.repo.UpdateGateway(ctx, &gw); err != nil {
		return entities.Gateway{}, err
	}
	return gw, nil
}

func (s *service) DeleteGateway(ctx context.Context, id uint) error {
	return s.repo.DeleteGateway(ctx, id)
}

func (s *service) activeGateway(ctx context.Context, id uint) (entities.Gateway, error) {
	gw, err := s.repo.FindGatewayByID(ctx, id)
	if err != nil {
		return entities.Gateway{}, err
	}
	if !gw.IsActive {
		return entities.Gateway{}, fmt.Errorf(constant.GATEWAY_INACTIVE)
	}
	return gw, nil
}

func (s *service) client(gw entities.Gateway) *Client {
	return NewClient(gw.ServerURL, gw.APIKey, s.httpClient)
}

func (s *service) Connect(ctx context.Context, id uint) (entities.Gateway, error) {
	if _, err := s.activeGateway(ctx, id); err != nil {
		return entities.Gateway{}, err
	}
	return s.manager.Connect(ctx, id)
}

// Disconnect is user-visible and destructive, so the caller has to confirm
// explicitly.
func (s *service) Disconnect(ctx context.Context, id uint, confirm bool) error {
	if !confirm {
		return fmt.Errorf(constant.GATEWAY_CONFIRM_REQUIRED)
	}
	if _, err := s.repo.FindGatewayByID(ctx, id); err != nil {
		return err
	}
	return s.manager.Disconnect(ctx, id)
}

func (s *service) GetStatus(ctx context.Context, id uint) (dtos.GatewayStatusDTO, error) {
	gw, err := s.repo.FindGatewayByID(ctx, id)
	if err != nil {
		return dtos.GatewayStatusDTO{}, err
	}
	status := gw.Status
	if s.manager.IsConnecting(id) {
		status = entities.GatewayStatusConnecting
	}
	return dtos.GatewayStatusDTO{
		Status:       status,
		SessionID:    gw.SessionID,
		PhoneNumber:  gw.PhoneNumber,
		ErrorMessage: gw.ErrorMessage,
	}, nil
}

func (s *service) GetQR(ctx context.Context, id uint) (Response, error) {
	gw, err := s.activeGateway(ctx, id)
	if err != nil {
		return Response{}, err
	}
	return s.client(gw).GetQR(ctx)
}

func (s *service) StartSession(ctx context.Context, id uint) (Response, error) {
	gw, err := s.activeGateway(ctx, id)
	if err != nil {
		return Response{}, err
	}
	return s.client(gw).CreateSession(ctx)
}

func (s *service) RemoveSession(ctx context.Context, id uint) error {
	gw, err := s.repo.FindGatewayByID(ctx, id)
	if err != nil {
		return err
	}
	s.client(gw).DeleteSession(ctx)
	return nil
}

func (s *service) SendText(ctx context.Context, id uint, req dtos.SendTextDTO) (Response, error) {
	if _, err := s.activeGateway(ctx, id); err != nil {
		return Response{}, err
	}
	return s.manager.SendAndCount(ctx, id, req.PhoneNumber, req.Text)
}

func (s *service) SendImage(ctx context.Context, id uint, req dtos.SendImageDTO) (Response, error) {
	if _, err := s.activeGateway(ctx, id); err != nil {
		return Response{}, err
	}
	return s.manager.SendImageAndCount(ctx, id, req.PhoneNumber, req.ImageURL, req.Caption)
}

func (s *service) SendFile(ctx context.Context, id uint, req dtos.SendFileDTO) (Response, error) {
	if _, err := s.activeGateway(ctx, id); err != nil {
		return Response{}, err
	}
	return s.manager.SendFileAndCount(ctx, id, req.PhoneNumber, req.FileURL, req.Filename, req.Caption)
}

func (s *service) MarkRead(ctx context.Context, id uint, req dtos.MarkReadDTO) (Response, error) {
	gw, err := s.activeGateway(ctx, id)
	if err != nil {
		return Response{}, err
	}
	return s.client(gw).MarkMessagesAsRead(ctx, gw.SessionID, req.ChatID, req.MessageIDs)
}

func (s *service) GetChats(ctx context.Context, id uint) ([]any, error) {
	gw, err := s.activeGateway(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.client(gw).GetChats(ctx, gw.SessionID)
}

func (s *service) GetChatMessages(ctx context.Context, id uint, chatID string, limit int) ([]any, error) {
	gw, err := s.activeGateway(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.client(gw).GetChatMessages(ctx, gw.SessionID, chatID, limit)
}

func (s *service) GetRecentMessages(ctx context.Context, id uint, limit int) ([]RemoteMessage, error) {
	gw, err := s.activeGateway(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.client(gw).GetAllMessages(ctx, gw.SessionID, limit), nil
}

func (s *service) PullMessages(ctx context.Context, id uint, limit int) ([]RemoteMessage, error) {
	if _, err := s.activeGateway(ctx, id); err != nil {
		return nil, err
	}
	return s.manager.PullMessages(ctx, id, limit)
}
