package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"naskahweb/internal/document/model"
	profilemodel "naskahweb/internal/profile/model"
	"naskahweb/pkg/apperror"
	"naskahweb/pkg/logger"
)

const (
	DefaultTitle       = "Untitled"
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

var ErrCreatorNotRemovable = errors.New("the document creator cannot be removed")

// DocumentAPI is the backend surface behind the document routes.
type DocumentAPI interface {
	DocumentLister
	DocumentFetcher
	CreateDocument(ctx context.Context, token, title string) (*model.Document, error)
	RenameDocument(ctx context.Context, token, id, title string) error
	InviteCollaborator(ctx context.Context, token, id, email string, permission model.Permission) error
	RemoveCollaborator(ctx context.Context, token, id, userID string) error
	SearchUsers(ctx context.Context, token, query string, limit int) ([]profilemodel.UserSearchResult, error)
}

// RoomCloser controls who stays connected to a live room.
type RoomCloser interface {
	RemoveRoom(roomID string)
	Revoke(roomID, userID string)
}

// DocumentService forwards document mutations to the backend on behalf of
// the signed-in user. The backend enforces permissions.
type DocumentService struct {
	API   DocumentAPI
	Rooms RoomCloser
}

func NewDocumentService(api DocumentAPI, rooms RoomCloser) *DocumentService {
	return &DocumentService{API: api, Rooms: rooms}
}

func (s *DocumentService) CreateDocument(ctx context.Context, identity *profilemodel.Identity, title string) (*model.Document, error) {
	if identity == nil {
		return nil, apperror.ErrAuthenticationMissing
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	return s.API.CreateDocument(ctx, identity.Token, title)
}

func (s *DocumentService) RenameDocument(ctx context.Context, identity *profilemodel.Identity, id string, req model.RenameDocRequest) error {
	if identity == nil {
		return apperror.ErrAuthenticationMissing
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrInvalidInput, err)
	}
	return s.API.RenameDocument(ctx, identity.Token, id, strings.TrimSpace(req.Title))
}

func (s *DocumentService) InviteCollaborator(ctx context.Context, identity *profilemodel.Identity, id string, req model.InviteRequest) error {
	if identity == nil {
		return apperror.ErrAuthenticationMissing
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrInvalidInput, err)
	}
	return s.API.InviteCollaborator(ctx, identity.Token, id, strings.TrimSpace(req.Email), req.ResolvedPermission())
}

// RemoveCollaborator revokes userID's access. The creator always keeps it.
func (s *DocumentService) RemoveCollaborator(ctx context.Context, identity *profilemodel.Identity, id, userID string) error {
	if identity == nil {
		return apperror.ErrAuthenticationMissing
	}

	doc, err := s.API.GetDocument(ctx, identity.Token, id)
	if err != nil {
		return err
	}
	if doc.CreatorID != "" && doc.CreatorID == userID {
		return ErrCreatorNotRemovable
	}
	if err := s.API.RemoveCollaborator(ctx, identity.Token, id, userID); err != nil {
		return err
	}
	if s.Rooms != nil {
		s.Rooms.Revoke(id, userID)
	}
	return nil
}

// CloseRoom disconnects a deleted document's live participants.
func (s *DocumentService) CloseRoom(id string) {
	if s.Rooms == nil {
		return
	}
	logger.Sugar.Infof("Closing room for deleted document %s", id)
	s.Rooms.RemoveRoom(id)
}

func (s *DocumentService) SearchUsers(ctx context.Context, identity *profilemodel.Identity, query string, limit int) ([]profilemodel.UserSearchResult, error) {
	if identity == nil {
		return nil, apperror.ErrAuthenticationMissing
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []profilemodel.UserSearchResult{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	users, err := s.API.SearchUsers(ctx, identity.Token, query, limit)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []profilemodel.UserSearchResult{}
	}
	return users, nil
}
