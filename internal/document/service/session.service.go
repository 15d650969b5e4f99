package service

import (
	"context"
	"errors"
	"fmt"

	"naskahweb/internal/document/model"
	profilemodel "naskahweb/internal/profile/model"
	"naskahweb/pkg/apperror"
	"naskahweb/pkg/logger"
)

var ErrDocumentNotFound = fmt.Errorf("document %w", apperror.ErrNotFound)

// DocumentFetcher loads a single document from the backend.
type DocumentFetcher interface {
	GetDocument(ctx context.Context, token, id string) (*model.Document, error)
}

// Transport admits a user into a live collaboration room.
type Transport interface {
	Admit(roomID, userID string, permission model.Permission, metadata map[string]interface{})
}

// Session is everything an editor needs to join a document's room.
type Session struct {
	RoomID                string                   `json:"roomId"`
	Metadata              map[string]interface{}   `json:"metadata"`
	Collaborators         []model.CollaboratorView `json:"collaborators"`
	CurrentUserPermission model.Permission         `json:"currentUserPermission"`
	CurrentUserType       string                   `json:"currentUserType"`
}

type SessionService struct {
	API       DocumentFetcher
	Transport Transport
}

func NewSessionService(api DocumentFetcher, transport Transport) *SessionService {
	return &SessionService{API: api, Transport: transport}
}

// Open fetches the document and admits identity into its room. Users who
// are not listed as collaborators join read-only.
func (s *SessionService) Open(ctx context.Context, identity *profilemodel.Identity, id string) (*Session, error) {
	if identity == nil || identity.Token == "" {
		return nil, apperror.ErrAuthenticationMissing
	}

	doc, err := s.API.GetDocument(ctx, identity.Token, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		logger.Sugar.Errorf("Error fetching document %s: %v", id, err)
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	session := &Session{
		RoomID:                id,
		Metadata:              roomMetadata(doc),
		Collaborators:         make([]model.CollaboratorView, 0, len(doc.Collaborators)),
		CurrentUserPermission: model.PermissionRead,
	}
	for _, c := range doc.Collaborators {
		session.Collaborators = append(session.Collaborators, model.CollaboratorView{
			Collaborator: c,
			UserType:     c.Permission.UserType(),
		})
		if c.ID == identity.ID {
			session.CurrentUserPermission = c.Permission
		}
	}
	session.CurrentUserType = session.CurrentUserPermission.UserType()

	if s.Transport != nil {
		s.Transport.Admit(id, identity.ID, session.CurrentUserPermission, session.Metadata)
	}
	return session, nil
}

func roomMetadata(doc *model.Document) map[string]interface{} {
	if len(doc.Metadata) > 0 {
		return doc.Metadata
	}
	return map[string]interface{}{
		"title":     doc.Title,
		"creatorId": doc.CreatorID,
	}
}
