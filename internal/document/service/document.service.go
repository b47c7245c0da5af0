package service

import (
	"errors"

	"coscribe/internal/document/model"
	"coscribe/internal/document/repository"
	"coscribe/socket"

	"github.com/google/uuid"
)

const defaultContent = `{"ops":[]}`

type DocumentService struct {
	Repo *repository.DocumentRepository
	Hub  *socket.Hub
}

func NewDocumentService(repo *repository.DocumentRepository, hub *socket.Hub) *DocumentService {
	return &DocumentService{Repo: repo, Hub: hub}
}

func (s *DocumentService) CreateDocument(userID, title string) (string, error) {
	if title == "" {
		title = "Untitled Document"
	}
	docID := uuid.NewString()
	if err := s.Repo.Create(docID, title, defaultContent, userID); err != nil {
		return "", err
	}
	return docID, nil
}

func (s *DocumentService) GetDocuments(userID string) ([]model.DocumentSummary, error) {
	docs, err := s.Repo.ListForUser(userID)
	if err != nil {
		return nil, err
	}
	// Attach collaborator lists for the dashboard view.
	for i := range docs {
		collabs, err := s.Repo.Collaborators(docs[i].ID)
		if err != nil {
			return nil, err
		}
		docs[i].Collaborators = collabs
	}
	return docs, nil
}

// GetDocument fetches one document for userID, requiring at least
// Read permission.
func (s *DocumentService) GetDocument(docID, userID string) (*model.Document, error) {
	doc, err := s.Repo.Get(docID)
	if err != nil {
		return nil, err
	}
	if doc.PermissionFor(userID) < model.PermissionRead {
		return nil, model.ErrForbidden
	}
	return doc, nil
}

// UpdateTitle renames a document. Current policy admits any member
// with at least Read access; whether read-only collaborators should
// keep this right is an open product question.
func (s *DocumentService) UpdateTitle(docID, userID, title string) error {
	if title == "" {
		return model.ErrInvalidInput
	}
	doc, err := s.Repo.Get(docID)
	if err != nil {
		return err
	}
	if doc.PermissionFor(userID) < model.PermissionRead {
		return model.ErrForbidden
	}
	return s.Repo.UpdateTitle(docID, title)
}

// DeleteDocument removes a document. Owner only; a Write collaborator
// is still forbidden.
func (s *DocumentService) DeleteDocument(docID, userID string) error {
	doc, err := s.Repo.Get(docID)
	if err != nil {
		return err
	}
	if doc.PermissionFor(userID) != model.PermissionAdmin {
		return model.ErrForbidden
	}
	if err := s.Repo.Delete(docID); err != nil {
		return err
	}
	if s.Hub != nil {
		s.Hub.RemoveDocument(docID)
	}
	return nil
}

// ShareDocument grants a collaborator role to the user behind email.
// Owner only. The role defaults to write when the caller omits it.
func (s *DocumentService) ShareDocument(userID string, req model.ShareRequest) error {
	if req.Role == "" {
		req.Role = model.RoleWrite
	}
	if !model.ValidRole(req.Role) {
		return model.ErrInvalidInput
	}

	doc, err := s.Repo.Get(req.DocID)
	if err != nil {
		return err
	}
	if doc.PermissionFor(userID) != model.PermissionAdmin {
		return model.ErrForbidden
	}

	target, err := s.Repo.GetUserByEmail(req.Email)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrNotFound
	}
	if err != nil {
		return err
	}

	if doc.PermissionFor(target.ID) != model.PermissionNone {
		return model.ErrAlreadyCollaborator
	}

	inserted, err := s.Repo.AddCollaborator(req.DocID, target.ID, req.Role)
	if err != nil {
		return err
	}
	if !inserted {
		// Lost a race with a concurrent grant; the entry exists.
		return model.ErrAlreadyCollaborator
	}
	return nil
}
