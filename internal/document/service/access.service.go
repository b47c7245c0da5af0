package service

import (
	"coscribe/internal/document/model"
	"coscribe/pkg/logger"

	"github.com/google/uuid"
)

// SubmitAccessRequest records a non-member's ask for access. Anyone
// who already holds any permission on the document is rejected up
// front, so a later grant always represents a net-new collaborator.
func (s *DocumentService) SubmitAccessRequest(docID, requesterID, requestedRole string) error {
	if !model.ValidRole(requestedRole) {
		return model.ErrInvalidInput
	}

	doc, err := s.Repo.Get(docID)
	if err != nil {
		return err
	}
	if doc.PermissionFor(requesterID) != model.PermissionNone {
		return model.ErrAlreadyHasAccess
	}

	pending, err := s.Repo.HasPendingRequest(docID, requesterID)
	if err != nil {
		return err
	}
	if pending {
		return model.ErrDuplicatePending
	}

	return s.Repo.CreateAccessRequest(uuid.NewString(), docID, requesterID, requestedRole)
}

// PendingRequests lists the pending requests across every document
// the caller owns. Read-only.
func (s *DocumentService) PendingRequests(ownerID string) ([]model.PendingRequest, error) {
	return s.Repo.PendingForOwner(ownerID)
}

// DecideAccessRequest applies an owner's grant or deny. Grant inserts
// the collaborator only if absent, then marks the request granted
// unconditionally, so two racing admin sessions converge on a single
// collaborator entry.
func (s *DocumentService) DecideAccessRequest(docID, requestID, callerID, action string) error {
	if action != model.ActionGrant && action != model.ActionDeny {
		return model.ErrInvalidInput
	}

	doc, err := s.Repo.Get(docID)
	if err != nil {
		return err
	}
	if doc.PermissionFor(callerID) != model.PermissionAdmin {
		return model.ErrForbidden
	}

	req, err := s.Repo.GetAccessRequest(requestID)
	if err != nil {
		return err
	}
	if req.DocumentID != docID {
		return model.ErrNotFound
	}
	if req.Status != model.StatusPending {
		return model.ErrAlreadyProcessed
	}

	if action == model.ActionDeny {
		return s.Repo.SetRequestStatus(requestID, model.StatusDenied)
	}

	inserted, err := s.Repo.AddCollaborator(docID, req.RequesterID, req.RequestedRole)
	if err != nil {
		return err
	}
	if !inserted {
		logger.Sugar.Infof("Grant for request %s raced; collaborator %s already present on doc %s",
			requestID, req.RequesterID, docID)
	}
	return s.Repo.SetRequestStatus(requestID, model.StatusGranted)
}
