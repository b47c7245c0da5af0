package model

import "time"

type CreateDocRequest struct {
	Title string `json:"title"`
}

type CreateDocResponse struct {
	DocID string `json:"document_id"`
}

type UpdateDocRequest struct {
	Title string `json:"title"`
}

type ShareRequest struct {
	DocID string `json:"document_id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AccessRequestInput struct {
	RequestedRole string `json:"requested_role"`
}

type AccessDecisionInput struct {
	RequestID string `json:"request_id"`
	Action    string `json:"action"`
}

// DocumentSummary is the list-view projection: no content blob, just
// enough for a dashboard row.
type DocumentSummary struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	OwnerID       string         `json:"owner_id"`
	IsOwner       bool           `json:"is_owner"`
	Collaborators []Collaborator `json:"collaborators"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// PendingRequest is a ledger entry enriched with requester display
// data and the document title for the owner's review list.
type PendingRequest struct {
	ID                string    `json:"id"`
	DocumentID        string    `json:"document_id"`
	DocumentTitle     string    `json:"document_title"`
	RequesterID       string    `json:"requester_id"`
	RequesterUsername string    `json:"requester_username"`
	RequesterEmail    string    `json:"requester_email"`
	RequestedRole     string    `json:"requested_role"`
	CreatedAt         time.Time `json:"created_at"`
}
