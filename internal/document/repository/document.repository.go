package repository

import (
	"database/sql"
	"errors"

	"coscribe/internal/document/model"
	"coscribe/pkg/logger"

	"github.com/lib/pq"
)

// DocumentRepository is the persistence adapter over Postgres. It is
// the sole writer of durable document and access-request state; each
// statement is atomic on its own record.
type DocumentRepository struct {
	DB *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

func (r *DocumentRepository) Create(id, title, content, ownerID string) error {
	_, err := r.DB.Exec(`INSERT INTO documents (id, title, content, owner_id, updated_at) VALUES ($1, $2, $3, $4, NOW())`,
		id, title, content, ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to create document: %v", err)
	}
	return err
}

// Get loads a document together with its collaborator list. Returns
// model.ErrNotFound when no such document exists.
func (r *DocumentRepository) Get(docID string) (*model.Document, error) {
	var doc model.Document
	err := r.DB.QueryRow(`SELECT id, title, content, owner_id, updated_at FROM documents WHERE id = $1`, docID).
		Scan(&doc.ID, &doc.Title, &doc.Content, &doc.OwnerID, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load document %s: %v", docID, err)
		return nil, err
	}

	doc.Collaborators, err = r.Collaborators(docID)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) Collaborators(docID string) ([]model.Collaborator, error) {
	rows, err := r.DB.Query(`SELECT user_id, role FROM collaborators WHERE document_id = $1 ORDER BY added_at ASC`, docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to load collaborators for doc %s: %v", docID, err)
		return nil, err
	}
	defer rows.Close()

	collabs := []model.Collaborator{}
	for rows.Next() {
		var c model.Collaborator
		if err := rows.Scan(&c.UserID, &c.Role); err != nil {
			return nil, err
		}
		collabs = append(collabs, c)
	}
	return collabs, rows.Err()
}

func (r *DocumentRepository) UpdateContent(docID, content string) error {
	_, err := r.DB.Exec(`UPDATE documents SET content = $1, updated_at = NOW() WHERE id = $2`, content, docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to update content for doc %s: %v", docID, err)
	}
	return err
}

func (r *DocumentRepository) UpdateTitle(docID, title string) error {
	_, err := r.DB.Exec(`UPDATE documents SET title = $1, updated_at = NOW() WHERE id = $2`, title, docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to update title for doc %s: %v", docID, err)
	}
	return err
}

func (r *DocumentRepository) Delete(docID string) error {
	_, err := r.DB.Exec(`DELETE FROM documents WHERE id = $1`, docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete doc %s: %v", docID, err)
	}
	return err
}

// AddCollaborator inserts the grant if absent. A concurrent grant for
// the same (document, user) pair lands exactly one row; the second
// insert is a no-op and inserted reports false.
func (r *DocumentRepository) AddCollaborator(docID, userID, role string) (inserted bool, err error) {
	res, err := r.DB.Exec(`INSERT INTO collaborators (document_id, user_id, role, added_at) VALUES ($1, $2, $3, NOW())
		ON CONFLICT (document_id, user_id) DO NOTHING`, docID, userID, role)
	if err != nil {
		logger.Sugar.Errorf("Failed to add collaborator %s to doc %s: %v", userID, docID, err)
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *DocumentRepository) GetUserByEmail(email string) (*model.Identity, error) {
	var u model.Identity
	err := r.DB.QueryRow(`SELECT id, username, email FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Username, &u.Email)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get user by email %s: %v", email, err)
		return nil, err
	}
	return &u, nil
}

// ListForUser returns every document the user owns or collaborates
// on, newest first, without content blobs.
func (r *DocumentRepository) ListForUser(userID string) ([]model.DocumentSummary, error) {
	query := `
		SELECT id, title, owner_id, updated_at FROM documents WHERE owner_id = $1
		UNION
		SELECT d.id, d.title, d.owner_id, d.updated_at FROM documents d
			JOIN collaborators c ON d.id = c.document_id WHERE c.user_id = $1
		ORDER BY updated_at DESC`
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list documents for user %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var docs []model.DocumentSummary
	for rows.Next() {
		var d model.DocumentSummary
		if err := rows.Scan(&d.ID, &d.Title, &d.OwnerID, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.IsOwner = d.OwnerID == userID
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) CreateAccessRequest(id, docID, requesterID, role string) error {
	_, err := r.DB.Exec(`INSERT INTO access_requests (id, document_id, requester_id, requested_role, status, created_at)
		VALUES ($1, $2, $3, $4, 'pending', NOW())`, id, docID, requesterID, role)
	// Two concurrent submits can both pass the pending check and race
	// into the partial unique index; the loser is a duplicate, not a
	// storage failure.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return model.ErrDuplicatePending
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to create access request for doc %s: %v", docID, err)
	}
	return err
}

func (r *DocumentRepository) GetAccessRequest(requestID string) (*model.AccessRequest, error) {
	var req model.AccessRequest
	err := r.DB.QueryRow(`SELECT id, document_id, requester_id, requested_role, status, created_at
		FROM access_requests WHERE id = $1`, requestID).
		Scan(&req.ID, &req.DocumentID, &req.RequesterID, &req.RequestedRole, &req.Status, &req.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load access request %s: %v", requestID, err)
		return nil, err
	}
	return &req, nil
}

func (r *DocumentRepository) HasPendingRequest(docID, requesterID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(`SELECT EXISTS(
		SELECT 1 FROM access_requests WHERE document_id = $1 AND requester_id = $2 AND status = 'pending')`,
		docID, requesterID).Scan(&exists)
	if err != nil {
		logger.Sugar.Errorf("Failed to check pending request for doc %s: %v", docID, err)
	}
	return exists, err
}

// PendingForOwner returns the pending requests across every document
// the owner holds, enriched for presentation.
func (r *DocumentRepository) PendingForOwner(ownerID string) ([]model.PendingRequest, error) {
	query := `
		SELECT ar.id, ar.document_id, d.title, ar.requester_id, u.username, u.email, ar.requested_role, ar.created_at
		FROM access_requests ar
			JOIN documents d ON ar.document_id = d.id
			JOIN users u ON ar.requester_id = u.id
		WHERE d.owner_id = $1 AND ar.status = 'pending'
		ORDER BY ar.created_at ASC`
	rows, err := r.DB.Query(query, ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list pending requests for owner %s: %v", ownerID, err)
		return nil, err
	}
	defer rows.Close()

	reqs := []model.PendingRequest{}
	for rows.Next() {
		var p model.PendingRequest
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.DocumentTitle, &p.RequesterID,
			&p.RequesterUsername, &p.RequesterEmail, &p.RequestedRole, &p.CreatedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, p)
	}
	return reqs, rows.Err()
}

func (r *DocumentRepository) SetRequestStatus(requestID, status string) error {
	_, err := r.DB.Exec(`UPDATE access_requests SET status = $1 WHERE id = $2`, status, requestID)
	if err != nil {
		logger.Sugar.Errorf("Failed to set status of access request %s: %v", requestID, err)
	}
	return err
}
