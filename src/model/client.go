package model

import (
	"database/sql"
	"errors"
	"time"
)

var ErrClientNotFound = errors.New("client not found")

// Client is a consumer the CRM works disputes for. PortalCodeHash is the
// bcrypt hash of the read-only portal access code; the plaintext code is
// shown once at issue time and never stored.
type Client struct {
	ID             string    `json:"id"`
	UserID         int64     `json:"user_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PortalCodeHash string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateClient inserts a new client row.
func (c *Client) CreateClient(db *sql.DB) error {
	_, err := db.Exec(
		`INSERT INTO clients (id, user_id, name, email, portal_code_hash) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Email, c.PortalCodeHash,
	)
	return err
}

// UpdateClient persists name/email changes.
func (c *Client) UpdateClient(db *sql.DB) error {
	res, err := db.Exec(
		`UPDATE clients SET name = ?, email = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		c.Name, c.Email, c.ID, c.UserID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetPortalCodeHash rotates the stored portal access-code hash.
func (c *Client) SetPortalCodeHash(db *sql.DB, hash string) error {
	res, err := db.Exec(
		`UPDATE clients SET portal_code_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		hash, c.ID, c.UserID,
	)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	c.PortalCodeHash = hash
	return nil
}

// GetClientByID fetches a client scoped to its owning user.
func GetClientByID(db *sql.DB, userID int64, id string) (*Client, error) {
	var c Client
	var email, hash sql.NullString
	err := db.QueryRow(
		`SELECT id, user_id, name, email, portal_code_hash, created_at, updated_at
		 FROM clients WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&c.ID, &c.UserID, &c.Name, &email, &hash, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Email = email.String
	c.PortalCodeHash = hash.String
	return &c, nil
}

// GetClientForPortal fetches a client by id alone; the portal has no
// operator session, the access code is the credential.
func GetClientForPortal(db *sql.DB, id string) (*Client, error) {
	var c Client
	var email, hash sql.NullString
	err := db.QueryRow(
		`SELECT id, user_id, name, email, portal_code_hash, created_at, updated_at
		 FROM clients WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.Name, &email, &hash, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Email = email.String
	c.PortalCodeHash = hash.String
	return &c, nil
}

// ListClients returns all clients for a user, newest first.
func ListClients(db *sql.DB, userID int64) ([]Client, error) {
	rows, err := db.Query(
		`SELECT id, user_id, name, email, portal_code_hash, created_at, updated_at
		 FROM clients WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		var email, hash sql.NullString
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &email, &hash, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Email = email.String
		c.PortalCodeHash = hash.String
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// DeleteClient removes a client scoped to its owning user.
func DeleteClient(db *sql.DB, userID int64, id string) error {
	res, err := db.Exec(`DELETE FROM clients WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrClientNotFound
	}
	return nil
}
