package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"contact-scrape-go/pkg/models"

	"github.com/jackc/pgx/v5"
)

const contactColumns = `id, upload_id,
	COALESCE(business_name, ''), COALESCE(website, ''), COALESCE(email, ''),
	COALESCE(state, ''), COALESCE(zip_code, ''),
	COALESCE(status, ''), COALESCE(error_message, ''), COALESCE(scrape_method, '')`

// ListContacts retrieves contacts, optionally narrowed to one upload. The
// status filter is applied after classification so any stored spelling
// matches.
func (db *DB) ListContacts(ctx context.Context, q models.ContactQuery) ([]models.Contact, error) {
	var (
		sql  strings.Builder
		args []any
	)
	sql.WriteString("SELECT " + contactColumns + " FROM contacts")
	if q.UploadID > 0 {
		args = append(args, q.UploadID)
		sql.WriteString(" WHERE upload_id = $1")
	}
	sql.WriteString(" ORDER BY id")

	rows, err := db.Pool.Query(ctx, sql.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		if q.Status != "" && c.Status != q.Status {
			continue
		}
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

// GetContact retrieves a single contact by id
func (db *DB) GetContact(ctx context.Context, id int64) (*models.Contact, error) {
	row := db.Pool.QueryRow(ctx, "SELECT "+contactColumns+" FROM contacts WHERE id = $1", id)
	c, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("contact not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &c, nil
}

func scanContact(row pgx.Row) (models.Contact, error) {
	var (
		c            models.Contact
		status       string
		scrapeMethod string
	)
	err := row.Scan(
		&c.ID,
		&c.UploadID,
		&c.BusinessName,
		&c.Website,
		&c.Email,
		&c.State,
		&c.ZipCode,
		&status,
		&c.ErrorMessage,
		&scrapeMethod,
	)
	if err != nil {
		return models.Contact{}, err
	}
	c.Status = models.ClassifyStatus(status)
	c.ScrapeMethod = models.ScrapeMethod(scrapeMethod)
	if c.Status != models.StatusScrapeFailed {
		c.ErrorMessage = ""
	}
	return c, nil
}
