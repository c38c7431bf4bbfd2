package deletion

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGReferenceIndex discovers collaborator contacts referencing a subject by
// linked identity or by contact email.
//
// This is a linear scan over the contacts table. It satisfies the
// ReferenceIndex contract, so a maintained reverse-lookup table can replace
// it once contact volume makes the scan too expensive.
type PGReferenceIndex struct {
	DB *pgxpool.Pool
}

func NewPGReferenceIndex(db *pgxpool.Pool) *PGReferenceIndex {
	return &PGReferenceIndex{DB: db}
}

func (s *PGReferenceIndex) ReferencingContacts(ctx context.Context, subjectID, subjectEmail string) ([]ContactRef, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT c.id, c.owner_id, COALESCE(u.email, ''), COALESCE(u.display_name, '')
    FROM contacts c
    JOIN users u ON u.id = c.owner_id
    WHERE (c.linked_user_id = $1 OR c.email = $2)
      AND c.owner_id <> $1
  `, subjectID, subjectEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ContactRef
	for rows.Next() {
		var ref ContactRef
		if err := rows.Scan(&ref.ContactID, &ref.OwnerID, &ref.OwnerEmail, &ref.OwnerName); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// PGCollaboratorStore rewrites the referenced contact entry only: PII
// fields become placeholders, the audit note is appended to whatever notes
// the owner kept, and the back-reference to the subject is cleared. The
// collaborator's own record is never hard-deleted.
type PGCollaboratorStore struct {
	DB *pgxpool.Pool
}

func NewPGCollaboratorStore(db *pgxpool.Pool) *PGCollaboratorStore {
	return &PGCollaboratorStore{DB: db}
}

func (s *PGCollaboratorStore) AnonymizeContact(ctx context.Context, ref ContactRef, placeholderName, placeholderEmail, auditNote string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE contacts
    SET name = $1,
        email = $2,
        phone = NULL,
        company = NULL,
        social_links_json = NULL,
        notes = CASE
          WHEN POSITION($3 IN COALESCE(notes, '')) > 0 THEN notes
          ELSE TRIM(BOTH E'\n' FROM COALESCE(notes, '') || E'\n' || $3)
        END,
        linked_user_id = NULL,
        updated_at = now()
    WHERE id = $4
  `, placeholderName, placeholderEmail, auditNote, ref.ContactID)
	return err
}
