package sitekit

import (
	"github.com/arclabs/sitekit/docstore"
)

// ContactCollection is the document collection holding contact form
// submissions. Its field keys are snake_case; the existing database was
// written that way and compatibility is kept.
const ContactCollection = "contact_submissions"

// ContactService mediates between the contact form, the admin contact
// manager, and the document store. Submissions are create/read/delete only.
type ContactService struct {
	store *docstore.Store
}

// NewContactService creates a ContactService backed by the given store.
func NewContactService(store *docstore.Store) *ContactService {
	return &ContactService{store: store}
}

// Create inserts one submission with server-assigned created_at/updated_at
// and returns the store-assigned id. Validation of name, email format, and
// message length happens at the form boundary before this call.
func (s *ContactService) Create(data ContactSubmissionCreate) (string, error) {
	return s.store.Add(ContactCollection, map[string]any{
		"name":       data.Name,
		"company":    data.Company,
		"email":      data.Email,
		"phone":      data.Phone,
		"message":    data.Message,
		"created_at": docstore.ServerTimestamp,
		"updated_at": docstore.ServerTimestamp,
	})
}

// List returns all submissions ordered by created_at descending.
func (s *ContactService) List() ([]ContactSubmission, error) {
	docs, err := s.store.List(ContactCollection, "created_at", true)
	if err != nil {
		return nil, err
	}
	subs := make([]ContactSubmission, 0, len(docs))
	for _, d := range docs {
		subs = append(subs, decodeContact(d))
	}
	return subs, nil
}

// Subscribe establishes a standing read that invokes fn with the full,
// re-sorted submission list on every change to the collection. The returned
// disposer detaches the listener; the owner must call it or the subscription
// leaks for the lifetime of the process.
func (s *ContactService) Subscribe(fn func([]ContactSubmission)) (func(), error) {
	return s.store.Subscribe(ContactCollection, "created_at", func(docs []docstore.Document) {
		subs := make([]ContactSubmission, 0, len(docs))
		for _, d := range docs {
			subs = append(subs, decodeContact(d))
		}
		fn(subs)
	})
}

// Delete hard-deletes a submission. There is no soft delete.
func (s *ContactService) Delete(id string) error {
	return s.store.Delete(ContactCollection, id)
}

// decodeContact is the single deserialization point for submissions, so
// defaulting and timestamp normalization cannot drift between call sites.
func decodeContact(d docstore.Document) ContactSubmission {
	data := d.Data
	return ContactSubmission{
		ID:        d.ID,
		Name:      stringField(data, "name"),
		Company:   stringField(data, "company"),
		Email:     stringField(data, "email"),
		Phone:     stringField(data, "phone"),
		Message:   stringField(data, "message"),
		CreatedAt: timeField(data, "created_at"),
		UpdatedAt: timeField(data, "updated_at"),
	}
}

// stringField returns the field as a string, or "" when absent or mistyped.
func stringField(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}

// timeField normalizes a timestamp field: native store timestamps become
// ISO-8601 strings, strings written by other tools pass through unchanged,
// anything else is "".
func timeField(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case docstore.Timestamp:
		return v.ISO()
	case string:
		return v
	default:
		return ""
	}
}
