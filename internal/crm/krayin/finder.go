package krayin

import (
	"context"
	"errors"
	"log/slog"

	"chatsync.app/bridge/core/config"
	"chatsync.app/bridge/internal/crm"
	"chatsync.app/bridge/internal/model"
)

// ErrMissingID reports a create call that succeeded but returned no entity
// id. This is the one finder failure that must not be swallowed: absorbing
// it would retry the create blindly and mint duplicates.
var ErrMissingID = errors.New("create response missing id")

type personAPI interface {
	SearchPersons(ctx context.Context, email, phone string) ([]Record, error)
	CreatePerson(ctx context.Context, payload map[string]any) (Record, error)
}

type leadAPI interface {
	SearchLeads(ctx context.Context, email, phone string) ([]Record, error)
	CreateLead(ctx context.Context, payload map[string]any) (Record, error)
}

// PersonFinder resolves a local contact to a Krayin person id. Resolution
// order: stored id, search by email, search by phone, create. Search
// failures are logged and treated as a miss; reconciliation prefers
// creating over blocking.
type PersonFinder struct {
	client personAPI
	links  *crm.Links
}

func NewPersonFinder(client personAPI, links *crm.Links) *PersonFinder {
	return &PersonFinder{client: client, links: links}
}

func (f *PersonFinder) FindOrCreate(ctx context.Context, contact *model.Contact) (string, error) {
	stored, err := f.links.Get(ctx, model.RecordKindContact, contact.ID, "person")
	if err != nil {
		return "", err
	}
	if stored != "" {
		return stored, nil
	}

	if id := f.searchPerson(ctx, contact); id != "" {
		return id, nil
	}

	record, err := f.client.CreatePerson(ctx, MapPerson(contact))
	if err != nil {
		return "", err
	}
	id := record.ID()
	if id == "" {
		return "", ErrMissingID
	}
	slog.InfoContext(ctx, "created person", "person_id", id, "contact_id", contact.ID)
	return id, nil
}

func (f *PersonFinder) searchPerson(ctx context.Context, contact *model.Contact) string {
	if contact.Email != "" {
		persons, err := f.client.SearchPersons(ctx, contact.Email, "")
		if err != nil {
			slog.WarnContext(ctx, "person search by email failed", "error", err)
		} else if len(persons) > 0 {
			return persons[0].ID()
		}
	}
	if contact.PhoneNumber != "" {
		persons, err := f.client.SearchPersons(ctx, "", contact.PhoneNumber)
		if err != nil {
			slog.WarnContext(ctx, "person search by phone failed", "error", err)
		} else if len(persons) > 0 {
			return persons[0].ID()
		}
	}
	return ""
}

// LeadFinder resolves a contact to a Krayin lead tied to an already
// resolved person. Same resolution order and error policy as PersonFinder.
type LeadFinder struct {
	client leadAPI
	links  *crm.Links
	brand  config.BrandConfig
}

func NewLeadFinder(client leadAPI, links *crm.Links, brand config.BrandConfig) *LeadFinder {
	return &LeadFinder{client: client, links: links, brand: brand}
}

func (f *LeadFinder) FindOrCreate(ctx context.Context, contact *model.Contact, personID string, settings map[string]any) (string, error) {
	stored, err := f.links.Get(ctx, model.RecordKindContact, contact.ID, "lead")
	if err != nil {
		return "", err
	}
	if stored != "" {
		return stored, nil
	}

	if id := f.searchLead(ctx, contact); id != "" {
		return id, nil
	}

	record, err := f.client.CreateLead(ctx, MapLead(contact, personID, settings, f.brand))
	if err != nil {
		return "", err
	}
	id := record.ID()
	if id == "" {
		return "", ErrMissingID
	}
	slog.InfoContext(ctx, "created lead", "lead_id", id, "contact_id", contact.ID)
	return id, nil
}

func (f *LeadFinder) searchLead(ctx context.Context, contact *model.Contact) string {
	if contact.Email != "" {
		leads, err := f.client.SearchLeads(ctx, contact.Email, "")
		if err != nil {
			slog.WarnContext(ctx, "lead search by email failed", "error", err)
		} else if len(leads) > 0 {
			return leads[0].ID()
		}
	}
	if contact.PhoneNumber != "" {
		leads, err := f.client.SearchLeads(ctx, "", contact.PhoneNumber)
		if err != nil {
			slog.WarnContext(ctx, "lead search by phone failed", "error", err)
		} else if len(leads) > 0 {
			return leads[0].ID()
		}
	}
	return ""
}
