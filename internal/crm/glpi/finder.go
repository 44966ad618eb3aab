package glpi

import (
	"context"
	"errors"
	"log/slog"

	"chatsync.app/bridge/internal/crm"
	"chatsync.app/bridge/internal/model"
)

// ErrMissingID marks a create call that succeeded without returning an
// id. Treated as a hard failure so the next event retries instead of
// silently desyncing.
var ErrMissingID = errors.New("glpi: created entity has no id")

type userAPI interface {
	SearchUsers(ctx context.Context, email string) ([]string, error)
	CreateUser(ctx context.Context, payload map[string]any) (string, error)
}

type contactAPI interface {
	SearchContacts(ctx context.Context, email string) ([]string, error)
	CreateContact(ctx context.Context, payload map[string]any) (string, error)
}

// UserFinder resolves local contacts to GLPI Users: stored id first, then
// an email search, then create. GLPI's search engine has no phone
// criterion, so phone-only contacts always fall through to create.
type UserFinder struct {
	api      userAPI
	links    *crm.Links
	entityID int
}

func NewUserFinder(api userAPI, links *crm.Links, entityID int) *UserFinder {
	return &UserFinder{api: api, links: links, entityID: entityID}
}

func (f *UserFinder) FindOrCreate(ctx context.Context, contact *model.Contact) (string, error) {
	stored, err := f.links.Get(ctx, model.RecordKindContact, contact.ID, "user")
	if err != nil {
		return "", err
	}
	if stored != "" {
		return stored, nil
	}

	if contact.Email != "" {
		ids, err := f.api.SearchUsers(ctx, contact.Email)
		if err != nil {
			// A failed search is a miss, not a dead end.
			slog.WarnContext(ctx, "glpi user search failed", "error", err)
		} else if len(ids) > 0 {
			return ids[0], nil
		}
	}

	id, err := f.api.CreateUser(ctx, MapUser(contact, f.entityID))
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", ErrMissingID
	}
	slog.InfoContext(ctx, "created glpi user", "user_id", id)
	return id, nil
}

// ContactFinder is the UserFinder counterpart for the login-less Contact
// itemtype, used when the hook syncs to contacts instead of users.
type ContactFinder struct {
	api      contactAPI
	links    *crm.Links
	entityID int
}

func NewContactFinder(api contactAPI, links *crm.Links, entityID int) *ContactFinder {
	return &ContactFinder{api: api, links: links, entityID: entityID}
}

func (f *ContactFinder) FindOrCreate(ctx context.Context, contact *model.Contact) (string, error) {
	stored, err := f.links.Get(ctx, model.RecordKindContact, contact.ID, "contact")
	if err != nil {
		return "", err
	}
	if stored != "" {
		return stored, nil
	}

	if contact.Email != "" {
		ids, err := f.api.SearchContacts(ctx, contact.Email)
		if err != nil {
			slog.WarnContext(ctx, "glpi contact search failed", "error", err)
		} else if len(ids) > 0 {
			return ids[0], nil
		}
	}

	id, err := f.api.CreateContact(ctx, MapContact(contact, f.entityID))
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", ErrMissingID
	}
	slog.InfoContext(ctx, "created glpi contact", "contact_id", id)
	return id, nil
}
