package shared

import "strings"

// AuthorizeOwner checks that the acting identity is the recorded owner of a resource.
func AuthorizeOwner(actor Identity, ownerID string) error {
	if actor.UserID == "" || ownerID == "" {
		return ErrForbidden
	}
	if actor.UserID != ownerID {
		return ErrForbidden
	}
	return nil
}

// AuthorizeClaimedOwner validates an owner id supplied by the client, if any, and returns the
// owner the request applies to. An empty claim means the caller itself.
func AuthorizeClaimedOwner(actor Identity, claimed string) (string, error) {
	claimed = strings.TrimSpace(claimed)
	if claimed == "" {
		if actor.UserID == "" {
			return "", ErrForbidden
		}
		return actor.UserID, nil
	}
	if err := AuthorizeOwner(actor, claimed); err != nil {
		return "", err
	}
	return claimed, nil
}
