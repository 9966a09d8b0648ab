package auth

import (
	"github.com/example/storefront/pkg/models"
)

// Identity is the result of token verification: either a resolved local
// user, or raw external claims for a caller that verified successfully but
// has no local record yet. Handlers must handle both cases explicitly
// instead of probing for field presence.
type Identity struct {
	user   *models.User
	claims Claims
}

func RegisteredIdentity(u *models.User) Identity {
	return Identity{user: u}
}

func UnregisteredIdentity(c Claims) Identity {
	return Identity{claims: c}
}

// Registered returns the local user and true when one was resolved.
func (id Identity) Registered() (*models.User, bool) {
	return id.user, id.user != nil
}

// Claims returns the verified token claims. For a registered identity the
// subject is reconstructed from the stored external uid.
func (id Identity) Claims() Claims {
	if id.user != nil {
		return Claims{
			Subject:    id.user.FirebaseUID,
			Email:      id.user.Email,
			GivenName:  id.user.FirstName,
			FamilyName: id.user.LastName,
		}
	}
	return id.claims
}
