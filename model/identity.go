// model/identity.go
package model

// Identity is the authenticated caller as supplied by the identity source.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
	Role        string `json:"role,omitempty"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// BookingName is the name written on a booking: guests are always "Guest".
func (i Identity) BookingName() string {
	if i.IsGuest {
		return "Guest"
	}
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return "Client"
}

// GuestSignInReq represents anonymous sign-in payload
// swagger:model GuestSignInReq
type GuestSignInReq struct {
	DisplayName string `json:"display_name" validate:"omitempty,max=80"`
}

// TokenSignInReq represents custom token sign-in payload
// swagger:model TokenSignInReq
type TokenSignInReq struct {
	Token string `json:"token" validate:"required"`
}
