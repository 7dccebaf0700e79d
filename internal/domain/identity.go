package domain

// Identity is the signed-in user as reported by the identity provider.
type Identity struct {
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	AvatarURL   string `json:"picture,omitempty"`
}

// LoginRequest carries the opaque credential returned by the login widget.
type LoginRequest struct {
	Credential string `json:"credential" binding:"required"`
}
