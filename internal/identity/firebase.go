package identity

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

// IDTokenVerifier is the part of the Firebase auth client used here
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseProvider resolves Firebase ID tokens into identities
type FirebaseProvider struct {
	verifier IDTokenVerifier
}

// NewFirebaseProvider wraps a Firebase auth client
func NewFirebaseProvider(verifier IDTokenVerifier) *FirebaseProvider {
	return &FirebaseProvider{verifier: verifier}
}

func (p *FirebaseProvider) UserInfo(ctx context.Context, token string) (*UserInfo, error) {
	tok, err := p.verifier.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}
	info := &UserInfo{Subject: tok.UID}
	if email, ok := tok.Claims["email"].(string); ok {
		info.Email = email
	}
	if verified, ok := tok.Claims["email_verified"].(bool); ok {
		info.EmailVerified = verified
	}
	if name, ok := tok.Claims["name"].(string); ok {
		info.Name = name
	}
	if picture, ok := tok.Claims["picture"].(string); ok {
		info.Picture = picture
	}
	return info, nil
}
