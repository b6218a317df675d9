// Package firebase builds the Firebase auth client behind the firebase
// identity provider.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// ErrNoCredentials is returned when no service-account file is configured
var ErrNoCredentials = errors.New("firebase: credentials path not provided")

// Options selects the service account and, optionally, the project to verify
// ID tokens against. ProjectID overrides the one in the credentials file.
type Options struct {
	CredentialsPath string
	ProjectID       string
}

func (o Options) clientOptions() ([]option.ClientOption, error) {
	if o.CredentialsPath == "" {
		return nil, ErrNoCredentials
	}
	info, err := os.Stat(o.CredentialsPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("firebase: credentials file not found at %s", o.CredentialsPath)
	case err != nil:
		return nil, fmt.Errorf("firebase: stat credentials: %w", err)
	case info.IsDir():
		return nil, fmt.Errorf("firebase: credentials path %s is a directory", o.CredentialsPath)
	}
	return []option.ClientOption{option.WithCredentialsFile(o.CredentialsPath)}, nil
}

// NewAuthClient initializes a Firebase app from opts and returns its auth
// client, ready to verify ID tokens.
func NewAuthClient(ctx context.Context, opts Options) (*auth.Client, error) {
	clientOpts, err := opts.clientOptions()
	if err != nil {
		return nil, err
	}

	var appConfig *fb.Config
	if opts.ProjectID != "" {
		appConfig = &fb.Config{ProjectID: opts.ProjectID}
	}
	app, err := fb.NewApp(ctx, appConfig, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: auth client: %w", err)
	}
	return client, nil
}
