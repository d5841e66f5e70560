// Package firebaseapp builds the Firebase Admin SDK app shared by messaging,
// auth and realtime database clients.
package firebaseapp

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// Config locates the Firebase project.
type Config struct {
	ProjectID       string
	DatabaseURL     string
	CredentialsFile string
}

// New initialises a Firebase app. Without a credentials file the default
// application credentials are used.
func New(ctx context.Context, cfg Config) (*firebase.App, error) {
	conf := &firebase.Config{
		ProjectID:   cfg.ProjectID,
		DatabaseURL: cfg.DatabaseURL,
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "initialising firebase app")
	}
	return app, nil
}
