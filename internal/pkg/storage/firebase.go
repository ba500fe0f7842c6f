package storage

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// FirebaseOptions configures a Firebase Storage adapter.
type FirebaseOptions struct {
	ProjectID string
	// DefaultBucket is used when a call passes an empty bucket name.
	DefaultBucket string
	ClientOptions []option.ClientOption
}

// NewFirebase constructs a Storage backed by the Firebase Admin SDK storage
// client. Objects are served by the same GCS handles as NewGCS.
func NewFirebase(ctx context.Context, opts FirebaseOptions) (*GCSAdapter, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     opts.ProjectID,
		StorageBucket: opts.DefaultBucket,
	}, opts.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("storage: firebase app: %w", err)
	}

	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: firebase storage client: %w", err)
	}

	return &GCSAdapter{
		bucket: func(name string) (*gcs.BucketHandle, error) {
			if name == "" {
				return client.DefaultBucket()
			}
			return client.Bucket(name)
		},
	}, nil
}
