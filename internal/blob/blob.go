// Package blob adapts Azure Blob Storage for profile picture storage.
// Pictures are stored under opaque keys and read through time-limited SAS
// URLs; no write or delete capability is ever handed to the browser.
package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
)

// SignedURLTTL is how long a signed read URL stays valid.
const SignedURLTTL = 15 * time.Minute

// Store wraps one container of an Azure storage account using shared-key
// credentials, which are required for SAS generation.
type Store struct {
	client    *azblob.Client
	container string
}

// New creates a Store for the given account and container.
func New(accountName, accountKey, container string) (*Store, error) {
	if accountName == "" || accountKey == "" {
		return nil, errors.New("blob storage account name and key are required")
	}
	if container == "" {
		return nil, errors.New("blob storage container is required")
	}

	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}

	return &Store{client: client, container: container}, nil
}

// EnsureContainer creates the container if it does not exist yet.
// Idempotent; meant to run once at startup.
func (s *Store) EnsureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("create container %q: %w", s.container, err)
	}
	return nil
}

// Put uploads data under the given key, overwriting any existing blob.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	opts := &azblob.UploadBufferOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}
	if _, err := s.client.UploadBuffer(ctx, s.container, key, data, opts); err != nil {
		return fmt.Errorf("upload blob %q: %w", key, err)
	}
	return nil
}

// Delete removes the blob under the given key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteBlob(ctx, s.container, key, nil); err != nil {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	return nil
}

// SignedURL issues a read-only SAS URL for the blob, valid for ttl.
func (s *Store) SignedURL(key string, ttl time.Duration) (string, error) {
	blobClient := s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(key)
	sasURL, err := blobClient.GetSASURL(sas.BlobPermissions{Read: true}, time.Now().Add(ttl), nil)
	if err != nil {
		return "", fmt.Errorf("generate SAS URL for %q: %w", key, err)
	}
	return sasURL, nil
}
