package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// FileSink writes exports into a local directory.
type FileSink struct {
	Dir string
}

// NewFileSink creates a sink writing into dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

// Write creates the directory if missing and writes the file, replacing an
// export of the same day.
func (s *FileSink) Write(_ context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

// BlobConfig holds Azure Blob Storage export configuration.
type BlobConfig struct {
	// ConnectionString takes precedence over AccountURL.
	ConnectionString string
	// AccountURL is used with managed identity, e.g.
	// https://<account>.blob.core.windows.net/
	AccountURL string
	Container  string
}

// BlobSink uploads exports to a blob container.
type BlobSink struct {
	client    *azblob.Client
	container string
}

// NewBlobSink creates a blob sink. With an account URL the credentials come
// from azidentity.DefaultAzureCredential.
func NewBlobSink(config BlobConfig) (*BlobSink, error) {
	var (
		client *azblob.Client
		err    error
	)

	switch {
	case config.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(config.ConnectionString, nil)
	case config.AccountURL != "":
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("failed to create credential: %w", credErr)
		}
		client, err = azblob.NewClient(config.AccountURL, cred, nil)
	default:
		return nil, fmt.Errorf("either connection string or account URL is required")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &BlobSink{client: client, container: config.Container}, nil
}

// EnsureContainer creates the container if it does not exist.
func (s *BlobSink) EnsureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("failed to create container %s: %w", s.container, err)
	}
	return nil
}

// Write uploads the export as a block blob and returns its URL.
func (s *BlobSink) Write(ctx context.Context, name string, data []byte) (string, error) {
	_, err := s.client.UploadBuffer(ctx, s.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: to.Ptr("text/csv; charset=utf-8"),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload blob: %w", err)
	}
	return strings.TrimSuffix(s.client.URL(), "/") + "/" + s.container + "/" + name, nil
}
