package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/sirupsen/logrus"
)

const (
	uploadBlockSize   = 1024 * 1024
	uploadConcurrency = 3
)

// AzureBlobStore keeps wellness records as blobs in one Azure Storage
// container. Missing blobs are reported as ErrNotFound.
type AzureBlobStore struct {
	client        *azblob.Client
	containerName string
}

// Ensure AzureBlobStore implements BlobStore
var _ BlobStore = (*AzureBlobStore)(nil)

// NewAzureBlobStore creates a blob client authenticated with the default Azure
// credential chain and makes sure the container exists
func NewAzureBlobStore(ctx context.Context, accountName, containerName string) (*AzureBlobStore, error) {
	if accountName == "" {
		return nil, fmt.Errorf("storage account name is required")
	}
	if containerName == "" {
		return nil, fmt.Errorf("storage container name is required")
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClient(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	s := &AzureBlobStore{
		client:        client,
		containerName: containerName,
	}

	if err := s.ensureContainer(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *AzureBlobStore) ensureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.containerName, nil)
	switch {
	case err == nil:
		logrus.Infof("Created container %s", s.containerName)
	case bloberror.HasCode(err, bloberror.ContainerAlreadyExists):
		logrus.Debugf("Container %s already exists", s.containerName)
	default:
		return fmt.Errorf("failed to create container %s: %w", s.containerName, err)
	}
	return nil
}

// Store uploads data under name, tagging JSON records with their content type
func (s *AzureBlobStore) Store(ctx context.Context, name string, data []byte) error {
	opts := &azblob.UploadBufferOptions{
		BlockSize:   uploadBlockSize,
		Concurrency: uploadConcurrency,
	}
	if ct := contentType(name); ct != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &ct}
	}

	if _, err := s.client.UploadBuffer(ctx, s.containerName, name, data, opts); err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", name, err)
	}

	logrus.Debugf("Stored %s (%d bytes)", name, len(data))
	return nil
}

// Retrieve downloads the blob stored under name
func (s *AzureBlobStore) Retrieve(ctx context.Context, name string) ([]byte, error) {
	response, err := s.client.DownloadStream(ctx, s.containerName, name, nil)
	if err != nil {
		return nil, blobError("download", name, err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", name, err)
	}

	return data, nil
}

// List returns blob names starting with prefix, in lexical order
func (s *AzureBlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	pager := s.client.NewListBlobsFlatPager(s.containerName, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs under %s: %w", prefix, err)
		}

		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}

	return names, nil
}

// Delete removes the blob stored under name
func (s *AzureBlobStore) Delete(ctx context.Context, name string) error {
	if _, err := s.client.DeleteBlob(ctx, s.containerName, name, nil); err != nil {
		return blobError("delete", name, err)
	}

	logrus.Infof("Deleted blob %s", name)
	return nil
}

// blobError maps a missing blob to ErrNotFound and wraps everything else
func blobError(op, name string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("blob %s: %w", name, ErrNotFound)
	}
	return fmt.Errorf("failed to %s blob %s: %w", op, name, err)
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".json":
		return "application/json"
	default:
		return ""
	}
}
