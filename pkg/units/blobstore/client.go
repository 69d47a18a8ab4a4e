package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"go.uber.org/zap"
)

// Store abstracts blob uploads and downloads so the unit can be tested
// without a live storage account.
type Store interface {
	Upload(ctx context.Context, name string, data []byte, metadata map[string]string) (string, error)
	Download(ctx context.Context, reference string) ([]byte, error)
}

// Client implements Store for Azure Blob Storage using shared keys.
// The connection string format matches the standard Azure format, and
// HTTP endpoints are accepted so local Azurite instances work too.
type Client struct {
	client        *azblob.Client
	serviceURL    string
	containerName string
	logger        *zap.Logger
	containerInit bool
}

// NewClient creates a blob storage client from a standard connection string.
func NewClient(connectionString, containerName string, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if connectionString == "" {
		return nil, fmt.Errorf("connection string is required")
	}
	if containerName == "" {
		return nil, fmt.Errorf("container name is required")
	}

	params := parseConnectionString(connectionString)
	account, key := params["AccountName"], params["AccountKey"]
	if account == "" || key == "" {
		return nil, fmt.Errorf("account name and key are required in the connection string")
	}

	endpoint := params["BlobEndpoint"]
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net", account)
	}

	credential, err := azblob.NewSharedKeyCredential(account, key)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}

	// Shared-key auth over plain HTTP must be opted into; Azurite has no TLS.
	var opts *azblob.ClientOptions
	if strings.HasPrefix(strings.ToLower(endpoint), "http://") {
		opts = &azblob.ClientOptions{
			ClientOptions: azcore.ClientOptions{InsecureAllowCredentialWithHTTP: true},
		}
	}

	azClient, err := azblob.NewClientWithSharedKeyCredential(endpoint, credential, opts)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}

	return &Client{
		client:        azClient,
		serviceURL:    strings.TrimRight(endpoint, "/"),
		containerName: containerName,
		logger:        logger,
	}, nil
}

// Upload stores data under the given blob name in the configured container
// and returns the blob URL. The content type is derived from the name's
// extension.
func (c *Client) Upload(ctx context.Context, name string, data []byte, metadata map[string]string) (string, error) {
	if err := c.ensureContainer(ctx); err != nil {
		return "", err
	}

	meta := make(map[string]*string, len(metadata))
	for k, v := range metadata {
		meta[k] = to.Ptr(v)
	}

	blobClient := c.containerClient().NewBlockBlobClient(name)
	_, err := blobClient.UploadBuffer(ctx, data, &azblob.UploadBufferOptions{
		Metadata: meta,
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: to.Ptr(contentTypeFor(name)),
		},
	})
	if err != nil {
		c.logger.Error("Failed to upload blob",
			zap.String("blob_name", name),
			zap.Int("size_bytes", len(data)),
			zap.Error(err))
		return "", fmt.Errorf("upload blob %s: %w", name, err)
	}

	c.logger.Info("Uploaded blob",
		zap.String("blob_name", name),
		zap.Int("size_bytes", len(data)))

	return blobClient.URL(), nil
}

// Download fetches blob contents. The reference may be a full blob URL or
// a bare blob name within the configured container.
func (c *Client) Download(ctx context.Context, reference string) ([]byte, error) {
	name, err := c.extractBlobName(reference)
	if err != nil {
		return nil, err
	}

	resp, err := c.containerClient().NewBlobClient(name).DownloadStream(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("download blob %s: %w", name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", name, err)
	}
	return data, nil
}

func (c *Client) containerClient() *container.Client {
	return c.client.ServiceClient().NewContainerClient(c.containerName)
}

// ensureContainer creates the container on first use. Creation races and
// pre-existing containers are both treated as success.
func (c *Client) ensureContainer(ctx context.Context) error {
	if c.containerInit {
		return nil
	}

	if _, err := c.client.CreateContainer(ctx, c.containerName, nil); err != nil && !containerExists(err) {
		return fmt.Errorf("ensure container %s: %w", c.containerName, err)
	}

	c.containerInit = true
	return nil
}

func containerExists(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.ErrorCode == "ContainerAlreadyExists" {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "containeralreadyexists")
}

func parseConnectionString(connectionString string) map[string]string {
	params := make(map[string]string)
	for _, field := range strings.Split(connectionString, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(field), "=")
		if !found || key == "" {
			continue
		}
		params[key] = value
	}
	return params
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (c *Client) extractBlobName(reference string) (string, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return "", fmt.Errorf("blob reference is required")
	}

	if strings.HasPrefix(strings.ToLower(ref), strings.ToLower(c.serviceURL)) {
		ref = ref[len(c.serviceURL):]
	}
	if before, _, found := strings.Cut(ref, "?"); found {
		ref = before
	}

	ref = strings.TrimSpace(ref)
	if decoded, err := url.PathUnescape(ref); err == nil && decoded != "" {
		ref = decoded
	}
	if u, err := url.Parse(ref); err == nil && u.Host != "" {
		ref = u.Path
	}

	ref = strings.TrimPrefix(ref, "/")
	ref = strings.TrimPrefix(ref, c.containerName+"/")
	if ref == "" {
		return "", fmt.Errorf("blob name is empty")
	}
	return ref, nil
}
