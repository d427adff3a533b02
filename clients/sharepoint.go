package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"spexport/models"

	"github.com/go-resty/resty/v2"
)

// SharePointClient client for working with the SharePoint REST API
type SharePointClient struct {
	BaseURL string
	client  *resty.Client
}

// spFile structure for a document inside a library folder
type spFile struct {
	Name              string    `json:"Name"`
	ServerRelativeURL string    `json:"ServerRelativeUrl"`
	Length            int64     `json:"Length"`
	TimeLastModified  time.Time `json:"TimeLastModified"`
}

// spFolder structure for a library folder
type spFolder struct {
	Name              string     `json:"Name"`
	ServerRelativeURL string     `json:"ServerRelativeUrl"`
	ItemCount         int        `json:"ItemCount"`
	TimeLastModified  time.Time  `json:"TimeLastModified"`
	Files             []spFile   `json:"Files"`
	Folders           []spFolder `json:"Folders"`
}

// NewSharePointClient creates a new SharePoint client for one site. A
// bearer token takes precedence; username and password are used when no
// token is given.
func NewSharePointClient(siteURL, token, username, password string) *SharePointClient {
	client := resty.New()
	client.SetDisableWarn(true)
	client.SetHeader("Accept", "application/json;odata=nometadata")
	if token != "" {
		client.SetAuthToken(token)
	} else {
		client.SetBasicAuth(username, password)
	}

	return &SharePointClient{
		BaseURL: strings.TrimSuffix(siteURL, "/"),
		client:  client,
	}
}

// Connect checks that the site answers and the credentials are accepted
func (sp *SharePointClient) Connect(ctx context.Context) error {
	resp, err := sp.client.R().
		SetContext(ctx).
		Get(sp.BaseURL + "/_api/web")
	if err != nil {
		return fmt.Errorf("failed to connect to SharePoint: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("authentication failed: status %d", resp.StatusCode())
	}

	return nil
}

// Close releases idle connections held by the underlying HTTP client
func (sp *SharePointClient) Close() error {
	sp.client.GetClient().CloseIdleConnections()
	return nil
}

// GetLibrary resolves a document library by title and returns its root folder
func (sp *SharePointClient) GetLibrary(ctx context.Context, title string) (models.Folder, error) {
	resp, err := sp.client.R().
		SetContext(ctx).
		SetQueryParam("@t", quoteLiteral(title)).
		Get(sp.BaseURL + "/_api/web/lists/GetByTitle(@t)/RootFolder")
	if err != nil {
		return models.Folder{}, fmt.Errorf("failed to get library: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return models.Folder{}, fmt.Errorf("%w: %s", models.ErrContainerNotFound, title)
	}
	if resp.StatusCode() != http.StatusOK {
		return models.Folder{}, fmt.Errorf("get library failed: status %d", resp.StatusCode())
	}

	var folder spFolder
	if err := json.Unmarshal(resp.Body(), &folder); err != nil {
		return models.Folder{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return models.Folder{
		Name:              folder.Name,
		ServerRelativeURL: folder.ServerRelativeURL,
	}, nil
}

// ListFolder enumerates one folder level, files first, then subfolders
func (sp *SharePointClient) ListFolder(ctx context.Context, serverRelPath string) ([]models.FileInfo, error) {
	resp, err := sp.client.R().
		SetContext(ctx).
		SetQueryParam("@p", quoteLiteral(serverRelPath)).
		SetQueryParam("$expand", "Folders,Files").
		Get(sp.BaseURL + "/_api/web/GetFolderByServerRelativeUrl(@p)")
	if err != nil {
		return nil, fmt.Errorf("failed to list folder: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("list folder failed: status %d", resp.StatusCode())
	}

	var folder spFolder
	if err := json.Unmarshal(resp.Body(), &folder); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var items []models.FileInfo
	for _, file := range folder.Files {
		items = append(items, models.FileInfo{
			Name:    file.Name,
			Path:    file.ServerRelativeURL,
			Size:    file.Length,
			ModTime: file.TimeLastModified,
		})
	}
	for _, sub := range folder.Folders {
		items = append(items, models.FileInfo{
			Name:    sub.Name,
			Path:    sub.ServerRelativeURL,
			IsDir:   true,
			ModTime: sub.TimeLastModified,
		})
	}

	return items, nil
}

// OpenFile streams one file's binary content
func (sp *SharePointClient) OpenFile(ctx context.Context, serverRelPath string) (io.ReadCloser, error) {
	resp, err := sp.client.R().
		SetContext(ctx).
		SetQueryParam("@f", quoteLiteral(serverRelPath)).
		SetDoNotParseResponse(true).
		Get(sp.BaseURL + "/_api/web/GetFileByServerRelativeUrl(@f)/$value")
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		resp.RawBody().Close()
		return nil, fmt.Errorf("download failed: status %d", resp.StatusCode())
	}

	return resp.RawBody(), nil
}

// quoteLiteral wraps a value as an OData string literal, doubling any
// embedded quotes
func quoteLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
