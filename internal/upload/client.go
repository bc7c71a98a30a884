// In file: internal/upload/client.go

// Package upload sends files to the storage service. Each upload is
// authorized with a bearer token obtained from the credential manager.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/aquataze/tool-gateway/internal/credential"

	client "github.com/mutablelogic/go-client"
	gomultipart "github.com/mutablelogic/go-client/pkg/multipart"
)

// DefaultURL is the storage service endpoint used when none is configured.
const DefaultURL = "https://gdrive.aquataze.com/"

// TokenSource yields a bearer token from the given backend.
type TokenSource interface {
	GetToken(ctx context.Context, backend credential.Backend) (string, error)
}

// File is one upload request.
type File struct {
	Name        string
	ContentType string
	Content     []byte
	SetPublic   bool
	ReUpload    bool
}

// Result describes the uploaded file as reported by the storage service.
type Result struct {
	DownloadURL string `json:"downloadUrl"`
	WebViewLink string `json:"webViewLink"`
	CreatedTime string `json:"createdTime"`
	MimeType    string `json:"mimeType"`
	IconLink    string `json:"iconLink"`
}

// uploadRequest is encoded as multipart/form-data, one part per field.
type uploadRequest struct {
	File      gomultipart.File `json:"file"`
	FileName  string           `json:"fileName"`
	SetPublic string           `json:"setPublic"`
	ReUpload  string           `json:"reUpload"`
}

type uploadResponse struct {
	Data struct {
		Files []Result `json:"files"`
	} `json:"data"`
}

// Client uploads files with tokens from one backend.
type Client struct {
	*client.Client
	tokens  TokenSource
	backend credential.Backend
}

// NewClient creates a Client. Uploads can be large, so the timeout is generous.
func NewClient(url string, tokens TokenSource, backend credential.Backend, timeout time.Duration) (*Client, error) {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c, err := client.New(client.OptEndpoint(url), client.OptTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("create upload client: %w", err)
	}
	return &Client{Client: c, tokens: tokens, backend: backend}, nil
}

// Upload sends f as multipart form data and returns the first stored file.
func (c *Client) Upload(ctx context.Context, f File) (*Result, error) {
	token, err := c.tokens.GetToken(ctx, c.backend)
	if err != nil {
		return nil, fmt.Errorf("get upload token: %w", err)
	}

	payload, err := client.NewStreamingMultipartRequest(uploadRequest{
		File: gomultipart.File{
			Path: f.Name,
			Body: bytes.NewReader(f.Content),
		},
		FileName:  f.Name,
		SetPublic: strconv.FormatBool(f.SetPublic),
		ReUpload:  strconv.FormatBool(f.ReUpload),
	}, client.ContentTypeJson)
	if err != nil {
		return nil, fmt.Errorf("encode upload form: %w", err)
	}

	var out uploadResponse
	if err := c.DoWithContext(ctx, payload, &out, client.OptReqHeader("Authorization", "Bearer "+token)); err != nil {
		return nil, fmt.Errorf("upload %s: %w", f.Name, err)
	}
	if len(out.Data.Files) == 0 {
		return nil, fmt.Errorf("upload response for %s lists no files", f.Name)
	}

	res := out.Data.Files[0]
	if res.MimeType == "" {
		res.MimeType = f.ContentType
	}
	log.Printf("📤 Uploaded %s (%d bytes)", f.Name, len(f.Content))
	return &res, nil
}
