// Package provider adapts the Gemini API client to the three calls the
// application needs: upload a file, delete it, and generate an answer
// grounded on it.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"docchatgo/internal/models"
)

const pdfMIMEType = "application/pdf"

// Gemini talks to the Gemini File API and generation endpoint.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini constructs the provider client. The model name is fixed for the
// lifetime of the process.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Upload sends the file at path to the File API and returns its reference.
func (g *Gemini) Upload(ctx context.Context, path, displayName string) (models.RemoteFile, error) {
	file, err := g.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		MIMEType:    pdfMIMEType,
		DisplayName: displayName,
	})
	if err != nil {
		return models.RemoteFile{}, fmt.Errorf("upload %s: %w", displayName, err)
	}
	return models.RemoteFile{
		Name:        file.Name,
		DisplayName: displayName,
		URI:         file.URI,
		MIMEType:    file.MIMEType,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// Delete removes an uploaded file from the File API.
func (g *Gemini) Delete(ctx context.Context, name string) error {
	if _, err := g.client.Files.Delete(ctx, name, nil); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// Generate asks the model a question with the uploaded file as context and
// returns the answer text verbatim.
func (g *Gemini) Generate(ctx context.Context, file models.RemoteFile, prompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromURI(file.URI, file.MIMEType),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}
