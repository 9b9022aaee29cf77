package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// LoadToken reads an oauth2.Token stored as JSON.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading token file: %w", domain.ErrInvalidConfig, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: parsing token file %s: %w", domain.ErrInvalidConfig, path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token file %s has neither an access nor a refresh token", domain.ErrInvalidConfig, path)
	}
	return &tok, nil
}

// NewTokenSource builds the token source for Drive calls.
// With a client credentials file the token is refreshed automatically when it
// expires; without one the token is used as-is.
func NewTokenSource(ctx context.Context, credentialsFile, tokenFile string) (oauth2.TokenSource, error) {
	if tokenFile == "" {
		return nil, fmt.Errorf("%w: drive source needs a token file", domain.ErrInvalidConfig)
	}
	tok, err := LoadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	if credentialsFile == "" {
		return oauth2.StaticTokenSource(tok), nil
	}

	creds, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: reading credentials file: %w", domain.ErrInvalidConfig, err)
	}
	cfg, err := googleoauth.ConfigFromJSON(creds, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing credentials file %s: %w", domain.ErrInvalidConfig, credentialsFile, err)
	}
	return cfg.TokenSource(ctx, tok), nil
}
