package secret

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrMissingEnv        = errors.New("secret: missing required environment variables")
	ErrUnknownProvider   = errors.New("secret: provider not registered")
	ErrNotFound          = errors.New("secret: not found")
	ErrInvalidReference  = errors.New("secret: invalid reference")
	ErrDuplicateProvider = errors.New("secret: provider already registered")
)

// Provider resolves a reference to a secret value. Implementations are
// safe for concurrent use and never log values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
}

// EnvProvider resolves a reference as an environment variable name.
type EnvProvider struct{}

func (EnvProvider) Name() string { return "env" }

func (EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("%w: env %s", ErrNotFound, ref)
	}
	return v, nil
}

// FileProvider resolves a reference as a file under Dir, in the style of
// mounted container secrets. Trailing newlines are trimmed.
type FileProvider struct {
	Dir string
}

func (FileProvider) Name() string { return "file" }

func (p FileProvider) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !filepath.IsLocal(ref) {
		return "", fmt.Errorf("%w: %q escapes the secret directory", ErrInvalidReference, ref)
	}
	b, err := os.ReadFile(filepath.Join(p.Dir, ref))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: file %s", ErrNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("secret: read %s: %w", ref, err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

var (
	_ Provider = EnvProvider{}
	_ Provider = FileProvider{}
)
