package cloudsync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// companyIdFileName holds the generated installation id when no license key
// exists. Lives in the data dir next to the ledger file.
const companyIdFileName = "company_id"

// tenantProvider returns the company id, or "" when this provider has none.
type tenantProvider func(ctx context.Context) (string, error)

// TenantResolver resolves the installation's company id from three ordered
// providers, first-present-wins: active license key, persisted id file,
// freshly generated id persisted to disk.
type TenantResolver struct {
	DB       *gorm.DB
	FilePath string
}

func NewTenantResolver(db *gorm.DB, dataDir string) *TenantResolver {
	return &TenantResolver{
		DB:       db,
		FilePath: filepath.Join(dataDir, companyIdFileName),
	}
}

func (r *TenantResolver) Resolve(ctx context.Context) (string, error) {
	providers := []tenantProvider{r.fromLicense, r.fromFile, r.generate}
	for _, provider := range providers {
		id, err := provider(ctx)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}
	return "", errors.New("company id could not be resolved")
}

func (r *TenantResolver) fromLicense(ctx context.Context) (string, error) {
	if r.DB == nil {
		return "", nil
	}
	key, err := models.GetActiveLicenseKey(ctx, r.DB)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

func (r *TenantResolver) fromFile(ctx context.Context) (string, error) {
	raw, err := os.ReadFile(r.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// generate creates a fresh id and persists it. Writing is idempotent: the
// file provider runs first, so this only executes when no id exists yet.
func (r *TenantResolver) generate(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(r.FilePath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(r.FilePath, []byte(id+"\n"), 0o600); err != nil {
		return "", err
	}
	return id, nil
}
