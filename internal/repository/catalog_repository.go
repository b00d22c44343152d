// internal/repository/catalog_repository.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/AlandersondePaula/estudo-cnu/internal/model"
)

// CatalogRepository は学習計画カタログの読み込みを担います。
// カタログは起動時に一度だけ読み込まれ、以降は不変として扱われます。
type CatalogRepository interface {
	Load(ctx context.Context) (*model.Catalog, error)
}

type fileCatalogRepository struct {
	path string
}

func NewFileCatalogRepository(path string) CatalogRepository {
	return &fileCatalogRepository{path: path}
}

// Load はJSONファイルからカタログを読み込みます。
// 「ファイルが存在しない」と「内容が壊れている」は呼び出し側で
// 区別して表示できるよう、別のセンチネルエラーでラップします。
func (r *fileCatalogRepository) Load(ctx context.Context) (*model.Catalog, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrCatalogNotFound, r.path)
		}
		return nil, fmt.Errorf("reading catalog %s: %w", r.path, err)
	}

	var catalog model.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrCatalogMalformed, err)
	}
	return &catalog, nil
}
