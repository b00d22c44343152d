// internal/service/search_service.go
package service

import (
	"context"
	"strings"

	"github.com/AlandersondePaula/estudo-cnu/internal/middleware"
	"github.com/AlandersondePaula/estudo-cnu/internal/model"
	"github.com/AlandersondePaula/estudo-cnu/internal/repository"

	"github.com/google/uuid"
)

// SearchService インターフェース
type SearchService interface {
	Search(ctx context.Context, sessionID uuid.UUID, term string) (*model.SearchResponse, error)
}

type searchService struct {
	catalog  *model.Catalog
	progRepo repository.ProgressRepository
}

func NewSearchService(catalog *model.Catalog, progRepo repository.ProgressRepository) SearchService {
	return &searchService{
		catalog:  catalog,
		progRepo: progRepo,
	}
}

// Search は説明文に対する大文字小文字を区別しない部分一致検索です。
// カタログの定義順 (ステージ → 科目 → 種別 → 位置) のまま走査し、
// ランキングは行いません。空の検索語は空の結果を返します
// (検索は明示的な操作で、「全件表示」ではないため)。
func (s *searchService) Search(ctx context.Context, sessionID uuid.UUID, term string) (*model.SearchResponse, error) {
	logger := middleware.GetLogger(ctx).With("session_id", sessionID)

	resp := &model.SearchResponse{
		Term:    term,
		Results: []model.SearchResult{},
	}
	if term == "" {
		return resp, nil
	}

	state, err := s.progRepo.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "進捗状態の取得に失敗しました。", "", err)
	}

	lowerTerm := strings.ToLower(term)
	for _, stage := range s.catalog.Stages {
		for _, subject := range stage.Subjects {
			for _, group := range subject.Groups {
				for i, res := range group.Resources {
					if !strings.Contains(strings.ToLower(res.Description), lowerTerm) {
						continue
					}
					key := DeriveResourceKey(stage.Name, subject.Name, group.TypeName, i+1, res.Description)
					_, isComplete := state.Completed[key]
					resp.Results = append(resp.Results, model.SearchResult{
						StageName:    stage.Name,
						SubjectName:  subject.Name,
						ResourceType: group.TypeName,
						Description:  res.Description,
						URL:          res.URL,
						Key:          key,
						IsComplete:   isComplete,
					})
				}
			}
		}
	}
	resp.Count = len(resp.Results)

	logger.Info("Search completed", "term", term, "count", resp.Count)
	return resp, nil
}
