// internal/model/search.go
package model

// SearchResult は検索ヒット1件です。カタログの走査順のまま返され、
// スコアリングは行いません。完了フラグは検索時点の進捗状態から付与されます。
type SearchResult struct {
	StageName    string `json:"stage_name"`
	SubjectName  string `json:"subject_name"`
	ResourceType string `json:"resource_type"`
	Description  string `json:"description"`
	URL          string `json:"url"`
	Key          string `json:"key"`
	IsComplete   bool   `json:"is_complete"`
}

type SearchResponse struct {
	Term    string         `json:"term"`
	Count   int            `json:"count"`
	Results []SearchResult `json:"results"`
}
