// internal/handlers/progress_handler_test.go
package handlers_test

import (
	"net/http"
	"testing"

	"github.com/AlandersondePaula/estudo-cnu/internal/model"
	"github.com/AlandersondePaula/estudo-cnu/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionKey() string {
	return service.DeriveResourceKey("Semana 1", "Português", "Videoaulas", 1, "Interpretação de textos")
}

func TestPutCompletion(t *testing.T) {
	sessionID := uuid.New()
	key := completionKey()
	isComplete := true

	tests := []struct {
		name       string
		body       interface{}
		sessionID  *uuid.UUID
		wantStatus int
	}{
		{
			name:       "正常系: 完了にできる",
			body:       model.PutCompletionRequest{Key: key, IsComplete: &isComplete},
			sessionID:  &sessionID,
			wantStatus: http.StatusOK,
		},
		{
			name:       "異常系: keyが無い",
			body:       `{"is_complete": true}`,
			sessionID:  &sessionID,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "異常系: is_completeが無い",
			body:       `{"key": "` + key + `"}`,
			sessionID:  &sessionID,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "異常系: 不正なJSON",
			body:       `{"key":`,
			sessionID:  &sessionID,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "異常系: セッションヘッダーが無い",
			body:       model.PutCompletionRequest{Key: key, IsComplete: &isComplete},
			sessionID:  nil,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createRequest(t, http.MethodPut, "/api/v1/progress/resources/completion", tt.body, tt.sessionID)
			rr := executeRequest(req)
			assert.Equal(t, tt.wantStatus, rr.Code, "body: %s", rr.Body.String())
		})
	}
}

func TestGetCompletion(t *testing.T) {
	sessionID := uuid.New()
	key := completionKey()
	isComplete := true

	// 先に完了にしておく
	req := createRequest(t, http.MethodPut, "/api/v1/progress/resources/completion",
		model.PutCompletionRequest{Key: key, IsComplete: &isComplete}, &sessionID)
	rr := executeRequest(req)
	require.Equal(t, http.StatusOK, rr.Code)

	t.Run("正常系: 完了済みのキー", func(t *testing.T) {
		req := createRequest(t, http.MethodGet, "/api/v1/progress/resources/completion?key="+urlQueryEscape(key), nil, &sessionID)
		rr := executeRequest(req)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp model.CompletionResponse
		decodeResponse(t, rr, &resp)
		assert.Equal(t, key, resp.Key)
		assert.True(t, resp.IsComplete)
	})

	t.Run("正常系: 未完了のキーはfalse", func(t *testing.T) {
		req := createRequest(t, http.MethodGet, "/api/v1/progress/resources/completion?key=outra_chave", nil, &sessionID)
		rr := executeRequest(req)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp model.CompletionResponse
		decodeResponse(t, rr, &resp)
		assert.False(t, resp.IsComplete)
	})

	t.Run("異常系: keyパラメータが無い", func(t *testing.T) {
		req := createRequest(t, http.MethodGet, "/api/v1/progress/resources/completion", nil, &sessionID)
		rr := executeRequest(req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("正常系: 別のセッションには波及しない", func(t *testing.T) {
		otherSessionID := uuid.New()
		req := createRequest(t, http.MethodGet, "/api/v1/progress/resources/completion?key="+urlQueryEscape(key), nil, &otherSessionID)
		rr := executeRequest(req)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp model.CompletionResponse
		decodeResponse(t, rr, &resp)
		assert.False(t, resp.IsComplete)
	})
}

func TestPostStudySession(t *testing.T) {
	sessionID := uuid.New()

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{
			name:       "正常系: 科目付きで記録",
			body:       model.LogStudySessionRequest{DurationMinutes: 60, Subjects: []string{"Português"}},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "正常系: 科目なしで記録",
			body:       model.LogStudySessionRequest{DurationMinutes: 30},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "異常系: duration_minutesが0",
			body:       `{"duration_minutes": 0}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "異常系: duration_minutesが負",
			body:       `{"duration_minutes": -5}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createRequest(t, http.MethodPost, "/api/v1/progress/study-sessions", tt.body, &sessionID)
			rr := executeRequest(req)
			assert.Equal(t, tt.wantStatus, rr.Code, "body: %s", rr.Body.String())
		})
	}

	// 記録した2件が一覧で返る
	req := createRequest(t, http.MethodGet, "/api/v1/progress/study-sessions", nil, &sessionID)
	rr := executeRequest(req)
	require.Equal(t, http.StatusOK, rr.Code)

	var sessions []model.StudySession
	decodeResponse(t, rr, &sessions)
	assert.Len(t, sessions, 2)
}

func TestPutStartDate(t *testing.T) {
	sessionID := uuid.New()

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{
			name:       "正常系: 開始日を設定",
			body:       model.SetStartDateRequest{StartDate: "2025-03-01"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "異常系: 形式が不正",
			body:       model.SetStartDateRequest{StartDate: "01/03/2025"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "異常系: start_dateが無い",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createRequest(t, http.MethodPut, "/api/v1/progress/start-date", tt.body, &sessionID)
			rr := executeRequest(req)
			assert.Equal(t, tt.wantStatus, rr.Code, "body: %s", rr.Body.String())
		})
	}
}

func TestGetMetrics(t *testing.T) {
	sessionID := uuid.New()
	key := completionKey()
	isComplete := true

	req := createRequest(t, http.MethodPut, "/api/v1/progress/resources/completion",
		model.PutCompletionRequest{Key: key, IsComplete: &isComplete}, &sessionID)
	rr := executeRequest(req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = createRequest(t, http.MethodGet, "/api/v1/progress/metrics", nil, &sessionID)
	rr = executeRequest(req)
	require.Equal(t, http.StatusOK, rr.Code)

	var metrics model.MetricsResponse
	decodeResponse(t, rr, &metrics)
	// テストカタログは3リソース、うち1件完了
	assert.Equal(t, 3, metrics.TotalResources)
	assert.Equal(t, 1, metrics.CompletedCount)
	assert.InDelta(t, 100.0/3.0, metrics.CompletionPercent, 0.0001)
	assert.InDelta(t, 50.0, metrics.PerStagePercent["Semana 1"], 0.0001)
	assert.InDelta(t, 0.0, metrics.PerStagePercent["Semana 2"], 0.0001)
}

func TestExportImport(t *testing.T) {
	sessionID := uuid.New()
	key := completionKey()
	isComplete := true

	req := createRequest(t, http.MethodPut, "/api/v1/progress/resources/completion",
		model.PutCompletionRequest{Key: key, IsComplete: &isComplete}, &sessionID)
	rr := executeRequest(req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = createRequest(t, http.MethodPost, "/api/v1/progress/study-sessions",
		model.LogStudySessionRequest{DurationMinutes: 45}, &sessionID)
	rr = executeRequest(req)
	require.Equal(t, http.StatusCreated, rr.Code)

	// エクスポート
	req = createRequest(t, http.MethodGet, "/api/v1/progress/export", nil, &sessionID)
	rr = executeRequest(req)
	require.Equal(t, http.StatusOK, rr.Code)

	var doc model.BackupDocument
	decodeResponse(t, rr, &doc)
	require.NotNil(t, doc.CompletedResources)
	assert.Equal(t, []string{key}, *doc.CompletedResources)
	assert.NotEmpty(t, doc.ExportedAt)

	// 別セッションにインポート
	otherSessionID := uuid.New()
	req = createRequest(t, http.MethodPost, "/api/v1/progress/import", doc, &otherSessionID)
	rr = executeRequest(req)
	require.Equal(t, http.StatusNoContent, rr.Code, "body: %s", rr.Body.String())

	req = createRequest(t, http.MethodGet, "/api/v1/progress/resources/completion?key="+urlQueryEscape(key), nil, &otherSessionID)
	rr = executeRequest(req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp model.CompletionResponse
	decodeResponse(t, rr, &resp)
	assert.True(t, resp.IsComplete)
}

func TestImport_MissingRequiredFields(t *testing.T) {
	sessionID := uuid.New()
	key := completionKey()
	isComplete := true

	req := createRequest(t, http.MethodPut, "/api/v1/progress/resources/completion",
		model.PutCompletionRequest{Key: key, IsComplete: &isComplete}, &sessionID)
	rr := executeRequest(req)
	require.Equal(t, http.StatusOK, rr.Code)

	// study_sessions が無いバックアップは400で拒否される
	badBackup := `{"start_date": "2025-01-01", "completed_resources": []}`
	req = createRequest(t, http.MethodPost, "/api/v1/progress/import", badBackup, &sessionID)
	rr = executeRequest(req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// 失敗したインポートは状態に触れない
	req = createRequest(t, http.MethodGet, "/api/v1/progress/resources/completion?key="+urlQueryEscape(key), nil, &sessionID)
	rr = executeRequest(req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp model.CompletionResponse
	decodeResponse(t, rr, &resp)
	assert.True(t, resp.IsComplete)
}

func TestResetProgress(t *testing.T) {
	sessionID := uuid.New()
	key := completionKey()
	isComplete := true

	req := createRequest(t, http.MethodPut, "/api/v1/progress/resources/completion",
		model.PutCompletionRequest{Key: key, IsComplete: &isComplete}, &sessionID)
	rr := executeRequest(req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = createRequest(t, http.MethodPost, "/api/v1/progress/study-sessions",
		model.LogStudySessionRequest{DurationMinutes: 30}, &sessionID)
	rr = executeRequest(req)
	require.Equal(t, http.StatusCreated, rr.Code)

	req = createRequest(t, http.MethodPost, "/api/v1/progress/reset", nil, &sessionID)
	rr = executeRequest(req)
	require.Equal(t, http.StatusNoContent, rr.Code)

	// 完了はクリアされる
	req = createRequest(t, http.MethodGet, "/api/v1/progress/resources/completion?key="+urlQueryEscape(key), nil, &sessionID)
	rr = executeRequest(req)
	var resp model.CompletionResponse
	decodeResponse(t, rr, &resp)
	assert.False(t, resp.IsComplete)

	// 学習記録は残る
	req = createRequest(t, http.MethodGet, "/api/v1/progress/study-sessions", nil, &sessionID)
	rr = executeRequest(req)
	var sessions []model.StudySession
	decodeResponse(t, rr, &sessions)
	assert.Len(t, sessions, 1)
}

func TestResetAll(t *testing.T) {
	sessionID := uuid.New()

	req := createRequest(t, http.MethodPost, "/api/v1/progress/study-sessions",
		model.LogStudySessionRequest{DurationMinutes: 30}, &sessionID)
	rr := executeRequest(req)
	require.Equal(t, http.StatusCreated, rr.Code)

	req = createRequest(t, http.MethodPost, "/api/v1/progress/reset/all", nil, &sessionID)
	rr = executeRequest(req)
	require.Equal(t, http.StatusNoContent, rr.Code)

	req = createRequest(t, http.MethodGet, "/api/v1/progress/study-sessions", nil, &sessionID)
	rr = executeRequest(req)
	var sessions []model.StudySession
	decodeResponse(t, rr, &sessions)
	assert.Empty(t, sessions)
}

func TestSendReport(t *testing.T) {
	sessionID := uuid.New()

	t.Run("正常系: LogMailerで送信", func(t *testing.T) {
		req := createRequest(t, http.MethodPost, "/api/v1/progress/report",
			model.SendReportRequest{To: "aluno@example.com"}, &sessionID)
		rr := executeRequest(req)
		assert.Equal(t, http.StatusAccepted, rr.Code, "body: %s", rr.Body.String())
	})

	t.Run("異常系: 宛先が不正なメールアドレス", func(t *testing.T) {
		req := createRequest(t, http.MethodPost, "/api/v1/progress/report",
			model.SendReportRequest{To: "not-an-email"}, &sessionID)
		rr := executeRequest(req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("異常系: 宛先が無い", func(t *testing.T) {
		req := createRequest(t, http.MethodPost, "/api/v1/progress/report", `{}`, &sessionID)
		rr := executeRequest(req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
