// internal/service/progress_service_test.go
package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AlandersondePaula/estudo-cnu/internal/config"
	"github.com/AlandersondePaula/estudo-cnu/internal/model"
	"github.com/AlandersondePaula/estudo-cnu/internal/repository"
	"github.com/AlandersondePaula/estudo-cnu/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// resourcesCatalog は指定した数のリソースを1ステージ1科目1種別に詰めたカタログを作る
func resourcesCatalog(stageName string, count int) *model.Catalog {
	group := model.ResourceGroup{TypeName: "Apostilas"}
	for i := 0; i < count; i++ {
		group.Resources = append(group.Resources, model.Resource{
			Description: descriptionFor(i),
			URL:         "https://example.com",
		})
	}
	return &model.Catalog{Stages: []model.Stage{
		{Name: stageName, Subjects: []model.Subject{
			{Name: "Português", Groups: []model.ResourceGroup{group}},
		}},
	}}
}

func descriptionFor(i int) string {
	return "Recurso número " + string(rune('A'+i))
}

func newProgressServiceForTest(catalog *model.Catalog) (ProgressService, repository.ProgressRepository) {
	progRepo := repository.NewMemoryProgressRepository()
	cfg := &config.Config{}
	cfg.App.ExamDate = "2025-10-04"
	return NewProgressService(catalog, progRepo, cfg), progRepo
}

func Test_progressService_SetCompletion(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProgressServiceForTest(resourcesCatalog("Semana 1", 3))
	sessionID := uuid.New()
	key := DeriveResourceKey("Semana 1", "Português", "Apostilas", 1, descriptionFor(0))

	// 未設定のキーは未完了
	complete, err := svc.IsComplete(ctx, sessionID, key)
	require.NoError(t, err)
	assert.False(t, complete)

	// 完了にする
	require.NoError(t, svc.SetCompletion(ctx, sessionID, key, true))
	complete, err = svc.IsComplete(ctx, sessionID, key)
	require.NoError(t, err)
	assert.True(t, complete)

	// 冪等: すでに完了でも成功し、状態は変わらない
	require.NoError(t, svc.SetCompletion(ctx, sessionID, key, true))
	complete, err = svc.IsComplete(ctx, sessionID, key)
	require.NoError(t, err)
	assert.True(t, complete)

	// 未完了に戻す
	require.NoError(t, svc.SetCompletion(ctx, sessionID, key, false))
	complete, err = svc.IsComplete(ctx, sessionID, key)
	require.NoError(t, err)
	assert.False(t, complete)

	// 冪等: すでに未完了でも成功する
	require.NoError(t, svc.SetCompletion(ctx, sessionID, key, false))
}

// カタログに存在しないキーでも保存は拒否しない (カタログ差し替えに備えて保持する)
func Test_progressService_SetCompletion_UnknownKey(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProgressServiceForTest(resourcesCatalog("Semana 1", 1))
	sessionID := uuid.New()

	require.NoError(t, svc.SetCompletion(ctx, sessionID, "chave_que_nao_existe", true))
	complete, err := svc.IsComplete(ctx, sessionID, "chave_que_nao_existe")
	require.NoError(t, err)
	assert.True(t, complete)
}

func Test_progressService_LogStudySession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProgressServiceForTest(resourcesCatalog("Semana 1", 1))
	sessionID := uuid.New()

	tests := []struct {
		name            string
		durationMinutes int
		subjects        []string
		wantErr         error
	}{
		{name: "正常系: 科目付きで記録", durationMinutes: 90, subjects: []string{"Português"}, wantErr: nil},
		{name: "正常系: 科目なしで記録", durationMinutes: 30, subjects: nil, wantErr: nil},
		{name: "異常系: 0分は拒否", durationMinutes: 0, subjects: nil, wantErr: model.ErrInvalidInput},
		{name: "異常系: 負の時間は拒否", durationMinutes: -10, subjects: nil, wantErr: model.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.LogStudySession(ctx, sessionID, tt.durationMinutes, tt.subjects)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, session)
			assert.Equal(t, tt.durationMinutes, session.DurationMinutes)
			assert.NotNil(t, session.Subjects) // nilではなく空スライスにする
			assert.WithinDuration(t, time.Now(), session.Timestamp, time.Second*5)
		})
	}

	// 有効な2件だけ記録されている
	sessions, err := svc.ListStudySessions(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func Test_progressService_SetStartDate(t *testing.T) {
	ctx := context.Background()
	svc, progRepo := newProgressServiceForTest(resourcesCatalog("Semana 1", 1))
	sessionID := uuid.New()

	newStart := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.SetStartDate(ctx, sessionID, newStart))

	state, err := progRepo.GetOrCreate(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, newStart, state.StartDate)
}

func Test_progressService_ComputeMetrics(t *testing.T) {
	ctx := context.Background()
	catalog := resourcesCatalog("Semana 1", 10)
	svc, _ := newProgressServiceForTest(catalog)
	sessionID := uuid.New()

	// 10件中3件を完了にする
	for i := 0; i < 3; i++ {
		key := DeriveResourceKey("Semana 1", "Português", "Apostilas", i+1, descriptionFor(i))
		require.NoError(t, svc.SetCompletion(ctx, sessionID, key, true))
	}
	// 学習記録: 60分 + 30分
	_, err := svc.LogStudySession(ctx, sessionID, 60, nil)
	require.NoError(t, err)
	_, err = svc.LogStudySession(ctx, sessionID, 30, nil)
	require.NoError(t, err)

	metrics, err := svc.ComputeMetrics(ctx, sessionID)
	require.NoError(t, err)

	assert.Equal(t, 10, metrics.TotalResources)
	assert.Equal(t, 3, metrics.CompletedCount)
	assert.InDelta(t, 30.0, metrics.CompletionPercent, 0.0001)
	assert.InDelta(t, 30.0, metrics.PerStagePercent["Semana 1"], 0.0001)
	assert.Equal(t, 90, metrics.TotalStudyMinutes)
	assert.Equal(t, 2, metrics.SessionCount)
	assert.InDelta(t, 45.0, metrics.AverageSessionMinutes, 0.0001)
}

// カタログに載っていないキーはメトリクスに数えられない
func Test_progressService_ComputeMetrics_UnknownKeyIgnored(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProgressServiceForTest(resourcesCatalog("Semana 1", 5))
	sessionID := uuid.New()

	require.NoError(t, svc.SetCompletion(ctx, sessionID, "chave_orfa_de_catalogo_antigo", true))

	metrics, err := svc.ComputeMetrics(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 5, metrics.TotalResources)
	assert.Equal(t, 0, metrics.CompletedCount)
	assert.InDelta(t, 0.0, metrics.CompletionPercent, 0.0001)
}

func Test_progressService_ComputeMetrics_EmptyCatalog(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProgressServiceForTest(&model.Catalog{})
	sessionID := uuid.New()

	metrics, err := svc.ComputeMetrics(ctx, sessionID)
	require.NoError(t, err)
	// ゼロ除算にならない
	assert.Equal(t, 0, metrics.TotalResources)
	assert.InDelta(t, 0.0, metrics.CompletionPercent, 0.0001)
	assert.Empty(t, metrics.PerStagePercent)
}

func Test_progressService_ExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	catalog := resourcesCatalog("Semana 1", 3)
	svc, _ := newProgressServiceForTest(catalog)
	sessionID := uuid.New()

	key := DeriveResourceKey("Semana 1", "Português", "Apostilas", 2, descriptionFor(1))
	require.NoError(t, svc.SetCompletion(ctx, sessionID, key, true))
	_, err := svc.LogStudySession(ctx, sessionID, 45, []string{"Português"})
	require.NoError(t, err)
	startDate := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.SetStartDate(ctx, sessionID, startDate))

	doc, err := svc.Export(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, doc.StartDate)
	require.NotNil(t, doc.CompletedResources)
	require.NotNil(t, doc.StudySessions)
	assert.Equal(t, "2025-02-01", *doc.StartDate)
	assert.Equal(t, []string{key}, *doc.CompletedResources)
	require.Len(t, *doc.StudySessions, 1)
	assert.NotEmpty(t, doc.ExportedAt)

	// 別のセッションに復元する
	otherSessionID := uuid.New()
	require.NoError(t, svc.Import(ctx, otherSessionID, doc))

	complete, err := svc.IsComplete(ctx, otherSessionID, key)
	require.NoError(t, err)
	assert.True(t, complete)

	sessions, err := svc.ListStudySessions(ctx, otherSessionID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 45, sessions[0].DurationMinutes)
	assert.Equal(t, []string{"Português"}, sessions[0].Subjects)

	reExported, err := svc.Export(ctx, otherSessionID)
	require.NoError(t, err)
	assert.Equal(t, *doc.StartDate, *reExported.StartDate)
	assert.Equal(t, *doc.CompletedResources, *reExported.CompletedResources)
}

func Test_progressService_Import_Invalid(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProgressServiceForTest(resourcesCatalog("Semana 1", 3))
	sessionID := uuid.New()

	// インポート失敗時に既存の状態が守られることを確認するため、先に完了を1つ入れておく
	key := DeriveResourceKey("Semana 1", "Português", "Apostilas", 1, descriptionFor(0))
	require.NoError(t, svc.SetCompletion(ctx, sessionID, key, true))

	validStart := "2025-02-01"
	empty := []string{}
	emptySessions := []model.BackupStudySession{}

	tests := []struct {
		name string
		doc  *model.BackupDocument
	}{
		{
			name: "異常系: start_dateが無い",
			doc: &model.BackupDocument{
				CompletedResources: &empty,
				StudySessions:      &emptySessions,
			},
		},
		{
			name: "異常系: completed_resourcesが無い",
			doc: &model.BackupDocument{
				StartDate:     &validStart,
				StudySessions: &emptySessions,
			},
		},
		{
			name: "異常系: study_sessionsが無い",
			doc: &model.BackupDocument{
				StartDate:          &validStart,
				CompletedResources: &empty,
			},
		},
		{
			name: "異常系: start_dateの形式が不正",
			doc: func() *model.BackupDocument {
				bad := "01/02/2025"
				return &model.BackupDocument{
					StartDate:          &bad,
					CompletedResources: &empty,
					StudySessions:      &emptySessions,
				}
			}(),
		},
		{
			name: "異常系: timestampの形式が不正",
			doc: func() *model.BackupDocument {
				sessions := []model.BackupStudySession{
					{Timestamp: "ontem", DurationMinutes: 30},
				}
				return &model.BackupDocument{
					StartDate:          &validStart,
					CompletedResources: &empty,
					StudySessions:      &sessions,
				}
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Import(ctx, sessionID, tt.doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrInvalidInput)

			// 失敗しても既存の状態には手を付けない
			complete, err := svc.IsComplete(ctx, sessionID, key)
			require.NoError(t, err)
			assert.True(t, complete)
		})
	}
}

func Test_progressService_ResetProgress(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProgressServiceForTest(resourcesCatalog("Semana 1", 3))
	sessionID := uuid.New()

	key := DeriveResourceKey("Semana 1", "Português", "Apostilas", 1, descriptionFor(0))
	require.NoError(t, svc.SetCompletion(ctx, sessionID, key, true))
	_, err := svc.LogStudySession(ctx, sessionID, 60, nil)
	require.NoError(t, err)

	require.NoError(t, svc.ResetProgress(ctx, sessionID))

	// 完了セットだけクリアされる
	complete, err := svc.IsComplete(ctx, sessionID, key)
	require.NoError(t, err)
	assert.False(t, complete)
	// 学習記録は残る
	sessions, err := svc.ListStudySessions(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func Test_progressService_ResetAll(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProgressServiceForTest(resourcesCatalog("Semana 1", 3))
	sessionID := uuid.New()

	key := DeriveResourceKey("Semana 1", "Português", "Apostilas", 1, descriptionFor(0))
	require.NoError(t, svc.SetCompletion(ctx, sessionID, key, true))
	_, err := svc.LogStudySession(ctx, sessionID, 60, nil)
	require.NoError(t, err)

	require.NoError(t, svc.ResetAll(ctx, sessionID))

	complete, err := svc.IsComplete(ctx, sessionID, key)
	require.NoError(t, err)
	assert.False(t, complete)
	sessions, err := svc.ListStudySessions(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func Test_progressService_ResetAll_ReplaceError(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(mocks.ProgressRepository)
	cfg := &config.Config{}
	svc := NewProgressService(resourcesCatalog("Semana 1", 1), mockRepo, cfg)
	sessionID := uuid.New()

	repoErr := errors.New("replace failed")
	mockRepo.On("Replace", ctx, sessionID, mock.AnythingOfType("*model.ProgressState")).
		Return(repoErr).Once()

	err := svc.ResetAll(ctx, sessionID)
	require.Error(t, err)
	assert.ErrorIs(t, err, repoErr)
	mockRepo.AssertExpectations(t)
}
