package cli

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"trivia-frenzy/internal/domain"
	"trivia-frenzy/internal/infra/opentdb"
)

type savedBatch struct {
	categoryID *int
	records    []domain.QuestionRecord
}

type recordingSaver struct {
	batches []savedBatch
	err     error
}

func (s *recordingSaver) SaveQuestions(_ context.Context, categoryID *int, records []domain.QuestionRecord) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.batches = append(s.batches, savedBatch{categoryID: categoryID, records: records})
	return len(records), nil
}

const importQuestionsBody = `{"response_code":0,"results":[
	{"category":"Science: Computers","type":"multiple","difficulty":"easy","question":"Q1","correct_answer":"a","incorrect_answers":["b","c","d"]},
	{"category":"History","type":"multiple","difficulty":"easy","question":"Q2","correct_answer":"a","incorrect_answers":["b","c","d"]},
	{"category":"Science: Computers","type":"multiple","difficulty":"easy","question":"Q3","correct_answer":"a","incorrect_answers":["b","c","d"]},
	{"category":"Unlisted","type":"multiple","difficulty":"easy","question":"Q4","correct_answer":"a","incorrect_answers":["b","c","d"]}
]}`

func newImportServer(t *testing.T, categoriesStatus int) *opentdb.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api.php":
			_, _ = w.Write([]byte(importQuestionsBody))
		case "/api_category.php":
			w.WriteHeader(categoriesStatus)
			_, _ = w.Write([]byte(`{"trivia_categories":[{"id":18,"name":"Science: Computers"},{"id":23,"name":"History"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return opentdb.NewClient(server.URL, server.Client())
}

func TestImportGroupsByCategoryName(t *testing.T) {
	client := newImportServer(t, http.StatusOK)
	saver := &recordingSaver{}

	total, err := importQuestions(context.Background(), client, saver, domain.Settings{QuestionCount: 4, Category: domain.AnyCategory}, zap.NewNop())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected 4 imported, got %d", total)
	}
	if len(saver.batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(saver.batches))
	}

	first := saver.batches[0]
	if first.categoryID == nil || *first.categoryID != 18 || len(first.records) != 2 {
		t.Fatalf("unexpected first batch %+v", first)
	}
	if second := saver.batches[1]; second.categoryID == nil || *second.categoryID != 23 {
		t.Fatalf("unexpected second batch %+v", second)
	}
	if third := saver.batches[2]; third.categoryID != nil {
		t.Fatalf("expected no id for an unlisted category, got %d", *third.categoryID)
	}
}

func TestImportUsesExplicitCategoryID(t *testing.T) {
	client := newImportServer(t, http.StatusInternalServerError)
	saver := &recordingSaver{}

	if _, err := importQuestions(context.Background(), client, saver, domain.Settings{QuestionCount: 4, Category: "18"}, zap.NewNop()); err != nil {
		t.Fatalf("import: %v", err)
	}
	for _, batch := range saver.batches {
		if batch.categoryID == nil || *batch.categoryID != 18 {
			t.Fatalf("expected category 18 for every batch, got %+v", batch)
		}
	}
}

func TestImportCatalogFailureStillSaves(t *testing.T) {
	client := newImportServer(t, http.StatusInternalServerError)
	saver := &recordingSaver{}

	total, err := importQuestions(context.Background(), client, saver, domain.Settings{QuestionCount: 4, Category: domain.AnyCategory}, zap.NewNop())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected 4 imported, got %d", total)
	}
	for _, batch := range saver.batches {
		if batch.categoryID != nil {
			t.Fatalf("expected nil category ids without a catalog, got %+v", batch)
		}
	}
}

func TestImportSaveFailure(t *testing.T) {
	client := newImportServer(t, http.StatusOK)
	saver := &recordingSaver{err: errors.New("db down")}

	if _, err := importQuestions(context.Background(), client, saver, domain.Settings{QuestionCount: 4, Category: domain.AnyCategory}, zap.NewNop()); err == nil {
		t.Fatalf("expected save error")
	}
}
