package counselrank

import (
	"context"
	"testing"
	"time"
)

// mapEmbedder returns a fixed vector per known text and an orthogonal
// fallback for everything else.
type mapEmbedder struct {
	vectors map[string][]float32
}

func (m *mapEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	if v, ok := m.vectors[text]; ok {
		return EmbeddingResult{Embedding: v}, nil
	}
	return EmbeddingResult{Embedding: []float32{0, 0, 1}}, nil
}

type fixedClassifier struct {
	analysis Analysis
}

func (f *fixedClassifier) Classify(context.Context, string) (Analysis, error) {
	return f.analysis, nil
}

func testProfessionals() []Professional {
	return []Professional{
		{
			ID:        "kim",
			Name:      "Kim",
			Location:  "Seoul",
			Expertise: []string{"family law"},
			Cases: []Case{
				{Title: "Custody awarded", Summary: "won full custody"},
			},
		},
		{
			ID:        "lee",
			Name:      "Lee",
			Location:  "Busan",
			Expertise: []string{"criminal law"},
			Cases: []Case{
				{Title: "Fraud acquittal", Summary: "acquitted on all counts"},
			},
		},
	}
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	embedder := &mapEmbedder{vectors: map[string][]float32{
		"divorce with custody dispute":        {1, 0, 0},
		"Custody awarded won full custody":    {0.95, 0.05, 0},
		"Fraud acquittal acquitted on all counts": {0, 1, 0},
	}}
	base := []Option{
		WithCatalog(testProfessionals()),
		WithEmbedder(embedder),
		WithClassifier(&fixedClassifier{analysis: Analysis{
			PrimaryDomain: "family",
			Confidence:    0.9,
			MatchingText:  "divorce with custody dispute",
			CaseNature:    "divorce and custody proceedings",
		}}),
	}
	client, err := New(context.Background(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestNew_RequiresEmbedder(t *testing.T) {
	_, err := New(context.Background(), WithCatalog(testProfessionals()))
	if err == nil {
		t.Fatal("expected error without embedder")
	}
}

func TestNew_RequiresCatalog(t *testing.T) {
	_, err := New(context.Background(), WithEmbedder(&mapEmbedder{}))
	if err == nil {
		t.Fatal("expected error without catalog")
	}
}

func TestSearch_EndToEnd(t *testing.T) {
	client := newTestClient(t)

	if err := client.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if client.IndexSize() != 2 {
		t.Fatalf("expected 2 indexed items, got %d", client.IndexSize())
	}

	resp, err := client.Search(context.Background(), "I need help with my divorce and custody")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if resp.Degraded {
		t.Error("search should not be degraded with a working classifier")
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].OwnerID != "kim" {
		t.Errorf("expected domain-matched professional first, got %q", resp.Results[0].OwnerID)
	}
	if resp.Results[0].BestCase == nil || resp.Results[0].BestCase.Title != "Custody awarded" {
		t.Errorf("expected best case in result, got %+v", resp.Results[0].BestCase)
	}
	if resp.AnalysisSummary == "" {
		t.Error("expected analysis summary")
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("empty index must not error: %v", err)
	}
	if len(resp.Results) != 0 || resp.Message == "" {
		t.Errorf("expected explained empty results, got %d results, message %q", len(resp.Results), resp.Message)
	}
}

func TestSearch_LocationFilter(t *testing.T) {
	client := newTestClient(t)
	if err := client.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	resp, err := client.Search(context.Background(), "divorce",
		WithFilters(Filters{Location: "Seoul"}),
	)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, r := range resp.Results {
		if r.OwnerID != "kim" {
			t.Errorf("location filter leaked %q", r.OwnerID)
		}
	}
}

func TestInsertItem_ImmediatelyDiscoverable(t *testing.T) {
	client := newTestClient(t)
	if err := client.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	// New content whose vector matches the query better than anything else.
	err := client.InsertItem(context.Background(), "lee", "content", "divorce with custody dispute", 0)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if client.IndexSize() != 3 {
		t.Fatalf("expected 3 indexed items, got %d", client.IndexSize())
	}

	resp, err := client.Search(context.Background(), "divorce")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var found bool
	for _, r := range resp.Results {
		if r.OwnerID == "lee" {
			found = true
		}
	}
	if !found {
		t.Error("newly inserted item did not make its owner discoverable")
	}
}

func TestMarkActive_BoostsRanking(t *testing.T) {
	// Two identically scored professionals; the active one must rank first.
	professionals := []Professional{
		{ID: "a", Name: "A", Expertise: []string{"family law"}, Cases: []Case{{Title: "Same", Summary: "case"}}},
		{ID: "b", Name: "B", Expertise: []string{"family law"}, Cases: []Case{{Title: "Same", Summary: "case"}}},
	}
	embedder := &mapEmbedder{vectors: map[string][]float32{
		"Same case": {1, 0, 0},
		"divorce":   {1, 0, 0},
	}}
	client, err := New(context.Background(),
		WithCatalog(professionals),
		WithEmbedder(embedder),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	if err := client.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	client.MarkActive("b", time.Minute)

	resp, err := client.Search(context.Background(), "divorce")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if resp.Results[0].OwnerID != "b" || !resp.Results[0].Online {
		t.Errorf("active professional should rank first, got %q (online=%v)",
			resp.Results[0].OwnerID, resp.Results[0].Online)
	}
}

func TestSearch_NoClassifierDegrades(t *testing.T) {
	embedder := &mapEmbedder{vectors: map[string][]float32{}}
	client, err := New(context.Background(),
		WithCatalog(testProfessionals()),
		WithEmbedder(embedder),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	if err := client.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	resp, err := client.Search(context.Background(), "anything at all")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !resp.Degraded {
		t.Error("missing classifier should mark responses degraded")
	}
	if resp.Analysis.PrimaryDomain != "other" {
		t.Errorf("expected fallback domain, got %q", resp.Analysis.PrimaryDomain)
	}
}
