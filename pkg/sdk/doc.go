// Package counselrank provides an embeddable Go client for the counselrank
// hybrid ranking engine: it recommends legal practitioners for a free-text
// case description by fusing embedding similarity, a rule-based practice
// match, a saturating content-credibility score and a live-presence boost.
//
//	client, _ := counselrank.New(ctx,
//	    counselrank.WithCatalog(professionals),
//	    counselrank.WithEmbedder(embedder),
//	    counselrank.WithClassifier(classifier),
//	)
//	defer client.Close()
//
//	_ = client.RebuildIndex(ctx)
//	resp, _ := client.Search(ctx, "contested divorce with custody dispute",
//	    counselrank.WithFilters(counselrank.Filters{Location: "Seoul"}),
//	)
//
// The classifier is optional: without one every query is ranked with the
// fallback domain and no confidence-gated penalty, which matches the
// engine's fail-open behavior when classification is unavailable.
package counselrank
