// Package agridex provides an embedded Go client for the agridex hybrid
// retrieval and knowledge accumulation engine backed by Redis with the
// search module.
//
// The client wires the same engine that backs the HTTP service, without
// the HTTP layer:
//
//	client, _ := agridex.New(ctx,
//	    agridex.WithRedis("localhost:6379", ""),
//	    agridex.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	res, _ := client.Ingest(ctx, agridex.IngestInput{
//	    OwnerID:     "user-1",
//	    Date:        time.Now(),
//	    Category:    "pest_control",
//	    Description: "sprayed neem oil against aphids",
//	    Outcome:     agridex.Outcome{Quality: "excellent"},
//	})
//
//	hits, _ := client.Search(ctx, agridex.SearchRequest{
//	    OwnerID: "user-1",
//	    Query:   "aphid treatment",
//	})
//
// Without an embedder the engine still works: records are persisted and
// searchable through the keyword channel, and the vector channel stays
// disabled.
package agridex
