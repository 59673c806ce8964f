// Package cari is a client for a hosted search service running on a cluster
// of interchangeable hosts.
//
// Every operation is sent to the hosts of its traffic class (read or write)
// in configured order:
//
//   - transport errors, attempt timeouts and 5xx responses fail over to the
//     next host after a short backoff
//   - 4xx responses and malformed bodies are reported at once as *RequestError
//   - when every host failed, *AllHostsExhaustedError wraps the last failure
//
// Operations are asynchronous. Dispatch, Index.Search and Index.Browse return
// a *Call that can be cancelled; a cancelled call never invokes its handler.
// Handlers of one client run one at a time on a single delivery queue.
//
// Search results can be cached for a TTL (WithSearchCache), and
// BrowseIterator walks a whole index page by page with server cursors.
//
// Typical usage:
//
//	client := cari.New(
//	    cari.WithHostList(
//	        []string{"app-dsn.search.example", "app-1.search.example"},
//	        []string{"app.search.example", "app-1.search.example"},
//	    ),
//	    cari.WithCredentials("app", apiKey),
//	    cari.WithSearchCache(2*time.Minute),
//	)
//	index := client.InitIndex("products")
//	res, err := index.SearchSync(ctx, cari.NewQuery("phone").Set("hitsPerPage", 10))
package cari
