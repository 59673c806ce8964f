package cari_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/ambiyansyah-risyal/cari"
)

func ExampleIndex_SearchSync() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hits":[{"objectID":"1"}],"nbHits":1}`))
	}))
	defer server.Close()

	client := cari.New(cari.WithHostList([]string{server.URL}, []string{server.URL}))
	res, err := client.InitIndex("products").SearchSync(context.Background(), cari.NewQuery("phone"))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(res["nbHits"])
	// Output: 1
}

func ExampleIsRetryable() {
	fmt.Println(cari.IsRetryable(&cari.NetworkError{Host: "a", StatusCode: 503}))
	fmt.Println(cari.IsRetryable(&cari.RequestError{Host: "a", StatusCode: 404}))
	// Output:
	// true
	// false
}
