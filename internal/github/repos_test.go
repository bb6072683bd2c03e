package github_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"batchloader"
	gh "batchloader/internal/github"
)

func newTestClient(t *testing.T, serverURL string) *gh.Client {
	t.Helper()

	client, err := gh.NewClient(context.Background(), "dummy-token")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	baseURL, err := url.Parse(serverURL + "/")
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	client.Client.BaseURL = baseURL
	client.Client.UploadURL = baseURL
	return client
}

// newOrgServer serves a two-page /orgs/acme/repos listing and counts hits.
func newOrgServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/orgs/acme/repos", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "application/json")
		switch page := r.URL.Query().Get("page"); page {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(
				`<%s/orgs/acme/repos?page=2>; rel="next", <%s/orgs/acme/repos?page=2>; rel="last"`,
				server.URL, server.URL))
			fmt.Fprint(w, `[
				{"id": 1, "name": "alpha", "full_name": "acme/alpha", "description": "first service", "stargazers_count": 12},
				{"id": 2, "name": "beta", "full_name": "acme/beta", "description": "second service", "stargazers_count": 3}
			]`)
		case "2":
			fmt.Fprint(w, `[
				{"id": 3, "name": "gamma", "full_name": "acme/gamma", "description": "third service", "stargazers_count": 7}
			]`)
		default:
			t.Errorf("unexpected page %q", page)
			http.Error(w, "bad page", http.StatusBadRequest)
		}
	})
	return server
}

func TestRepoSource_FetchByName(t *testing.T) {
	var hits int32
	server := newOrgServer(t, &hits)
	client := newTestClient(t, server.URL)

	src, err := gh.NewRepoSource(client, "acme")
	if err != nil {
		t.Fatalf("NewRepoSource failed: %v", err)
	}

	got, err := src.FetchByName(context.Background(), []string{"alpha", "GAMMA", "missing"})
	if err != nil {
		t.Fatalf("FetchByName failed: %v", err)
	}

	if rs := got["alpha"]; len(rs) != 1 || rs[0].GetFullName() != "acme/alpha" {
		t.Fatalf("alpha = %v, want acme/alpha", rs)
	}
	// Matching is case-insensitive but keyed by the requested spelling.
	if rs := got["GAMMA"]; len(rs) != 1 || rs[0].GetFullName() != "acme/gamma" {
		t.Fatalf("GAMMA = %v, want acme/gamma", rs)
	}
	if _, ok := got["missing"]; ok {
		t.Fatal("missing repo must be absent from the result, not an error")
	}

	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("org listing took %d API calls, want 2 (one per page)", n)
	}
}

func TestRepoSource_OneListingPerBatch(t *testing.T) {
	var hits int32
	server := newOrgServer(t, &hits)
	client := newTestClient(t, server.URL)

	src, err := gh.NewRepoSource(client, "acme")
	if err != nil {
		t.Fatalf("NewRepoSource failed: %v", err)
	}

	type repoKey struct{ org string }
	stars := make(map[string]int)

	_, err = batchloader.Run(context.Background(), func(ctx context.Context) (int, error) {
		loader, ferr := batchloader.For(ctx, repoKey{org: "acme"}, src.FetchByName)
		if ferr != nil {
			return 0, ferr
		}
		// Duplicate name dedups; all three resolve from one listing.
		pendings := loader.LoadMany("alpha", "beta", "alpha", "gamma")
		for i, name := range []string{"alpha", "beta", "alpha", "gamma"} {
			repos, gerr := pendings[i].Get(ctx)
			if gerr != nil {
				return 0, gerr
			}
			if len(repos) != 1 {
				return 0, fmt.Errorf("repo %s: got %d results, want 1", name, len(repos))
			}
			stars[name] = repos[0].GetStargazersCount()
		}
		return 0, nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("batch of 3 distinct names took %d API calls, want 2 (one paged listing)", n)
	}
	if stars["alpha"] != 12 || stars["beta"] != 3 || stars["gamma"] != 7 {
		t.Fatalf("stars = %v, want alpha=12 beta=3 gamma=7", stars)
	}

	if reqs := client.Requests(); reqs != 2 {
		t.Fatalf("client counted %d requests, want 2", reqs)
	}
}

func TestNewRepoSource_Validation(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0")

	if _, err := gh.NewRepoSource(nil, "acme"); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := gh.NewRepoSource(client, "  "); err == nil {
		t.Fatal("expected error for empty org")
	}
}
