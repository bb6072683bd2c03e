package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v81/github"
	"golang.org/x/sync/errgroup"
)

// maxPageFanout caps concurrent page fetches within one batch listing.
const maxPageFanout = 4

// RepoSource serves by-name repository lookups for one organization with a
// single org listing per batch: however many repo names a batch collects,
// the API cost is one paged scan, not one call per name.
type RepoSource struct {
	client *Client
	org    string
}

func NewRepoSource(client *Client, org string) (*RepoSource, error) {
	if client == nil || client.Client == nil {
		return nil, fmt.Errorf("NewRepoSource: nil client (use NewClient)")
	}
	if strings.TrimSpace(org) == "" {
		return nil, fmt.Errorf("NewRepoSource: empty org")
	}
	return &RepoSource{client: client, org: org}, nil
}

// FetchByName is a batchloader.BatchFunc mapping repository names (matched
// case-insensitively) to repositories in the source org. Names not present
// in the org are simply absent from the result.
func (s *RepoSource) FetchByName(ctx context.Context, names []string) (map[string][]*github.Repository, error) {
	if ctx == nil {
		return nil, fmt.Errorf("FetchByName: nil context")
	}
	if s == nil || s.client == nil || s.client.Client == nil {
		return nil, fmt.Errorf("FetchByName: nil RepoSource (use NewRepoSource)")
	}

	// Requested keys by lowercased name; values keep the caller's spelling.
	wanted := make(map[string][]string, len(names))
	for _, name := range names {
		lower := strings.ToLower(strings.TrimSpace(name))
		if lower == "" {
			continue
		}
		wanted[lower] = append(wanted[lower], name)
	}
	if len(wanted) == 0 {
		return map[string][]*github.Repository{}, nil
	}

	repos, err := s.listAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchByName: listing %s: %w", s.org, err)
	}

	out := make(map[string][]*github.Repository, len(wanted))
	for _, repo := range repos {
		keys, ok := wanted[strings.ToLower(repo.GetName())]
		if !ok {
			continue
		}
		for _, key := range keys {
			out[key] = append(out[key], repo)
		}
	}
	return out, nil
}

// listAll pages through the org's repositories. The first page is fetched
// alone to learn the page count; remaining pages are fetched concurrently.
func (s *RepoSource) listAll(ctx context.Context) ([]*github.Repository, error) {
	opt := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	first, resp, err := s.client.Client.Repositories.ListByOrg(ctx, s.org, opt)
	if err != nil {
		return nil, err
	}
	if resp.LastPage <= 1 {
		return first, nil
	}

	pages := make([][]*github.Repository, resp.LastPage+1)
	pages[1] = first

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxPageFanout)
	for page := 2; page <= resp.LastPage; page++ {
		eg.Go(func() error {
			pageOpt := &github.RepositoryListByOrgOptions{
				ListOptions: github.ListOptions{Page: page, PerPage: 100},
			}
			repos, _, perr := s.client.Client.Repositories.ListByOrg(egCtx, s.org, pageOpt)
			if perr != nil {
				return perr
			}
			pages[page] = repos
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var all []*github.Repository
	for _, page := range pages {
		all = append(all, page...)
	}
	return all, nil
}
