package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	ghapi "github.com/google/go-github/v81/github"
	"github.com/spf13/cobra"

	"batchloader"
	gh "batchloader/internal/github"
)

// repoLoaderKey identifies the repos-by-name loader for one org.
type repoLoaderKey struct{ org string }

var githubCmd = &cobra.Command{
	Use:   "github",
	Short: "Resolve GitHub repositories by name through a batched loader",
	Long: `Resolve a set of repository names in one organization.

Every name is requested individually, the way per-field resolvers would, but
the loader collects the whole batch and satisfies it with a single paged org
listing instead of one API call per repository.

Authentication:
  A GitHub token is read from --token, then the GITHUB_TOKEN environment
  variable, then GitHub CLI auth (gh auth token). Unauthenticated access
  works for public organizations, with lower rate limits.

Examples:
  batchloader github --org my-org --repos alpha,beta,gamma
  batchloader github --org https://github.com/orgs/my-org --repos alpha --verbose`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Runtime.Timeout)
		defer cancel()

		token, tokenSource, err := gh.ResolveAuthToken(ctx, cfg.GitHub.Token)
		if err != nil {
			return fmt.Errorf("resolving GitHub token: %w", err)
		}
		if token == "" && cfg.Runtime.Verbose {
			fmt.Fprintln(cmd.ErrOrStderr(), "[verbose] no GitHub token found, proceeding unauthenticated")
		}
		if token != "" && cfg.Runtime.Verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "[verbose] github auth: %s\n", tokenSource)
		}

		client, err := gh.NewClient(ctx, token, gh.WithVerbose(cfg.Runtime.Verbose, cmd.ErrOrStderr()))
		if err != nil {
			return err
		}
		src, err := gh.NewRepoSource(client, cfg.GitHub.Org)
		if err != nil {
			return err
		}

		type repoView struct {
			name  string
			repos []*ghapi.Repository
		}

		views, err := batchloader.Run(ctx, func(ctx context.Context) ([]repoView, error) {
			loader, ferr := batchloader.For(ctx, repoLoaderKey{org: cfg.GitHub.Org}, src.FetchByName)
			if ferr != nil {
				return nil, ferr
			}
			pendings := loader.LoadMany(cfg.GitHub.Repos...)
			out := make([]repoView, len(pendings))
			for i, p := range pendings {
				repos, gerr := p.Get(ctx)
				if gerr != nil {
					return nil, gerr
				}
				out[i] = repoView{name: cfg.GitHub.Repos[i], repos: repos}
			}
			return out, nil
		})
		if err != nil {
			return fmt.Errorf("resolving repositories in %s: %w", cfg.GitHub.Org, err)
		}

		outW := cmd.OutOrStdout()
		bold := color.New(color.Bold)
		dim := color.New(color.Faint)
		starsC := color.New(color.FgYellow)

		for _, v := range views {
			if len(v.repos) == 0 {
				fmt.Fprintf(outW, "%s  %s\n", bold.Sprint(v.name), dim.Sprint("(not found in org)"))
				continue
			}
			for _, r := range v.repos {
				fmt.Fprintf(outW, "%s  %s  %s\n",
					bold.Sprint(r.GetFullName()),
					starsC.Sprintf("★ %d", r.GetStargazersCount()),
					r.GetDescription())
			}
		}
		fmt.Fprintf(outW, "\n%d repositories resolved with %d API calls\n",
			len(views), client.Requests())
		return nil
	},
}

func init() {
	githubCmd.Flags().StringVar(&cfg.GitHub.Org, "org", "", "GitHub organization to resolve repositories from (name or URL)")
	githubCmd.Flags().StringSliceVar(&cfg.GitHub.Repos, "repos", nil, "Repository names to resolve (repeatable or comma-separated)")
	githubCmd.Flags().StringVar(&cfg.GitHub.Token, "token", "", "GitHub access token (defaults to GITHUB_TOKEN or gh CLI auth)")
	githubCmd.Flags().DurationVar(&cfg.Runtime.Timeout, "timeout", cfg.Runtime.Timeout, "Overall timeout for the resolution run")
	rootCmd.AddCommand(githubCmd)
}
