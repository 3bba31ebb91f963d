// Package github implements the remote repository collaborator on top of
// the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"github.com/google/go-github/v66/github"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
)

var logger = log.WithField("package", "github")

// Client talks to the GitHub API for one owner/repo pair.
type Client struct {
	client *github.Client
	owner  string
	repo   string
}

// NewClient builds a client for repo ("owner/name") authenticated with
// token. An empty token yields an unauthenticated client, which works for
// public branch listings but not protection details.
func NewClient(repo, token string) (*Client, error) {
	owner, name, err := ParseOwnerRepo(repo)
	if err != nil {
		return nil, err
	}

	httpClient := http.DefaultClient
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	return &Client{
		client: github.NewClient(httpClient),
		owner:  owner,
		repo:   name,
	}, nil
}

// ListBranches returns every branch name of the repository.
func (c *Client) ListBranches(ctx context.Context) ([]string, error) {
	opts := &github.BranchListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var names []string
	for {
		branches, resp, err := c.client.Repositories.ListBranches(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list branches: %w", err)
		}
		for _, branch := range branches {
			names = append(names, branch.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	logger.WithField("count", len(names)).Debug("Listed branches")
	return names, nil
}

// GetBranchProtection fetches the protection settings of branch, already
// resolved into the comparison form. It returns nil when the branch is
// not protected.
func (c *Client) GetBranchProtection(ctx context.Context, branch string) (*models.ResolvedRules, error) {
	protection, resp, err := c.client.Repositories.GetBranchProtection(ctx, c.owner, c.repo, branch)
	if err != nil {
		if errors.Is(err, github.ErrBranchNotProtected) {
			return nil, nil
		}
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get branch protection for %s: %w", branch, err)
	}
	resolved := convertProtection(protection)
	return &resolved, nil
}

// convertProtection maps the API response onto ResolvedRules. A policy
// block absent from the response means the policy is disabled.
func convertProtection(protection *github.Protection) models.ResolvedRules {
	var rules models.ResolvedRules

	if reviews := protection.RequiredPullRequestReviews; reviews != nil {
		rules.ReviewsEnabled = true
		rules.RequiredApprovingReviewCount = reviews.RequiredApprovingReviewCount
		rules.DismissStaleReviews = reviews.DismissStaleReviews
		rules.RequireCodeOwnerReviews = reviews.RequireCodeOwnerReviews
		rules.RequireLastPushApproval = reviews.RequireLastPushApproval
	}

	if checks := protection.RequiredStatusChecks; checks != nil {
		rules.ChecksEnabled = true
		rules.ChecksStrict = checks.Strict
		if checks.Contexts != nil {
			for _, context := range *checks.Contexts {
				rules.Checks = append(rules.Checks, models.StatusCheck{Context: context})
			}
		}
		if checks.Checks != nil {
			for _, check := range *checks.Checks {
				rules.Checks = append(rules.Checks, models.StatusCheck{
					Context: check.Context,
					AppID:   check.AppID,
				})
			}
		}
	}

	if admins := protection.EnforceAdmins; admins != nil {
		rules.EnforceAdmins = admins.Enabled
	}
	if linear := protection.RequireLinearHistory; linear != nil {
		rules.RequiredLinearHistory = linear.Enabled
	}
	if force := protection.AllowForcePushes; force != nil {
		rules.AllowForcePushes = force.Enabled
	}
	if deletions := protection.AllowDeletions; deletions != nil {
		rules.AllowDeletions = deletions.Enabled
	}
	if conversation := protection.RequiredConversationResolution; conversation != nil {
		rules.RequiredConversationResolution = conversation.Enabled
	}
	if signatures := protection.RequiredSignatures; signatures != nil {
		rules.RequiredSignatures = signatures.GetEnabled()
	}

	return rules
}

// ParseOwnerRepo splits "owner/repo" into its parts.
func ParseOwnerRepo(repo string) (string, string, error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/repo", repo)
	}
	return parts[0], parts[1], nil
}

// ResolveToken finds a GitHub token: GH_TOKEN, then GITHUB_TOKEN, then
// the configured fallback. Empty means no credential.
func ResolveToken(configured string) string {
	if token := os.Getenv("GH_TOKEN"); token != "" {
		return token
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token
	}
	return configured
}

// ResolveRepository determines the owner/repo to check: an explicit
// --remote value, the GITHUB_REPOSITORY environment (Actions), or the
// origin remote of the working tree.
func ResolveRepository(ctx context.Context, remote string) (string, error) {
	if remote != "" {
		normalized := NormalizeRepository(remote)
		if normalized == "" {
			return "", fmt.Errorf("invalid remote repository: %s", remote)
		}
		return normalized, nil
	}
	if repo := strings.TrimSpace(os.Getenv("GITHUB_REPOSITORY")); repo != "" {
		return repo, nil
	}

	cmd := exec.CommandContext(ctx, "git", "config", "--get", "remote.origin.url")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to read remote.origin.url: %w", err)
	}
	url := strings.TrimSpace(string(output))
	normalized := NormalizeRepository(url)
	if normalized == "" {
		return "", fmt.Errorf("invalid remote repository: %s", url)
	}
	return normalized, nil
}

// NormalizeRepository extracts "owner/repo" from the common GitHub URL
// shapes (ssh, https, bare). Returns "" when none applies.
func NormalizeRepository(value string) string {
	trimmed := strings.TrimSuffix(strings.TrimSpace(value), ".git")
	if rest, ok := strings.CutPrefix(trimmed, "git@github.com:"); ok {
		return takeOwnerRepo(rest)
	}
	if rest, ok := strings.CutPrefix(trimmed, "ssh://git@github.com/"); ok {
		return takeOwnerRepo(rest)
	}
	if index := strings.Index(trimmed, "github.com/"); index >= 0 {
		return takeOwnerRepo(trimmed[index+len("github.com/"):])
	}
	return takeOwnerRepo(trimmed)
}

func takeOwnerRepo(value string) string {
	parts := strings.Split(value, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return parts[0] + "/" + parts[1]
}
