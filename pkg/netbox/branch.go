package netbox

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// ActiveBranch returns the schema ID of the branch object calls are currently scoped to, or empty.
func (c *RestClient) ActiveBranch() string {
	c.branchMu.RLock()
	defer c.branchMu.RUnlock()
	return c.branch
}

func (c *RestClient) SetActiveBranch(schemaID string) error {
	schemaID = strings.TrimSpace(schemaID)
	if schemaID == "" {
		return validationErrorf("branch schema ID cannot be empty")
	}
	c.branchMu.Lock()
	defer c.branchMu.Unlock()
	c.branch = schemaID
	return nil
}

func (c *RestClient) ClearActiveBranch() {
	c.branchMu.Lock()
	defer c.branchMu.Unlock()
	c.branch = ""
}

// Branch management calls are never scoped to the active branch.

func (c *RestClient) branchPath(id int64, action ...string) string {
	p := c.branchesEndpoint + "/" + strconv.FormatInt(id, 10) + "/"
	for _, a := range action {
		p += a + "/"
	}
	return p
}

func (c *RestClient) ListBranches(ctx context.Context, filters Filters) ([]Object, error) {
	return c.list(ctx, c.branchesEndpoint+"/", encodeFilters(filters), "", 0)
}

func (c *RestClient) GetBranch(ctx context.Context, id int64) (Object, error) {
	ret := Object{}
	if err := c.doJSON(ctx, request{method: http.MethodGet, target: c.branchPath(id)}, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *RestClient) CreateBranch(ctx context.Context, spec BranchSpec) (Object, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, validationErrorf("branch name cannot be empty")
	}
	body := Object{"name": spec.Name}
	if spec.Description != "" {
		body["description"] = spec.Description
	}
	if spec.BaseBranch != "" {
		body["base_branch"] = spec.BaseBranch
	}
	ret := Object{}
	if err := c.doJSON(ctx, request{method: http.MethodPost, target: c.branchesEndpoint + "/", body: body}, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *RestClient) UpdateBranch(ctx context.Context, id int64, data Object) (Object, error) {
	ret := Object{}
	if err := c.doJSON(ctx, request{method: http.MethodPatch, target: c.branchPath(id), body: data}, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *RestClient) DeleteBranch(ctx context.Context, id int64) (bool, error) {
	return c.delete(ctx, request{method: http.MethodDelete, target: c.branchPath(id)})
}

// MergeBranch starts a merge of the branch, the response describes the resulting job.
func (c *RestClient) MergeBranch(ctx context.Context, id int64, opts MergeOptions) (Object, error) {
	body := Object{"commit": opts.Commit}
	if opts.TargetBranch != "" {
		body["target_branch"] = opts.TargetBranch
	}
	ret := Object{}
	if err := c.doJSON(ctx, request{method: http.MethodPost, target: c.branchPath(id, "merge"), body: body}, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}
