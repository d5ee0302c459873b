package netbox

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Object is a NetBox object representation, passed through verbatim.
type Object = map[string]any

// Filters are NetBox query filters, passed through verbatim as query parameters.
type Filters = map[string]any

// Client is the contract every NetBox backend satisfies.
// Implementations must validate bulk input with ValidateBulkObjects, ValidateBulkUpdate
// and ValidateBulkIDs before issuing any request.
type Client interface {
	// Get lists every object of the given type matching the filters, following pagination until exhausted.
	Get(ctx context.Context, objectType ObjectType, filters Filters) ([]Object, error)
	// Search runs a free-text query and returns at most limit objects, stopping pagination once reached.
	Search(ctx context.Context, objectType ObjectType, query string, limit int) ([]Object, error)
	// GetByID retrieves a single object. A missing object yields an error matching ErrNotFound.
	GetByID(ctx context.Context, objectType ObjectType, id int64) (Object, error)
	Create(ctx context.Context, objectType ObjectType, data Object) (Object, error)
	// Update applies a partial update (PATCH) to an existing object.
	Update(ctx context.Context, objectType ObjectType, id int64, data Object) (Object, error)
	// Delete removes an object. It returns false without error when the object does not exist.
	Delete(ctx context.Context, objectType ObjectType, id int64) (bool, error)
	BulkCreate(ctx context.Context, objectType ObjectType, data []Object) ([]Object, error)
	// BulkUpdate updates several objects at once, every entry must carry its "id".
	BulkUpdate(ctx context.Context, objectType ObjectType, data []Object) ([]Object, error)
	BulkDelete(ctx context.Context, objectType ObjectType, ids []int64) (bool, error)
}

// BranchSpec describes a new branch.
type BranchSpec struct {
	Name        string
	Description string
	// BaseBranch is the optional schema ID of the branch the new one is based on.
	BaseBranch string
}

// MergeOptions controls a branch merge.
type MergeOptions struct {
	// Commit applies the merge, a false value performs a dry-run.
	Commit bool
	// TargetBranch is an optional branch to merge into instead of main.
	TargetBranch string
}

// BranchClient manages NetBox branches and the branch context of subsequent object calls.
type BranchClient interface {
	ListBranches(ctx context.Context, filters Filters) ([]Object, error)
	GetBranch(ctx context.Context, id int64) (Object, error)
	CreateBranch(ctx context.Context, spec BranchSpec) (Object, error)
	UpdateBranch(ctx context.Context, id int64, data Object) (Object, error)
	DeleteBranch(ctx context.Context, id int64) (bool, error)
	MergeBranch(ctx context.Context, id int64, opts MergeOptions) (Object, error)
	// SetActiveBranch scopes every following object call to the branch with the provided schema ID.
	// It does not contact NetBox.
	SetActiveBranch(schemaID string) error
	ClearActiveBranch()
	ActiveBranch() string
}

// ValidateBulkObjects rejects an empty bulk payload.
func ValidateBulkObjects(data []Object) error {
	if len(data) == 0 {
		return validationErrorf("data list cannot be empty")
	}
	return nil
}

// ValidateBulkUpdate rejects an empty bulk payload or any entry without a valid id.
func ValidateBulkUpdate(data []Object) error {
	if err := ValidateBulkObjects(data); err != nil {
		return err
	}
	for i, item := range data {
		if raw, ok := item["id"]; !ok || raw == nil {
			return validationErrorf("item at index %d is missing required 'id' field", i)
		}
		if _, err := ObjectID(item); err != nil {
			return validationErrorf("item at index %d has an invalid 'id' field: %v", i, err)
		}
	}
	return nil
}

// ValidateBulkIDs rejects an empty id list.
func ValidateBulkIDs(ids []int64) error {
	if len(ids) == 0 {
		return validationErrorf("id list cannot be empty")
	}
	return nil
}

// ObjectID extracts the numeric "id" field of an object.
func ObjectID(obj Object) (int64, error) {
	raw, ok := obj["id"]
	if !ok || raw == nil {
		return 0, fmt.Errorf("missing id")
	}
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("id %v is not an integer", v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("id has unsupported type %T", raw)
	}
}
