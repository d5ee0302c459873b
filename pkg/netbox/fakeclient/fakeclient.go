package fakeclient

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/netbox-community/netbox-mcp-server/pkg/netbox"
)

// Call is a recorded backend invocation.
type Call struct {
	Operation  string
	ObjectType netbox.ObjectType
	ID         int64
	Branch     string
}

// FakeNetBoxClient is an in-memory implementation of netbox.Client and netbox.BranchClient.
// Objects are stored per branch, an empty branch being the main dataset.
type FakeNetBoxClient struct {
	mu       sync.Mutex
	objects  map[string]map[netbox.ObjectType]map[int64]netbox.Object
	branches map[int64]netbox.Object
	nextID   int64
	branch   string
	calls    []Call
	// Err, when set, is returned by every operation contacting the backend
	Err error
}

var (
	_ netbox.Client       = (*FakeNetBoxClient)(nil)
	_ netbox.BranchClient = (*FakeNetBoxClient)(nil)
)

type Option func(*FakeNetBoxClient)

// WithObjects seeds the main dataset, objects without id get one assigned.
func WithObjects(objectType netbox.ObjectType, objects ...netbox.Object) Option {
	return func(f *FakeNetBoxClient) {
		for _, obj := range objects {
			f.store("", objectType, obj)
		}
	}
}

// WithBranch seeds a branch.
func WithBranch(branch netbox.Object) Option {
	return func(f *FakeNetBoxClient) {
		id, err := netbox.ObjectID(branch)
		if err != nil {
			f.nextID++
			id = f.nextID
		}
		b := copyObject(branch)
		b["id"] = id
		f.branches[id] = b
		if id > f.nextID {
			f.nextID = id
		}
	}
}

func NewFakeNetBoxClient(opts ...Option) *FakeNetBoxClient {
	f := &FakeNetBoxClient{
		objects:  make(map[string]map[netbox.ObjectType]map[int64]netbox.Object),
		branches: make(map[int64]netbox.Object),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Calls returns the recorded backend invocations.
func (f *FakeNetBoxClient) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *FakeNetBoxClient) record(operation string, objectType netbox.ObjectType, id int64) error {
	f.calls = append(f.calls, Call{Operation: operation, ObjectType: objectType, ID: id, Branch: f.branch})
	return f.Err
}

func (f *FakeNetBoxClient) collection(branch string, objectType netbox.ObjectType) map[int64]netbox.Object {
	if f.objects[branch] == nil {
		f.objects[branch] = make(map[netbox.ObjectType]map[int64]netbox.Object)
	}
	if f.objects[branch][objectType] == nil {
		f.objects[branch][objectType] = make(map[int64]netbox.Object)
	}
	return f.objects[branch][objectType]
}

func (f *FakeNetBoxClient) store(branch string, objectType netbox.ObjectType, obj netbox.Object) netbox.Object {
	stored := copyObject(obj)
	id, err := netbox.ObjectID(stored)
	if err != nil {
		f.nextID++
		id = f.nextID
	} else if id > f.nextID {
		f.nextID = id
	}
	stored["id"] = id
	f.collection(branch, objectType)[id] = stored
	return copyObject(stored)
}

func notFound(method, path string) error {
	return &netbox.RemoteError{Method: method, URL: path, StatusCode: http.StatusNotFound, Body: `{"detail":"Not found."}`}
}

func (f *FakeNetBoxClient) Get(_ context.Context, objectType netbox.ObjectType, filters netbox.Filters) ([]netbox.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get", objectType, 0); err != nil {
		return nil, err
	}
	ret := make([]netbox.Object, 0)
	for _, obj := range sortedObjects(f.collection(f.branch, objectType)) {
		if matches(obj, filters) {
			ret = append(ret, copyObject(obj))
		}
	}
	return ret, nil
}

func (f *FakeNetBoxClient) Search(_ context.Context, objectType netbox.ObjectType, query string, limit int) ([]netbox.Object, error) {
	if limit <= 0 {
		return nil, &netbox.ValidationError{Reason: "limit must be a positive integer"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("search", objectType, 0); err != nil {
		return nil, err
	}
	ret := make([]netbox.Object, 0)
	for _, obj := range sortedObjects(f.collection(f.branch, objectType)) {
		if len(ret) == limit {
			break
		}
		if containsText(obj, query) {
			ret = append(ret, copyObject(obj))
		}
	}
	return ret, nil
}

func (f *FakeNetBoxClient) GetByID(_ context.Context, objectType netbox.ObjectType, id int64) (netbox.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get", objectType, id); err != nil {
		return nil, err
	}
	obj, ok := f.collection(f.branch, objectType)[id]
	if !ok {
		return nil, notFound(http.MethodGet, objectType.Path())
	}
	return copyObject(obj), nil
}

func (f *FakeNetBoxClient) Create(_ context.Context, objectType netbox.ObjectType, data netbox.Object) (netbox.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create", objectType, 0); err != nil {
		return nil, err
	}
	obj := copyObject(data)
	delete(obj, "id")
	return f.store(f.branch, objectType, obj), nil
}

func (f *FakeNetBoxClient) Update(_ context.Context, objectType netbox.ObjectType, id int64, data netbox.Object) (netbox.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update", objectType, id); err != nil {
		return nil, err
	}
	return f.update(objectType, id, data)
}

func (f *FakeNetBoxClient) update(objectType netbox.ObjectType, id int64, data netbox.Object) (netbox.Object, error) {
	obj, ok := f.collection(f.branch, objectType)[id]
	if !ok {
		return nil, notFound(http.MethodPatch, objectType.Path())
	}
	for k, v := range data {
		if k != "id" {
			obj[k] = v
		}
	}
	return copyObject(obj), nil
}

func (f *FakeNetBoxClient) Delete(_ context.Context, objectType netbox.ObjectType, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete", objectType, id); err != nil {
		return false, err
	}
	c := f.collection(f.branch, objectType)
	if _, ok := c[id]; !ok {
		return false, nil
	}
	delete(c, id)
	return true, nil
}

func (f *FakeNetBoxClient) BulkCreate(_ context.Context, objectType netbox.ObjectType, data []netbox.Object) ([]netbox.Object, error) {
	if err := netbox.ValidateBulkObjects(data); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("bulk_create", objectType, 0); err != nil {
		return nil, err
	}
	ret := make([]netbox.Object, 0, len(data))
	for _, item := range data {
		obj := copyObject(item)
		delete(obj, "id")
		ret = append(ret, f.store(f.branch, objectType, obj))
	}
	return ret, nil
}

func (f *FakeNetBoxClient) BulkUpdate(_ context.Context, objectType netbox.ObjectType, data []netbox.Object) ([]netbox.Object, error) {
	if err := netbox.ValidateBulkUpdate(data); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("bulk_update", objectType, 0); err != nil {
		return nil, err
	}
	// All or nothing, like NetBox does within its transaction
	for _, item := range data {
		id, _ := netbox.ObjectID(item)
		if _, ok := f.collection(f.branch, objectType)[id]; !ok {
			return nil, notFound(http.MethodPatch, objectType.Path())
		}
	}
	ret := make([]netbox.Object, 0, len(data))
	for _, item := range data {
		id, _ := netbox.ObjectID(item)
		obj, _ := f.update(objectType, id, item)
		ret = append(ret, obj)
	}
	return ret, nil
}

func (f *FakeNetBoxClient) BulkDelete(_ context.Context, objectType netbox.ObjectType, ids []int64) (bool, error) {
	if err := netbox.ValidateBulkIDs(ids); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("bulk_delete", objectType, 0); err != nil {
		return false, err
	}
	c := f.collection(f.branch, objectType)
	for _, id := range ids {
		if _, ok := c[id]; !ok {
			return false, notFound(http.MethodDelete, objectType.Path())
		}
	}
	for _, id := range ids {
		delete(c, id)
	}
	return true, nil
}

func (f *FakeNetBoxClient) ListBranches(_ context.Context, filters netbox.Filters) ([]netbox.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("list_branches", 0, 0); err != nil {
		return nil, err
	}
	ret := make([]netbox.Object, 0, len(f.branches))
	for _, b := range sortedObjects(f.branches) {
		if matches(b, filters) {
			ret = append(ret, copyObject(b))
		}
	}
	return ret, nil
}

func (f *FakeNetBoxClient) GetBranch(_ context.Context, id int64) (netbox.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get_branch", 0, id); err != nil {
		return nil, err
	}
	b, ok := f.branches[id]
	if !ok {
		return nil, notFound(http.MethodGet, netbox.DefaultBranchesEndpoint)
	}
	return copyObject(b), nil
}

func (f *FakeNetBoxClient) CreateBranch(_ context.Context, spec netbox.BranchSpec) (netbox.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create_branch", 0, 0); err != nil {
		return nil, err
	}
	f.nextID++
	b := netbox.Object{
		"id":          f.nextID,
		"name":        spec.Name,
		"description": spec.Description,
		"schema_id":   fmt.Sprintf("br%06d", f.nextID),
		"status":      "ready",
	}
	if spec.BaseBranch != "" {
		b["base_branch"] = spec.BaseBranch
	}
	f.branches[f.nextID] = b
	return copyObject(b), nil
}

func (f *FakeNetBoxClient) UpdateBranch(_ context.Context, id int64, data netbox.Object) (netbox.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update_branch", 0, id); err != nil {
		return nil, err
	}
	b, ok := f.branches[id]
	if !ok {
		return nil, notFound(http.MethodPatch, netbox.DefaultBranchesEndpoint)
	}
	for k, v := range data {
		if k != "id" {
			b[k] = v
		}
	}
	return copyObject(b), nil
}

func (f *FakeNetBoxClient) DeleteBranch(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete_branch", 0, id); err != nil {
		return false, err
	}
	if _, ok := f.branches[id]; !ok {
		return false, nil
	}
	delete(f.branches, id)
	return true, nil
}

// MergeBranch copies the branch objects into the main dataset when committing.
func (f *FakeNetBoxClient) MergeBranch(_ context.Context, id int64, opts netbox.MergeOptions) (netbox.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("merge_branch", 0, id); err != nil {
		return nil, err
	}
	b, ok := f.branches[id]
	if !ok {
		return nil, notFound(http.MethodPost, netbox.DefaultBranchesEndpoint)
	}
	schemaID, _ := b["schema_id"].(string)
	if opts.Commit {
		for objectType, objects := range f.objects[schemaID] {
			for _, obj := range objects {
				f.store(opts.TargetBranch, objectType, obj)
			}
		}
		b["status"] = "merged"
	}
	return netbox.Object{
		"name":   "Merge branch " + fmt.Sprint(b["name"]),
		"status": "completed",
		"commit": opts.Commit,
	}, nil
}

func (f *FakeNetBoxClient) SetActiveBranch(schemaID string) error {
	schemaID = strings.TrimSpace(schemaID)
	if schemaID == "" {
		return &netbox.ValidationError{Reason: "branch schema ID cannot be empty"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.branch = schemaID
	return nil
}

func (f *FakeNetBoxClient) ClearActiveBranch() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.branch = ""
}

func (f *FakeNetBoxClient) ActiveBranch() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.branch
}

func copyObject(obj netbox.Object) netbox.Object {
	ret := make(netbox.Object, len(obj))
	for k, v := range obj {
		ret[k] = v
	}
	return ret
}

func sortedObjects(objects map[int64]netbox.Object) []netbox.Object {
	ids := make([]int64, 0, len(objects))
	for id := range objects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	ret := make([]netbox.Object, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, objects[id])
	}
	return ret
}

// matches applies a simplified NetBox filter semantic: "q" searches string fields,
// other filters compare the string representation of top level fields.
func matches(obj netbox.Object, filters netbox.Filters) bool {
	for k, v := range filters {
		if k == "q" {
			if !containsText(obj, fmt.Sprint(v)) {
				return false
			}
			continue
		}
		if k == "limit" || k == "offset" || k == "brief" || k == "ordering" {
			continue
		}
		if !valueMatches(obj[k], v) {
			return false
		}
	}
	return true
}

func containsText(obj netbox.Object, q string) bool {
	q = strings.ToLower(q)
	for _, v := range obj {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

func valueMatches(actual, expected any) bool {
	if list, ok := expected.([]any); ok {
		for _, e := range list {
			if valueMatches(actual, e) {
				return true
			}
		}
		return false
	}
	if nested, ok := actual.(map[string]any); ok {
		for _, key := range []string{"id", "slug", "name", "value"} {
			if v, exists := nested[key]; exists && fmt.Sprint(v) == fmt.Sprint(expected) {
				return true
			}
		}
		return false
	}
	return fmt.Sprint(actual) == fmt.Sprint(expected)
}
