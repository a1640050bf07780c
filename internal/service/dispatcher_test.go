package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/tjfontaine/plume/internal/domain"
	"github.com/tjfontaine/plume/internal/storage/memory"
	"github.com/tjfontaine/plume/pkg/hook"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(t *testing.T, hooks Hooks) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(testLogger(), Definition{
		Path:  "messages",
		Store: memory.New(),
		Hooks: hooks,
	})
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	return d
}

func mark(log *[]string, name string) hook.Func {
	return func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		*log = append(*log, name)
		return nil, nil
	}
}

func TestNewDispatcher_Validation(t *testing.T) {
	store := memory.New()

	if _, err := NewDispatcher(testLogger(), Definition{Path: "/", Store: store}); err == nil {
		t.Error("NewDispatcher() expected error for empty path")
	}
	if _, err := NewDispatcher(testLogger(), Definition{Path: "messages"}); err == nil {
		t.Error("NewDispatcher() expected error for nil store")
	}
	if _, err := NewDispatcher(testLogger(),
		Definition{Path: "messages", Store: store},
		Definition{Path: "/messages/", Store: store},
	); err == nil {
		t.Error("NewDispatcher() expected error for duplicate path")
	}
}

func TestDispatcher_UnknownService(t *testing.T) {
	d := newTestDispatcher(t, Hooks{})

	_, err := d.Call(context.Background(), Call{Path: "ghosts", Method: MethodFind})
	var svcErr *domain.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("Call() error = %v, want ServiceError", err)
	}
	if svcErr.Code != domain.ErrorCodeUnknownService {
		t.Errorf("Code = %v, want %v", svcErr.Code, domain.ErrorCodeUnknownService)
	}
}

func TestDispatcher_CreateAndGet(t *testing.T) {
	d := newTestDispatcher(t, Hooks{})

	created, err := d.Call(context.Background(), Call{
		Path:   "messages",
		Method: MethodCreate,
		Data:   map[string]any{"title": "hello"},
	})
	if err != nil {
		t.Fatalf("Call(create) error = %v", err)
	}

	item, ok := created.Result.(map[string]any)
	if !ok {
		t.Fatalf("Result type = %T, want map", created.Result)
	}
	id, _ := item["id"].(string)
	if id == "" {
		t.Fatal("create result has no id")
	}
	if item["title"] != "hello" {
		t.Errorf("title = %v, want hello", item["title"])
	}

	got, err := d.Call(context.Background(), Call{
		Path:   "messages",
		Method: MethodGet,
		ID:     id,
	})
	if err != nil {
		t.Fatalf("Call(get) error = %v", err)
	}
	gotItem := got.Result.(map[string]any)
	if gotItem["title"] != "hello" {
		t.Errorf("title = %v, want hello", gotItem["title"])
	}
}

func TestDispatcher_CreateHonorsDataID(t *testing.T) {
	d := newTestDispatcher(t, Hooks{})

	created, err := d.Call(context.Background(), Call{
		Path:   "messages",
		Method: MethodCreate,
		Data:   map[string]any{"id": "custom-1", "title": "pinned"},
	})
	if err != nil {
		t.Fatalf("Call(create) error = %v", err)
	}
	item := created.Result.(map[string]any)
	if item["id"] != "custom-1" {
		t.Errorf("id = %v, want custom-1", item["id"])
	}
}

func TestDispatcher_UpdateAndPatch(t *testing.T) {
	d := newTestDispatcher(t, Hooks{})

	if _, err := d.Call(context.Background(), Call{
		Path:   "messages",
		Method: MethodCreate,
		Data:   map[string]any{"id": "m1", "title": "orig", "status": "open"},
	}); err != nil {
		t.Fatalf("Call(create) error = %v", err)
	}

	updated, err := d.Call(context.Background(), Call{
		Path:   "messages",
		Method: MethodUpdate,
		ID:     "m1",
		Data:   map[string]any{"title": "replaced"},
	})
	if err != nil {
		t.Fatalf("Call(update) error = %v", err)
	}
	item := updated.Result.(map[string]any)
	if item["title"] != "replaced" {
		t.Errorf("title = %v, want replaced", item["title"])
	}
	if _, ok := item["status"]; ok {
		t.Error("update kept field that should be replaced")
	}

	patched, err := d.Call(context.Background(), Call{
		Path:   "messages",
		Method: MethodPatch,
		ID:     "m1",
		Data:   map[string]any{"status": "done"},
	})
	if err != nil {
		t.Fatalf("Call(patch) error = %v", err)
	}
	item = patched.Result.(map[string]any)
	if item["title"] != "replaced" || item["status"] != "done" {
		t.Errorf("patched item = %v, want title=replaced status=done", item)
	}
}

func TestDispatcher_RemoveReturnsRecord(t *testing.T) {
	d := newTestDispatcher(t, Hooks{})

	if _, err := d.Call(context.Background(), Call{
		Path:   "messages",
		Method: MethodCreate,
		Data:   map[string]any{"id": "m1", "title": "parting"},
	}); err != nil {
		t.Fatalf("Call(create) error = %v", err)
	}

	removed, err := d.Call(context.Background(), Call{
		Path:   "messages",
		Method: MethodRemove,
		ID:     "m1",
	})
	if err != nil {
		t.Fatalf("Call(remove) error = %v", err)
	}
	item := removed.Result.(map[string]any)
	if item["title"] != "parting" {
		t.Errorf("title = %v, want parting", item["title"])
	}

	_, err = d.Call(context.Background(), Call{Path: "messages", Method: MethodGet, ID: "m1"})
	var svcErr *domain.ServiceError
	if !errors.As(err, &svcErr) || svcErr.Code != domain.ErrorCodeRecordNotFound {
		t.Errorf("Call(get) error = %v, want record_not_found", err)
	}
}

func TestDispatcher_MissingID(t *testing.T) {
	d := newTestDispatcher(t, Hooks{})

	for _, method := range []Method{MethodGet, MethodUpdate, MethodPatch, MethodRemove} {
		_, err := d.Call(context.Background(), Call{Path: "messages", Method: method})
		var svcErr *domain.ServiceError
		if !errors.As(err, &svcErr) || svcErr.Type != domain.ErrorTypeBadRequest {
			t.Errorf("Call(%s) error = %v, want bad_request", method, err)
		}
	}
}

func TestDispatcher_HookOrder(t *testing.T) {
	var log []string
	d := newTestDispatcher(t, Hooks{
		Before: map[Method]hook.Chain{
			MethodAll:    {mark(&log, "before-all")},
			MethodCreate: {mark(&log, "before-create")},
		},
		After: map[Method]hook.Chain{
			MethodAll:    {mark(&log, "after-all")},
			MethodCreate: {mark(&log, "after-create")},
		},
	})

	if _, err := d.Call(context.Background(), Call{
		Path:   "messages",
		Method: MethodCreate,
		Data:   map[string]any{"title": "x"},
	}); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	want := []string{"before-all", "before-create", "after-all", "after-create"}
	if len(log) != len(want) {
		t.Fatalf("hook order = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("hook order = %v, want %v", log, want)
		}
	}
}

func TestDispatcher_StagesOnContext(t *testing.T) {
	var stages []string
	capture := hook.Func(func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		stages = append(stages, c.Stage)
		return nil, nil
	})

	d := newTestDispatcher(t, Hooks{
		Before: map[Method]hook.Chain{MethodAll: {capture}},
		After:  map[Method]hook.Chain{MethodAll: {capture}},
	})

	if _, err := d.Call(context.Background(), Call{
		Path:   "messages",
		Method: MethodCreate,
		Data:   map[string]any{"title": "x"},
	}); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	if len(stages) != 2 || stages[0] != hook.StageBefore || stages[1] != hook.StageAfter {
		t.Errorf("stages = %v, want [before after]", stages)
	}
}

func TestDispatcher_PresetResultSkipsStore(t *testing.T) {
	preset := hook.Func(func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		c.Result = map[string]any{"id": "cached", "title": "from cache"}
		return nil, nil
	})

	d := newTestDispatcher(t, Hooks{
		Before: map[Method]hook.Chain{MethodGet: {preset}},
	})

	// The store is empty; without the preset this get would fail.
	got, err := d.Call(context.Background(), Call{Path: "messages", Method: MethodGet, ID: "cached"})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	item := got.Result.(map[string]any)
	if item["title"] != "from cache" {
		t.Errorf("title = %v, want from cache", item["title"])
	}
}

func TestDispatcher_BeforeFailureStopsCall(t *testing.T) {
	boom := errors.New("boom")
	failing := hook.Func(func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		return nil, boom
	})

	d := newTestDispatcher(t, Hooks{
		Before: map[Method]hook.Chain{MethodCreate: {failing}},
	})

	_, err := d.Call(context.Background(), Call{
		Path:   "messages",
		Method: MethodCreate,
		Data:   map[string]any{"title": "x"},
	})

	herr, ok := hook.AsError(err)
	if !ok {
		t.Fatalf("Call() error = %v, want classified hook error", err)
	}
	if herr.Kind != hook.KindInterceptor || herr.Index != 0 {
		t.Errorf("Kind = %v Index = %d, want %v 0", herr.Kind, herr.Index, hook.KindInterceptor)
	}

	// Nothing was written
	found, err := d.Call(context.Background(), Call{Path: "messages", Method: MethodFind})
	if err != nil {
		t.Fatalf("Call(find) error = %v", err)
	}
	if items := found.Result.([]any); len(items) != 0 {
		t.Errorf("find count = %d, want 0", len(items))
	}
}

func TestDispatcher_HooksCanRewriteFindOptions(t *testing.T) {
	restrict := hook.Func(func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		c.Set(MetaFilter, map[string]string{"owner": "ana"})
		return nil, nil
	})

	d := newTestDispatcher(t, Hooks{
		Before: map[Method]hook.Chain{MethodFind: {restrict}},
	})

	for _, owner := range []string{"ana", "bob", "ana"} {
		if _, err := d.Call(context.Background(), Call{
			Path:   "messages",
			Method: MethodCreate,
			Data:   map[string]any{"owner": owner},
		}); err != nil {
			t.Fatalf("Call(create) error = %v", err)
		}
	}

	found, err := d.Call(context.Background(), Call{Path: "messages", Method: MethodFind})
	if err != nil {
		t.Fatalf("Call(find) error = %v", err)
	}
	items := found.Result.([]any)
	if len(items) != 2 {
		t.Fatalf("find count = %d, want 2", len(items))
	}
	for _, it := range items {
		if it.(map[string]any)["owner"] != "ana" {
			t.Errorf("owner = %v, want ana", it.(map[string]any)["owner"])
		}
	}
}

func TestDispatcher_ConditionalChainsByTransport(t *testing.T) {
	var log []string
	d := newTestDispatcher(t, Hooks{
		Before: map[Method]hook.Chain{
			MethodCreate: {hook.Iff(hook.FromTransport(hook.External), mark(&log, "external-only"))},
		},
	})

	// In-process call skips the gated chain
	if _, err := d.Call(context.Background(), Call{
		Path:   "messages",
		Method: MethodCreate,
		Data:   map[string]any{"title": "internal"},
	}); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if len(log) != 0 {
		t.Errorf("gated chain ran for in-process call: %v", log)
	}

	// Transport-tagged call runs it
	if _, err := d.Call(context.Background(), Call{
		Path:      "messages",
		Method:    MethodCreate,
		Transport: "rest",
		Data:      map[string]any{"title": "external"},
	}); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if len(log) != 1 || log[0] != "external-only" {
		t.Errorf("gated chain log = %v, want [external-only]", log)
	}
}

func TestDispatcher_Paths(t *testing.T) {
	d, err := NewDispatcher(testLogger(),
		Definition{Path: "zebras", Store: memory.New()},
		Definition{Path: "apes", Store: memory.New()},
	)
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}

	paths := d.Paths()
	if len(paths) != 2 || paths[0] != "apes" || paths[1] != "zebras" {
		t.Errorf("Paths() = %v, want [apes zebras]", paths)
	}
}

func TestDispatcher_CloseSharedStoreOnce(t *testing.T) {
	store := memory.New()
	d, err := NewDispatcher(testLogger(),
		Definition{Path: "a", Store: store},
		Definition{Path: "b", Store: store},
	)
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}

	if err := d.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
