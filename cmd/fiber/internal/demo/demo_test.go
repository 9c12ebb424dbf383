package demo

import (
	"encoding/json"
	"testing"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/storage"
	fibertest "github.com/go-drift/fiber/pkg/testing"
	"github.com/google/go-cmp/cmp"
)

func TestInitialRender(t *testing.T) {
	tester := fibertest.NewTesterWithT(t)
	if err := tester.Render(core.C(App, nil)); err != nil {
		t.Fatal(err)
	}

	want := `<section class="todos light"><header><h1>Todos</h1><button>Add</button></header>` +
		`<nav><button class="selected">All</button><button>Active</button><button>Done</button></nav>` +
		`<ul><li class="todo done"><span>Write the reconciler</span><button>Toggle 1</button></li>` +
		`<li class="todo"><span>Ship hooks</span><button>Toggle 2</button></li></ul>` +
		`<footer>1 left</footer></section>`
	if got := tester.HTML(); got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestThemeFromProps(t *testing.T) {
	tester := fibertest.NewTesterWithT(t)
	tester.Render(core.C(App, core.Props{"theme": "dark"}))

	if !tester.Find(fibertest.ByClass("dark")).Exists() {
		t.Error("expected the dark theme class")
	}
}

func TestFilterSkipsFooter(t *testing.T) {
	tester := fibertest.NewTesterWithT(t)
	tester.Render(core.C(App, nil))

	if err := tester.Click(fibertest.ByText("Done")); err != nil {
		t.Fatal(err)
	}
	if got := tester.Root().Stats().Bailouts; got != 1 {
		t.Errorf("expected the footer to skip its render, got %d bailouts", got)
	}
	if got := tester.Find(fibertest.ByTag("footer")).Text(); got != "1 left" {
		t.Errorf("expected 1 left, got %q", got)
	}
}

func TestScript(t *testing.T) {
	store := storage.NewMemory()
	tester := fibertest.NewTesterWithT(t, core.WithStore(store))
	tester.Render(core.C(App, nil))

	for _, label := range Script {
		if err := tester.Click(fibertest.ByText(label)); err != nil {
			t.Fatalf("click %q: %v", label, err)
		}
	}

	items := tester.Find(fibertest.ByTag("li"))
	if items.Count() != 1 || items.First().Children[0].TextContent() != "Task 3" {
		t.Errorf("expected only Task 3 to be active, got %s", tester.HTML())
	}
	if got := tester.Find(fibertest.ByTag("footer")).Text(); got != "1 left" {
		t.Errorf("expected 1 left, got %q", got)
	}
	if got := tester.Find(fibertest.ByClass("selected")).Text(); got != "Active" {
		t.Errorf("expected Active selected, got %q", got)
	}

	data, ok, err := store.Get(StorageKey)
	if err != nil || !ok {
		t.Fatalf("expected persisted todos, got ok=%v err=%v", ok, err)
	}
	var saved []Todo
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatal(err)
	}
	want := []Todo{
		{ID: 1, Title: "Write the reconciler", Done: true},
		{ID: 2, Title: "Ship hooks", Done: true},
		{ID: 3, Title: "Task 3"},
	}
	if diff := cmp.Diff(want, saved); diff != "" {
		t.Errorf("persisted todos (-want +got):\n%s", diff)
	}
}

func TestRestoresFromStore(t *testing.T) {
	store := storage.NewMemory()
	store.Set(StorageKey, []byte(`[{"id":7,"title":"Persisted","done":true}]`))
	tester := fibertest.NewTesterWithT(t, core.WithStore(store))
	tester.Render(core.C(App, nil))

	if !tester.Find(fibertest.ByText("Persisted")).Exists() {
		t.Errorf("expected persisted todo, got %s", tester.HTML())
	}
	if got := tester.Find(fibertest.ByTag("footer")).Text(); got != "All done" {
		t.Errorf("expected All done, got %q", got)
	}
	tester.Click(fibertest.ByText("Done"))
	tester.Click(fibertest.ByText("Toggle 7"))
	if !tester.Find(fibertest.ByClass("empty")).Exists() {
		t.Errorf("expected empty placeholder under Done, got %s", tester.HTML())
	}
}

func TestVisible(t *testing.T) {
	todos := []Todo{{ID: 1, Done: true}, {ID: 2}}
	tests := []struct {
		filter string
		want   []int
	}{
		{"All", []int{1, 2}},
		{"Active", []int{2}},
		{"Done", []int{1}},
	}
	for _, tt := range tests {
		var got []int
		for _, todo := range Visible(todos, tt.filter) {
			got = append(got, todo.ID)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Visible(%q) (-want +got):\n%s", tt.filter, diff)
		}
	}
	if len(todos) != 2 {
		t.Error("expected Visible not to modify its input")
	}
}
