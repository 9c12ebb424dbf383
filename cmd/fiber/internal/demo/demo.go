// Package demo is the todo app bundled with the fiber CLI.
package demo

import (
	"fmt"
	"slices"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/flow"
)

// Todo is one persisted list entry.
type Todo struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// StorageKey is where the list is persisted.
const StorageKey = "demo.todos"

// Seed is the list shown before anything was persisted.
var Seed = []Todo{
	{ID: 1, Title: "Write the reconciler", Done: true},
	{ID: 2, Title: "Ship hooks"},
}

// Script is the click sequence replayed when the CLI is given none.
var Script = []string{"Add", "Toggle 2", "Active"}

// Theme selects the list's color scheme.
var Theme = core.CreateContext("Theme", "light")

// Filters are the filter button labels in display order.
var Filters = []string{"All", "Active", "Done"}

// App provides the theme named by the "theme" prop and renders the list.
var App = core.NewComponent("App", func(ctx *core.RenderContext, props core.Props) any {
	theme := core.Prop[string](props, "theme")
	if theme == "" {
		theme = Theme.Default()
	}
	return Theme.Provider(theme, core.C(TodoList, nil))
})

// TodoList is the stateful list with its header, filters and footer.
var TodoList = core.NewComponent("TodoList", func(ctx *core.RenderContext, props core.Props) any {
	theme := core.UseContext(ctx, Theme)
	todos, setTodos := core.UseStorage(ctx, StorageKey, Seed)
	filter, setFilter := core.UseState(ctx, "All")
	visible := core.UseMemo(ctx, func() []Todo {
		return Visible(todos, filter)
	}, core.Deps(todos, filter))

	add := func() {
		id := nextID(todos)
		setTodos(append(slices.Clip(todos), Todo{ID: id, Title: fmt.Sprintf("Task %d", id)}))
	}
	toggle := func(id int) {
		next := slices.Clone(todos)
		for i := range next {
			if next[i].ID == id {
				next[i].Done = !next[i].Done
			}
		}
		setTodos(next)
	}

	items := make([]core.Element, len(visible))
	for i, todo := range visible {
		className := "todo"
		if todo.Done {
			className += " done"
		}
		items[i] = core.H("li", core.Props{"key": todo.ID, "className": className},
			core.H("span", nil, todo.Title),
			core.H("button", core.Props{"onClick": func() { toggle(todo.ID) }}, fmt.Sprintf("Toggle %d", todo.ID)),
		)
	}

	return core.H("section", core.Props{"className": "todos " + theme},
		core.H("header", nil,
			core.H("h1", nil, "Todos"),
			core.H("button", core.Props{"onClick": add}, "Add"),
		),
		core.C(FilterBar, core.Props{"selected": filter, "onSelect": setFilter.Set}),
		flow.ShowElse(len(visible) > 0,
			core.H("p", core.Props{"className": "empty"}, "Nothing to show"),
			core.H("ul", nil, items),
		),
		core.C(Footer, core.Props{"todos": todos}),
	)
})

// FilterBar renders one button per filter and marks the selected one.
var FilterBar = core.NewComponent("FilterBar", func(ctx *core.RenderContext, props core.Props) any {
	selected := core.Prop[string](props, "selected")
	onSelect := core.Prop[func(string)](props, "onSelect")
	buttons := make([]core.Element, len(Filters))
	for i, name := range Filters {
		p := core.Props{"key": name, "onClick": func() { onSelect(name) }}
		if name == selected {
			p["className"] = "selected"
		}
		buttons[i] = core.H("button", p, name)
	}
	return core.H("nav", nil, buttons)
})

// Footer summarizes how much is left. It renders only when todos change.
var Footer = core.Memo(core.NewComponent("Footer", func(ctx *core.RenderContext, props core.Props) any {
	todos := core.Prop[[]Todo](props, "todos")
	left := 0
	for _, t := range todos {
		if !t.Done {
			left++
		}
	}
	return core.H("footer", nil, flow.Switch(
		flow.Match(len(todos) == 0, "No todos yet"),
		flow.Match(left == 0, "All done"),
		flow.Default(fmt.Sprintf("%d left", left)),
	))
}))

// Visible returns the todos shown under filter.
func Visible(todos []Todo, filter string) []Todo {
	switch filter {
	case "Active":
		return slices.DeleteFunc(slices.Clone(todos), func(t Todo) bool { return t.Done })
	case "Done":
		return slices.DeleteFunc(slices.Clone(todos), func(t Todo) bool { return !t.Done })
	default:
		return todos
	}
}

func nextID(todos []Todo) int {
	id := 0
	for _, t := range todos {
		id = max(id, t.ID)
	}
	return id + 1
}
