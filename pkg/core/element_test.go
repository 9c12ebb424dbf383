package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCreateElementLiftsKey(t *testing.T) {
	el := H("li", Props{"key": 7, "id": "x"}, "text")

	if el.Key != 7 {
		t.Errorf("expected key 7, got %v", el.Key)
	}
	if _, ok := el.Props["key"]; ok {
		t.Error("expected key to be removed from props")
	}
	if el.Kind != HostKind("li") {
		t.Errorf("expected li kind, got %v", el.Kind)
	}
	children := el.Children()
	if len(children) != 1 || children[0].Kind != TextKind || Prop[string](children[0].Props, "nodeValue") != "text" {
		t.Errorf("unexpected children %v", children)
	}
}

func TestUncomparableKeyIsStringified(t *testing.T) {
	el := H("li", Props{"key": []int{1, 2}})
	if el.Key != "[1 2]" {
		t.Errorf("expected stringified key, got %#v", el.Key)
	}
}

func TestChildrenFromProps(t *testing.T) {
	el := H("p", Props{"children": "x"})
	if got := len(el.Children()); got != 1 {
		t.Errorf("expected 1 child, got %d", got)
	}
}

func TestComponentKindIdentity(t *testing.T) {
	render := func(*RenderContext, Props) any { return nil }
	a := NewComponent("Same", render)
	b := NewComponent("Same", render)

	if ComponentKind(a) == ComponentKind(b) {
		t.Error("expected distinct components to have distinct kinds")
	}
	if C(a, nil).Kind != ComponentKind(a) {
		t.Error("expected C to use the component kind")
	}
}

func TestUnsupportedKindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unsupported kind")
		}
	}()
	CreateElement(42, nil)
}

func TestEventProps(t *testing.T) {
	tests := []struct {
		name  string
		event bool
		ev    string
	}{
		{"onClick", true, "click"},
		{"onDoubleClick", true, "doubleclick"},
		{"one", false, ""},
		{"on", false, ""},
		{"className", false, ""},
	}
	for _, tt := range tests {
		if got := isEventProp(tt.name); got != tt.event {
			t.Errorf("isEventProp(%q) = %v, expected %v", tt.name, got, tt.event)
		}
		if tt.event && eventName(tt.name) != tt.ev {
			t.Errorf("eventName(%q) = %q, expected %q", tt.name, eventName(tt.name), tt.ev)
		}
	}
}

func TestKindStrings(t *testing.T) {
	c := NewComponent("App", nil)
	got := []string{HostKind("div").String(), ComponentKind(c).String(), TextKind.String(), Kind{}.String()}
	want := []string{"div", "App", "#text", "<invalid>"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("kind strings (-want +got):\n%s", diff)
	}
}
