package selector

import (
	"testing"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domedit/dom"
)

func mustParse(t *testing.T, content string) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func queryOne(t *testing.T, doc *dom.Document, sel string) *html.Node {
	t.Helper()
	nodes, err := doc.QueryAll(sel)
	if err != nil {
		t.Fatalf("QueryAll(%q): %v", sel, err)
	}
	if len(nodes) != 1 {
		t.Fatalf("QueryAll(%q) = %d nodes, want 1", sel, len(nodes))
	}
	return nodes[0]
}

func TestGenerateStableID(t *testing.T) {
	doc := mustParse(t, `<div id="sidebar"><p>x</p></div>`)
	el := queryOne(t, doc, "#sidebar")

	got, err := Generate(el)
	if err != nil {
		t.Fatal(err)
	}
	if got != "#sidebar" {
		t.Errorf("Generate = %q, want #sidebar", got)
	}
}

func TestGenerateSkipsGeneratedIDs(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"numeric", "12345"},
		{"react useId", ":r1:"},
		{"editor namespace", "domedit-panel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, `<body><div id="`+tt.id+`" class="card"></div></body>`)
			nodes, err := doc.QueryAll("div.card")
			if err != nil || len(nodes) != 1 {
				t.Fatalf("setup query: %d nodes, %v", len(nodes), err)
			}
			got, err := Generate(nodes[0])
			if tt.id == "domedit-panel" {
				// Namespaced id makes the element editor-owned entirely.
				if err == nil {
					t.Errorf("editor-owned element: want error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got == "#"+tt.id {
				t.Errorf("Generate = %q, unstable id must not anchor the selector", got)
			}
		})
	}
}

// Three identical sibling buttons must each get a distinct selector that
// resolves back to exactly that button.
func TestGenerateDisambiguatesSiblings(t *testing.T) {
	doc := mustParse(t, `<body><div id="toolbar">
		<button class="btn-primary">One</button>
		<button class="btn-primary">Two</button>
		<button class="btn-primary">Three</button>
	</div></body>`)

	buttons, err := doc.QueryAll("#toolbar button")
	if err != nil {
		t.Fatal(err)
	}
	if len(buttons) != 3 {
		t.Fatalf("got %d buttons, want 3", len(buttons))
	}

	seen := make(map[string]bool)
	for i, btn := range buttons {
		sel, err := Generate(btn)
		if err != nil {
			t.Fatalf("button %d: %v", i, err)
		}
		if seen[sel] {
			t.Fatalf("button %d: duplicate selector %q", i, sel)
		}
		seen[sel] = true

		matched, err := doc.QueryAll(sel)
		if err != nil {
			t.Fatalf("resolve %q: %v", sel, err)
		}
		if len(matched) != 1 {
			t.Fatalf("%q matched %d elements, want 1", sel, len(matched))
		}
		if matched[0] != btn {
			t.Errorf("%q resolved to a different element", sel)
		}
	}
}

func TestGenerateClassPath(t *testing.T) {
	doc := mustParse(t, `<body><main><section class="hero"><p class="lead">x</p></section></main></body>`)
	el := queryOne(t, doc, "p.lead")

	got, err := Generate(el)
	if err != nil {
		t.Fatal(err)
	}
	if got != "main > section.hero > p.lead" {
		t.Errorf("Generate = %q", got)
	}

	matched, err := doc.QueryAll(got)
	if err != nil || len(matched) != 1 || matched[0] != el {
		t.Errorf("selector %q did not round-trip: %d matches, %v", got, len(matched), err)
	}
}

func TestGenerateFiltersEditorClasses(t *testing.T) {
	doc := mustParse(t, `<body><main><p class="lead domedit-drop-target">x</p></main></body>`)
	el := queryOne(t, doc, "p.lead")

	got, err := Generate(el)
	if err != nil {
		t.Fatal(err)
	}
	if got != "main > p.lead" {
		t.Errorf("Generate = %q, editor class must be filtered", got)
	}
}

func TestGenerateNthChildCountsAllElements(t *testing.T) {
	// The second <p> is the third element child; :nth-child must say 3.
	doc := mustParse(t, `<body><div id="wrap"><p>a</p><span>b</span><p>c</p></div></body>`)
	ps, err := doc.QueryAll("#wrap p")
	if err != nil || len(ps) != 2 {
		t.Fatalf("setup: %d nodes, %v", len(ps), err)
	}

	got, err := Generate(ps[1])
	if err != nil {
		t.Fatal(err)
	}
	if got != "div > p:nth-child(3)" {
		t.Errorf("Generate = %q, want div > p:nth-child(3)", got)
	}
	matched, _ := doc.QueryAll(got)
	if len(matched) != 1 || matched[0] != ps[1] {
		t.Errorf("selector %q did not resolve to the second paragraph", got)
	}
}

func TestGenerateRejectsNonElements(t *testing.T) {
	if _, err := Generate(nil); err == nil {
		t.Error("nil node: want error")
	}
	text := &html.Node{Type: html.TextNode, Data: "hi"}
	if _, err := Generate(text); err == nil {
		t.Error("text node: want error")
	}
}

func TestGenerateRejectsEditorOwned(t *testing.T) {
	doc := mustParse(t, `<body><div data-domedit="toolbar"><button>x</button></div></body>`)
	var btn *html.Node
	dom.Walk(doc.Root(), func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "button" {
			btn = n
			return false
		}
		return true
	})
	if btn == nil {
		t.Fatal("button not found")
	}
	if _, err := Generate(btn); err == nil {
		t.Error("editor-owned element: want error")
	}
}
