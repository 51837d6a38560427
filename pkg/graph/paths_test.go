package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-qbe/pkg/registry"
)

// blogGraph mirrors a small blog schema: posts belong to users, comments
// belong to both posts and users. Edges are mirrored the way
// Registry.Graph builds them.
func blogGraph() registry.Graph {
	return registry.Graph{
		"Blog.Post": {
			{SourceField: "author_id", Target: "Auth.User", TargetField: "id"},
			{SourceField: "id", Target: "Blog.Comment", TargetField: "post_id"},
		},
		"Auth.User": {
			{SourceField: "id", Target: "Blog.Post", TargetField: "author_id"},
			{SourceField: "id", Target: "Blog.Comment", TargetField: "author_id"},
		},
		"Blog.Comment": {
			{SourceField: "post_id", Target: "Blog.Post", TargetField: "id"},
			{SourceField: "author_id", Target: "Auth.User", TargetField: "id"},
		},
	}
}

func TestFindAllPaths_ReturnsEverySimplePath(t *testing.T) {
	paths := FindAllPaths(blogGraph(), "Blog.Post", "Auth.User")
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %#v", paths)
	}

	want := map[string]bool{
		"Blog.Post|Auth.User":              false,
		"Blog.Post|Blog.Comment|Auth.User": false,
	}
	for _, path := range paths {
		key := joinPath(path)
		if _, ok := want[key]; !ok {
			t.Fatalf("unexpected path %#v", path)
		}
		want[key] = true
	}
	for key, found := range want {
		if !found {
			t.Fatalf("missing path %q", key)
		}
	}
}

func TestFindAllPaths_UnreachableNodeYieldsNothing(t *testing.T) {
	if paths := FindAllPaths(blogGraph(), "Blog.Post", "Shop.Order"); paths != nil {
		t.Fatalf("expected nil, got %#v", paths)
	}
}

func TestShortestPath_PrefersDirectConnections(t *testing.T) {
	path := ShortestPath(blogGraph(), "Blog.Post", "Auth.User")
	want := []string{"Blog.Post", "Auth.User"}
	if diff := cmp.Diff(want, path); diff != "" {
		t.Fatalf("path mismatch (-want +got):\n%s", diff)
	}
}

func TestAutocomplete_SuggestsIntermediateModels(t *testing.T) {
	completions := Autocomplete(blogGraph(), []string{"Blog.Post", "Auth.User"})
	if len(completions) != 2 {
		t.Fatalf("expected 2 completions, got %#v", completions)
	}
	// Shortest completion first: the direct connection needs nothing.
	if len(completions[0]) != 0 {
		t.Fatalf("expected empty completion first, got %#v", completions[0])
	}
	if diff := cmp.Diff([]string{"Blog.Comment"}, completions[1]); diff != "" {
		t.Fatalf("completion mismatch (-want +got):\n%s", diff)
	}
}

func TestAutocomplete_NeedsAtLeastTwoModels(t *testing.T) {
	if got := Autocomplete(blogGraph(), []string{"Blog.Post"}); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
	if got := Autocomplete(blogGraph(), nil); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
}

func TestEdgeBetween_ResolvesAdjacentNodes(t *testing.T) {
	edge, ok := EdgeBetween(blogGraph(), "Blog.Post", "Auth.User")
	if !ok {
		t.Fatal("expected an edge")
	}
	if edge.SourceField != "author_id" || edge.TargetField != "id" {
		t.Fatalf("unexpected edge: %#v", edge)
	}
	if _, ok := EdgeBetween(blogGraph(), "Auth.User", "Shop.Order"); ok {
		t.Fatal("expected no edge to unknown node")
	}
}

func joinPath(path []string) string {
	out := ""
	for i, node := range path {
		if i > 0 {
			out += "|"
		}
		out += node
	}
	return out
}
