package tree

import "testing"

func TestNewCreatesCompilationUnitRoot(t *testing.T) {
	tr, root := New()
	if !tr.IsContainer(root) {
		t.Fatalf("root should be a container")
	}
	if tr.ContainerKind(root) != CompilationUnit {
		t.Fatalf("root should be a CompilationUnit, got %v", tr.ContainerKind(root))
	}
	if tr.Parent(root) != InvalidNodeID {
		t.Fatalf("root should have no parent")
	}
}

func TestAddContainerAndTerminal(t *testing.T) {
	tr, root := New()
	cls := tr.AddContainer(root, Class, "Foo")
	m := tr.AddTerminal(cls, Method, "bar()", "bar", "bar()", "return 1;")

	if tr.Parent(cls) != root {
		t.Fatalf("class should be parented under root")
	}
	if tr.Parent(m) != cls {
		t.Fatalf("method should be parented under class")
	}
	if got := tr.Children(root); len(got) != 1 || got[0] != cls {
		t.Fatalf("root should have exactly the class as a child, got %v", got)
	}
	if tr.Body(m) != "return 1;" {
		t.Fatalf("unexpected body: %q", tr.Body(m))
	}
}

func TestCollectTerminalsStableOrder(t *testing.T) {
	tr, root := New()
	cls := tr.AddContainer(root, Class, "Foo")
	a := tr.AddTerminal(cls, Method, "a()", "a", "a()", "")
	b := tr.AddTerminal(cls, Method, "b()", "b", "b()", "")

	got := CollectTerminals(tr, root)
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("expected declared order [a, b], got %v", got)
	}
}

func TestRetrieveCorrespondent(t *testing.T) {
	tr, root := New()
	cls := tr.AddContainer(root, Class, "Foo")
	m := tr.AddTerminal(cls, Method, "bar()", "bar", "bar()", "")

	got, ok := RetrieveCorrespondent(tr, "bar()", root)
	if !ok || got != m {
		t.Fatalf("expected to find bar(), got %v ok=%v", got, ok)
	}
	if IsInTree(tr, "missing()", root) {
		t.Fatalf("did not expect missing() to be found")
	}
}

func TestAddedTerminals(t *testing.T) {
	base, baseRoot := New()
	baseCls := base.AddContainer(baseRoot, Class, "Foo")
	base.AddTerminal(baseCls, Method, "a()", "a", "a()", "")

	contrib, contribRoot := New()
	contribCls := contrib.AddContainer(contribRoot, Class, "Foo")
	contrib.AddTerminal(contribCls, Method, "a()", "a", "a()", "")
	newMethod := contrib.AddTerminal(contribCls, Method, "b()", "b", "b()", "")

	added := AddedTerminals(contrib, contribRoot, base, baseRoot)
	if len(added) != 1 || added[0] != newMethod {
		t.Fatalf("expected only b() to be reported added, got %v", added)
	}
}

func TestCloneNodeIntoRecursesContainers(t *testing.T) {
	src, srcRoot := New()
	cls := src.AddContainer(srcRoot, Class, "Foo")
	src.AddTerminal(cls, Method, "a()", "a", "a()", "body-a")

	dst, dstRoot := New()
	newCls := dst.CloneNodeInto(src, cls, dstRoot)

	if dst.Identifier(newCls) != "Foo" || !dst.IsContainer(newCls) {
		t.Fatalf("expected cloned container Foo, got %v", dst.Identifier(newCls))
	}
	children := dst.Children(newCls)
	if len(children) != 1 || dst.Body(children[0]) != "body-a" {
		t.Fatalf("expected cloned method with body-a, got %v", children)
	}
}
