package similarity

import (
	"testing"

	"github.com/alicezbo/jFSTMerge/tree"
)

func newMethod(signature, name, body string) (*tree.Tree, tree.NodeID) {
	t, root := tree.New()
	id := t.AddTerminal(root, tree.Method, signature, name, signature, body)
	return t, id
}

func TestHaveEqualSignature(t *testing.T) {
	ta, a := newMethod("greet(name)", "greet", "return name")
	tb, b := newMethod("greet( name )", "greet", "return name")
	if !HaveEqualSignature(ta, a, tb, b) {
		t.Fatalf("expected signatures to be equal modulo whitespace")
	}
}

func TestHaveEqualBody(t *testing.T) {
	ta, a := newMethod("f()", "f", "return 1")
	tb, b := newMethod("f()", "f", "return  1")
	if HaveEqualBody(ta, a, tb, b, false) {
		t.Fatalf("expected strict body comparison to see the whitespace difference")
	}
	if !HaveEqualBody(ta, a, tb, b, true) {
		t.Fatalf("expected whitespace-insensitive body comparison to match")
	}
}

func TestHaveEqualSignatureButName(t *testing.T) {
	ta, a := newMethod("fetchUser(id)", "fetchUser", "return db.get(id)")
	tb, b := newMethod("loadUser(id)", "loadUser", "return db.get(id)")
	if !HaveEqualSignatureButName(ta, a, tb, b) {
		t.Fatalf("expected same params, different name to match")
	}
	tc, c := newMethod("fetchUser(id)", "fetchUser", "return db.get(id)")
	if HaveEqualSignatureButName(ta, a, tc, c) {
		t.Fatalf("identical names should not count as equal-signature-but-name")
	}
}

func TestHaveSimilarBody(t *testing.T) {
	ta, a := newMethod("f()", "f", "return compute(x, y, z)")
	tb, b := newMethod("f()", "f", "return compute(x, y, z) + 1")
	if !HaveSimilarBody(ta, a, tb, b, Tau) {
		t.Fatalf("expected near-identical bodies to be similar at tau=%v", Tau)
	}

	tc, c := newMethod("f()", "f", "totally different implementation entirely")
	if HaveSimilarBody(ta, a, tc, c, Tau) {
		t.Fatalf("expected unrelated bodies to fall below the similarity threshold")
	}
}

func TestHaveSimilarBodyEmpty(t *testing.T) {
	ta, a := newMethod("f()", "f", "")
	tb, b := newMethod("f()", "f", "")
	if !HaveSimilarBody(ta, a, tb, b, Tau) {
		t.Fatalf("two empty bodies should be maximally similar")
	}
	tc, c := newMethod("f()", "f", "something")
	if HaveSimilarBody(ta, a, tc, c, Tau) {
		t.Fatalf("empty vs non-empty body should not be similar")
	}
}

func TestOneContainsTheBodyFromTheOther(t *testing.T) {
	ta, a := newMethod("f()", "f", "a b c")
	tb, b := newMethod("f()", "f", "x a b c y")
	if !OneContainsTheBodyFromTheOther(ta, a, tb, b) {
		t.Fatalf("expected containment to be detected")
	}

	tc, c := newMethod("f()", "f", "q r s")
	if OneContainsTheBodyFromTheOther(ta, a, tc, c) {
		t.Fatalf("unrelated bodies should not report containment")
	}
}

func TestContentFingerprintStableAndSensitive(t *testing.T) {
	fp1 := ContentFingerprint([]byte("hello world"))
	fp2 := ContentFingerprint([]byte("hello world"))
	fp3 := ContentFingerprint([]byte("hello world!"))
	if fp1 != fp2 {
		t.Fatalf("fingerprint not stable across calls: %q vs %q", fp1, fp2)
	}
	if fp1 == fp3 {
		t.Fatalf("differing content produced the same fingerprint")
	}
}
