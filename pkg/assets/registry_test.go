package assets

import (
	"testing"

	"github.com/cobalthex/3l14/pkg/assetkey"
)

func TestRegisterPanicsOnDuplicateAssetType(t *testing.T) {
	r := NewRegistry()
	Register[testAsset](r, assetkey.TypeTest1, "TestAsset", &testLifecycler{})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic registering a second lifecycler for the same asset type")
		}
	}()
	Register[testAsset](r, assetkey.TypeTest1, "TestAssetAgain", &testLifecycler{})
}

func TestLookupAndNameReflectRegistration(t *testing.T) {
	r := NewRegistry()
	if r.lookup(assetkey.TypeTest1) != nil {
		t.Fatalf("lookup() on an empty registry should return nil")
	}
	if r.Name(assetkey.TypeTest1) != "" {
		t.Fatalf("Name() on an empty registry should return \"\"")
	}

	Register[testAsset](r, assetkey.TypeTest1, "TestAsset", &testLifecycler{})
	if r.lookup(assetkey.TypeTest1) == nil {
		t.Fatalf("lookup() should find the registered entry")
	}
	if got := r.Name(assetkey.TypeTest1); got != "TestAsset" {
		t.Fatalf("Name() = %q, want %q", got, "TestAsset")
	}
}

func TestTypeMatchesDistinguishesAssetTypes(t *testing.T) {
	r := NewRegistry()
	Register[testAsset](r, assetkey.TypeTest1, "TestAsset", &testLifecycler{})
	ent := r.lookup(assetkey.TypeTest1)

	if !typeMatches[testAsset](ent) {
		t.Fatalf("typeMatches[testAsset] should be true for the type it was registered with")
	}
	type otherAsset struct{}
	if typeMatches[otherAsset](ent) {
		t.Fatalf("typeMatches[otherAsset] should be false")
	}
}
