package services

import (
	"context"
	"errors"
	"testing"

	"github.com/doeshing/dirsh/internal/domain"
)

func noopHandler() domain.Handler {
	return domain.HandlerFunc(func(ctx context.Context, args []string) error { return nil })
}

func seededRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	err := r.Seed([]domain.CommandEntry{
		{Name: "exit", Handler: noopHandler()},
		{Name: "cd", Handler: noopHandler()},
		{Name: "set", Handler: noopHandler()},
		{Name: "unset", Handler: noopHandler()},
		{Name: "exec", Handler: noopHandler()},
	})
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	return r
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := seededRegistry(t)

	if err := r.Register(domain.CommandEntry{Name: "exit", Origin: domain.OriginPlugin, Handler: noopHandler()}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("Register(exit) error = %v, want ErrAlreadyExists", err)
	}

	if err := r.Register(domain.CommandEntry{Name: "deploy", Origin: domain.OriginPlugin, PluginID: 1, Handler: noopHandler()}); err != nil {
		t.Fatalf("Register(deploy) error = %v", err)
	}
	if err := r.Register(domain.CommandEntry{Name: "deploy", Origin: domain.OriginPlugin, PluginID: 2, Handler: noopHandler()}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("second Register(deploy) error = %v, want ErrAlreadyExists", err)
	}
}

func TestReplacePolicy(t *testing.T) {
	r := seededRegistry(t)
	if err := r.Register(domain.CommandEntry{Name: "deploy", Origin: domain.OriginPlugin, PluginID: 1, Handler: noopHandler()}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Plugins may rebind plugin-origin entries.
	if err := r.Replace(domain.CommandEntry{Name: "deploy", Origin: domain.OriginPlugin, PluginID: 2, Handler: noopHandler()}); err != nil {
		t.Fatalf("Replace(deploy) error = %v", err)
	}
	entry, _ := r.Resolve("deploy")
	if entry.PluginID != 2 {
		t.Fatalf("Replace did not rebind owner, got plugin %d", entry.PluginID)
	}

	// Reserved built-ins keep their handlers.
	if err := r.Replace(domain.CommandEntry{Name: "cd", Origin: domain.OriginPlugin, PluginID: 2, Handler: noopHandler()}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Replace(cd) error = %v, want ErrForbidden", err)
	}

	if err := r.Replace(domain.CommandEntry{Name: "absent", Origin: domain.OriginPlugin, Handler: noopHandler()}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Replace(absent) error = %v, want ErrNotFound", err)
	}
}

func TestUnregister(t *testing.T) {
	r := seededRegistry(t)

	if err := r.Unregister("doesNotExist"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Unregister(doesNotExist) error = %v, want ErrNotFound", err)
	}
	if err := r.Unregister("exit"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Unregister(exit) error = %v, want ErrForbidden", err)
	}

	if err := r.Register(domain.CommandEntry{Name: "deploy", Origin: domain.OriginPlugin, PluginID: 1, Handler: noopHandler()}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Unregister("deploy"); err != nil {
		t.Fatalf("Unregister(deploy) error = %v", err)
	}
	if _, ok := r.Resolve("deploy"); ok {
		t.Fatal("deploy still resolvable after unregister")
	}
}

func TestRemoveOwnedByCascades(t *testing.T) {
	r := seededRegistry(t)
	for _, name := range []string{"one", "two"} {
		if err := r.Register(domain.CommandEntry{Name: name, Origin: domain.OriginPlugin, PluginID: 7, Handler: noopHandler()}); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}
	if err := r.Register(domain.CommandEntry{Name: "keep", Origin: domain.OriginPlugin, PluginID: 8, Handler: noopHandler()}); err != nil {
		t.Fatalf("Register(keep) error = %v", err)
	}

	removed := r.RemoveOwnedBy(7)
	if len(removed) != 2 || removed[0] != "one" || removed[1] != "two" {
		t.Fatalf("RemoveOwnedBy(7) = %v", removed)
	}
	if _, ok := r.Resolve("one"); ok {
		t.Fatal("one still resolvable after plugin removal")
	}
	if _, ok := r.Resolve("keep"); !ok {
		t.Fatal("keep lost during cascade of another plugin")
	}
}
