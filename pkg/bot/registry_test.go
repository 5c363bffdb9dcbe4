package bot

import (
	"context"
	"testing"
)

func noopHandler(_ context.Context, _ *Invocation) error { return nil }

func TestRegistry_RegisterAndFind(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Command{Pattern: "ping", Aliases: []string{"p"}, Run: noopHandler})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if r.Find("ping") == nil {
		t.Error("Expected to find command by pattern")
	}
	if r.Find("p") == nil {
		t.Error("Expected to find command by alias")
	}
	if r.Find("pong") != nil {
		t.Error("Unknown name should resolve to nil")
	}
}

func TestRegistry_RejectsDuplicatePattern(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Command{Pattern: "ping", Run: noopHandler}); err != nil {
		t.Fatalf("First register failed: %v", err)
	}
	if err := r.Register(Command{Pattern: "ping", Run: noopHandler}); err == nil {
		t.Error("Duplicate pattern should be rejected")
	}
}

func TestRegistry_RejectsAliasCollision(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Command{Pattern: "ping", Aliases: []string{"p"}, Run: noopHandler}); err != nil {
		t.Fatalf("First register failed: %v", err)
	}
	if err := r.Register(Command{Pattern: "pong", Aliases: []string{"p"}, Run: noopHandler}); err == nil {
		t.Error("Alias colliding with an existing alias should be rejected")
	}
	if err := r.Register(Command{Pattern: "p", Run: noopHandler}); err == nil {
		t.Error("Pattern colliding with an existing alias should be rejected")
	}
}

func TestRegistry_RejectsInvalidCommands(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Command{Pattern: "", Run: noopHandler}); err == nil {
		t.Error("Empty pattern should be rejected")
	}
	if err := r.Register(Command{Pattern: "ping"}); err == nil {
		t.Error("Missing handler should be rejected")
	}
}

func TestRegistry_CommandsPreserveRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		if err := r.Register(Command{Pattern: name, Run: noopHandler}); err != nil {
			t.Fatalf("Register %s failed: %v", name, err)
		}
	}

	cmds := r.Commands()
	if len(cmds) != 3 {
		t.Fatalf("Expected 3 commands, got %d", len(cmds))
	}
	want := []string{"charlie", "alpha", "bravo"}
	for i, cmd := range cmds {
		if cmd.Pattern != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], cmd.Pattern)
		}
	}
}

func TestRegistry_Categories(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(Command{Pattern: "ping", Category: "general", Run: noopHandler})
	_ = r.Register(Command{Pattern: "ban", Category: "owner", Run: noopHandler})
	_ = r.Register(Command{Pattern: "alive", Category: "general", Run: noopHandler})

	cats := r.Categories()
	if len(cats) != 2 || cats[0] != "general" || cats[1] != "owner" {
		t.Errorf("Unexpected categories: %v", cats)
	}
}
