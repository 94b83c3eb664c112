package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jllopis/autoagents/pkg/core"
)

func TestMemoryAppendOnly(t *testing.T) {
	mem := New()
	for i := 0; i < 5; i++ {
		before := mem.Len()
		mem.Add(core.NewMessage("Manager", "CreateRoles", fmt.Sprintf("msg-%d", i)))
		if mem.Len() != before+1 {
			t.Fatalf("expected length %d, got %d", before+1, mem.Len())
		}
	}

	snapshot := mem.All()
	snapshot[0].Content = "mutated"
	if mem.All()[0].Content != "msg-0" {
		t.Fatal("expected stored messages to be unaffected by caller mutation")
	}
}

func TestMemoryByRolePreservesOrder(t *testing.T) {
	mem := New()
	mem.Add(core.NewMessage("Manager", "CreateRoles", "one"))
	mem.Add(core.NewMessage("Agents Observer", "CheckRoles", "two"))
	mem.Add(core.NewMessage("Manager", "CreateRoles", "three"))

	got := mem.ByRole("Manager")
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].Content != "one" || got[1].Content != "three" {
		t.Fatalf("unexpected order: %q, %q", got[0].Content, got[1].Content)
	}
	if len(mem.ByCause("CheckRoles")) != 1 {
		t.Fatal("expected one CheckRoles message")
	}
}

func TestMemoryRange(t *testing.T) {
	mem := New()
	for i := 0; i < 4; i++ {
		mem.Add(core.NewMessage("r", "t", fmt.Sprint(i)))
	}

	tests := []struct {
		name     string
		from, to int
		want     int
	}{
		{"since start", 0, -1, 4},
		{"bounded", 1, 3, 2},
		{"clamped end", 2, 10, 2},
		{"empty", 3, 3, 0},
		{"inverted", 3, 1, 0},
		{"negative from", -2, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mem.Range(tt.from, tt.to); len(got) != tt.want {
				t.Errorf("expected %d messages, got %d", tt.want, len(got))
			}
		})
	}
	if len(mem.Since(3)) != 1 {
		t.Fatal("expected one message since index 3")
	}
}

func TestMemoryConcurrentAdd(t *testing.T) {
	mem := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mem.Add(core.NewMessage("r", "t", fmt.Sprint(i)))
		}(i)
	}
	wg.Wait()
	if mem.Len() != 50 {
		t.Fatalf("expected 50 messages, got %d", mem.Len())
	}
}
