package uid

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestSnowflake_Unique(t *testing.T) {
	gen, err := NewSnowflake(1)
	if err != nil {
		t.Fatalf("NewSnowflake() error = %v", err)
	}

	seen := make(map[int64]struct{}, 5000)
	prev := int64(0)
	for range 5000 {
		id := gen.Generate()
		if _, dup := seen[id]; dup {
			t.Fatalf("Generate() returned duplicate %d", id)
		}
		if id <= prev {
			t.Fatalf("Generate() = %d, want increasing after %d", id, prev)
		}
		seen[id] = struct{}{}
		prev = id
	}
}

func TestNewSnowflake_Node(t *testing.T) {
	if _, err := NewSnowflake(-1); err != nil {
		t.Errorf("NewSnowflake(-1) error = %v, want hostname derived node", err)
	}
	if _, err := NewSnowflake(1 << 20); !errors.Is(err, ErrInvalidNode) {
		t.Errorf("NewSnowflake(1<<20) error = %v, want ErrInvalidNode", err)
	}
}

func TestUUID_Generate(t *testing.T) {
	gen := NewUUID()
	a, b := gen.Generate(), gen.Generate()
	if a == b {
		t.Fatalf("Generate() returned duplicate %q", a)
	}
	parsed, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("uuid.Parse(%q) error = %v", a, err)
	}
	if parsed.Version() != 7 {
		t.Errorf("Version() = %d, want 7", parsed.Version())
	}
}
