package quest

import (
	"testing"

	"github.com/everthorn/thorny/internal/apperr"
	"github.com/google/uuid"
)

func TestTargetValidate(t *testing.T) {
	tests := []struct {
		name    string
		target  Target
		wantErr bool
	}{
		{
			name:   "valid kill",
			target: Target{UUID: uuid.New(), Type: TargetKill, Count: 3, Entity: "minecraft:zombie"},
		},
		{
			name:   "valid mine",
			target: Target{UUID: uuid.New(), Type: TargetMine, Count: 1, Block: "minecraft:diamond_ore"},
		},
		{
			name:   "valid encounter",
			target: Target{UUID: uuid.New(), Type: TargetEncounter, Count: 1, ScriptID: "thorny:dragon_shrine"},
		},
		{
			name:    "kill without entity",
			target:  Target{UUID: uuid.New(), Type: TargetKill, Count: 1},
			wantErr: true,
		},
		{
			name:    "kill with block set",
			target:  Target{UUID: uuid.New(), Type: TargetKill, Count: 1, Entity: "minecraft:zombie", Block: "minecraft:stone"},
			wantErr: true,
		},
		{
			name:    "mine with entity set",
			target:  Target{UUID: uuid.New(), Type: TargetMine, Count: 1, Block: "minecraft:stone", Entity: "minecraft:cow"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			target:  Target{UUID: uuid.New(), Type: "craft", Count: 1, Entity: "minecraft:zombie"},
			wantErr: true,
		},
		{
			name:    "non-namespaced reference",
			target:  Target{UUID: uuid.New(), Type: TargetKill, Count: 1, Entity: "zombie"},
			wantErr: true,
		},
		{
			name:    "uppercase reference",
			target:  Target{UUID: uuid.New(), Type: TargetKill, Count: 1, Entity: "Minecraft:Zombie"},
			wantErr: true,
		},
		{
			name:    "zero count",
			target:  Target{UUID: uuid.New(), Type: TargetKill, Count: 0, Entity: "minecraft:zombie"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !apperr.IsValidation(err) {
					t.Errorf("error = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() = %v", err)
			}
		})
	}
}

func TestTargetReference(t *testing.T) {
	tests := []struct {
		target Target
		want   string
	}{
		{Target{Type: TargetKill, Entity: "minecraft:zombie"}, "minecraft:zombie"},
		{Target{Type: TargetMine, Block: "minecraft:stone"}, "minecraft:stone"},
		{Target{Type: TargetEncounter, ScriptID: "thorny:shrine"}, "thorny:shrine"},
		{Target{Type: "bogus"}, ""},
	}
	for _, tt := range tests {
		if got := tt.target.Reference(); got != tt.want {
			t.Errorf("Reference() = %q, want %q", got, tt.want)
		}
	}
}

func TestDecodeTargets_RoundTrip(t *testing.T) {
	in := []Target{
		{UUID: uuid.New(), Type: TargetKill, Count: 5, Entity: "minecraft:skeleton"},
		{UUID: uuid.New(), Type: TargetKill, Count: 2, Entity: "minecraft:creeper"},
	}
	blob, err := EncodeTargets(in)
	if err != nil {
		t.Fatalf("EncodeTargets() = %v", err)
	}
	out, err := DecodeTargets(blob)
	if err != nil {
		t.Fatalf("DecodeTargets() = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("decoded %d targets, want 2", len(out))
	}
	if out[0].UUID != in[0].UUID || out[0].Entity != "minecraft:skeleton" || out[0].Count != 5 {
		t.Errorf("first target = %+v", out[0])
	}
}

func TestDecodeTargets_UnknownDiscriminator(t *testing.T) {
	blob := `[{"target_uuid":"01234567-89ab-cdef-0123-456789abcdef","target_type":"craft","count":1,"entity":"minecraft:stick"}]`
	_, err := DecodeTargets(blob)
	if err == nil {
		t.Fatal("expected error for unknown target_type")
	}
	if !apperr.IsValidation(err) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}

func TestDecodeTargets_Malformed(t *testing.T) {
	if _, err := DecodeTargets("{not json"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestDecodeTargetProgress_RoundTrip(t *testing.T) {
	id := uuid.New()
	blob, err := EncodeTargetProgress([]TargetProgress{{UUID: id, Type: TargetMine, Count: 7}})
	if err != nil {
		t.Fatalf("EncodeTargetProgress() = %v", err)
	}
	out, err := DecodeTargetProgress(blob)
	if err != nil {
		t.Fatalf("DecodeTargetProgress() = %v", err)
	}
	if len(out) != 1 || out[0].UUID != id || out[0].Count != 7 {
		t.Errorf("decoded = %+v", out)
	}
}
