package preset

import "testing"

func TestLoadKnownPreset(t *testing.T) {
	p, err := Load("high-traffic")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.BumpLimit == nil || *p.BumpLimit != 500 {
		t.Errorf("BumpLimit = %v, want 500", p.BumpLimit)
	}
	if p.ModerationReasons == nil || p.ModerationReasons.ArchiveCapacity == "" {
		t.Error("expected moderationReasons to be populated")
	}
}

func TestLoadUnknownPreset(t *testing.T) {
	if _, err := Load("does-not-exist"); err == nil {
		t.Fatal("expected error for unknown preset name")
	}
}

func TestAsDefaultsCarriesFields(t *testing.T) {
	p, err := Load("low-traffic")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d := p.AsDefaults()
	if d.BumpLimit == nil || *d.BumpLimit != *p.BumpLimit {
		t.Errorf("AsDefaults BumpLimit mismatch: %v vs %v", d.BumpLimit, p.BumpLimit)
	}
}

func TestListIncludesBundledNames(t *testing.T) {
	names, err := List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["high-traffic"] || !found["low-traffic"] {
		t.Errorf("List() = %v, missing expected bundled presets", names)
	}
}
