package mod

import "testing"

func TestPublishMonotonic(t *testing.T) {
	r := NewRegistry()
	maj, err := r.Register("boot")
	if err != nil {
		t.Fatal(err)
	}

	id1, err := r.Publish(maj, New([]byte{1, 2, 3}, "(boot)", nil, nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	if id1.Version != 1 {
		t.Fatalf("first version = %d, want 1", id1.Version)
	}

	id2, err := r.Publish(maj, New([]byte{1, 2, 3, 4}, "(boot v2)", nil, nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	if id2.Version <= id1.Version {
		t.Fatalf("version did not strictly increase: %d -> %d", id1.Version, id2.Version)
	}
	if id2.Major != id1.Major {
		t.Fatalf("version carries a different major: %d vs %d", id1.Major, id2.Major)
	}
}

func TestPublishRefusesUnchangedContent(t *testing.T) {
	r := NewRegistry()
	maj, _ := r.Register("boot")
	code := []byte{1, 2, 3}
	if _, err := r.Publish(maj, New(code, "(boot)", nil, nil, nil)); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Publish(maj, New(code, "(boot)", nil, nil, nil)); err != ErrUnchangedContent {
		t.Fatalf("Publish with identical content = %v, want ErrUnchangedContent", err)
	}
}

func TestLatest(t *testing.T) {
	r := NewRegistry()
	maj, _ := r.Register("boot")
	r.Publish(maj, New([]byte{1}, "a", nil, nil, nil))
	want, _ := r.Publish(maj, New([]byte{2}, "b", nil, nil, nil))

	got, err := r.Latest(maj)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != want {
		t.Fatalf("Latest = %v, want %v", got.ID, want)
	}
}

func TestParseFormsAndUnknownMajor(t *testing.T) {
	r := NewRegistry()
	maj, _ := r.Register("boot")
	id, _ := r.Publish(maj, New([]byte{1}, "a", nil, nil, nil))

	got, err := r.Parse("1")
	if err != nil || got != id {
		t.Fatalf("Parse(%q) = (%v, %v), want (%v, nil)", "1", got, err, id)
	}

	got, err = r.Parse("1 v1")
	if err != nil || got != id {
		t.Fatalf("Parse(\"1 v1\") = (%v, %v), want (%v, nil)", got, err, id)
	}

	if _, err := r.Parse("99"); err != ErrUnknownMajor {
		t.Fatalf("Parse(99) err = %v, want ErrUnknownMajor", err)
	}
}


