package s3

import "testing"

func TestKeyPrefixesArchivesOnly(t *testing.T) {
	d := &Driver{bucket: "test"}

	if got, want := d.key("foo/1.0.0/foo.crate"), "crates/foo/1.0.0/foo.crate"; got != want {
		t.Errorf("key(archive) = %q, want %q", got, want)
	}
	if got, want := d.key("3/f/foo"), "3/f/foo"; got != want {
		t.Errorf("key(index) = %q, want %q", got, want)
	}
}

func TestParseParametersRequiresBucket(t *testing.T) {
	if _, err := parseParameters(map[string]interface{}{}); err == nil {
		t.Error("expected error for missing bucket parameter")
	}
	if _, err := parseParameters(map[string]interface{}{"bucket": "b"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
