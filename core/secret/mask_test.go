package secret

import "testing"

func TestMask(t *testing.T) {
	cases := map[string]string{
		"":                          "",
		"abc":                       "***",
		"abcdef":                    "a****f",
		"0123456789abcdefghij":      "0******************j",
		"0123456789abcdefghijklmno": "012*********************o",
	}
	for in, want := range cases {
		if got := Mask(in); got != want {
			t.Fatalf("Mask(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestConfigured(t *testing.T) {
	if got := Configured(""); got != "unset" {
		t.Fatalf("got %q", got)
	}
	if got := Configured("secret-key"); got != "set (s********y)" {
		t.Fatalf("got %q", got)
	}
}
