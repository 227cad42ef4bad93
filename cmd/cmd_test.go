package cmd

import "testing"

func TestNewCLI(t *testing.T) {
	root := NewCLI()

	want := []string{"train", "sample", "serve", "info"}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing command %q", name)
		}
	}
}

func TestTrainFlagDefaults(t *testing.T) {
	cmd := NewTrainCmd()

	cases := map[string]string{
		"epochs":     "40",
		"batch-size": "128",
		"lr":         "0.001",
		"max-norm":   "5",
		"blocks":     "4",
		"hidden":     "1024",
		"seed":       "42",
		"device":     "cpu",
	}

	for name, want := range cases {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			t.Errorf("missing flag %q", name)
			continue
		}
		if f.DefValue != want {
			t.Errorf("flag %q default = %q, want %q", name, f.DefValue, want)
		}
	}
}
