package cli

import "testing"

func TestParseAddr(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"0x401000", 0x401000, false},
		{"401000", 0x401000, false},
		{"0x401000:", 0x401000, false},
		{"  0X401ABC  ", 0x401abc, false},
		{"deadbeef", 0xdeadbeef, false},
		{"not-an-address", 0, true},
		{"", 0, true},
		{"0x", 0, true},
	}

	for _, tt := range tests {
		got, err := parseAddr(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAddr(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parseAddr(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestCommandArgValidation(t *testing.T) {
	if err := runCmd.Args(runCmd, []string{"binary"}); err == nil {
		t.Error("run accepted a missing address argument")
	}
	if err := runCmd.Args(runCmd, []string{"binary", "0x1000", "0x1004"}); err != nil {
		t.Errorf("run rejected multiple addresses: %v", err)
	}
	if err := watchCmd.Args(watchCmd, []string{"binary"}); err == nil {
		t.Error("watch accepted a missing trace file argument")
	}
	if err := watchCmd.Args(watchCmd, []string{"binary", "trace.log", "extra"}); err == nil {
		t.Error("watch accepted a third argument")
	}
	if err := rootCmd.Args(rootCmd, nil); err == nil {
		t.Error("root accepted zero arguments")
	}
}
