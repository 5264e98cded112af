package config

import "testing"

func TestParseConfig(t *testing.T) {
	data := []byte(`
[general]
preferred_shell = "/bin/zsh"
leader_key = "ctrl+a"

[[session]]
name = "editor"
command = "vim"
args = ["."]

[[session]]
command = "htop"

[[session]]
`)
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.General.PreferredShell != "/bin/zsh" {
		t.Errorf("preferred_shell = %q", cfg.General.PreferredShell)
	}
	if cfg.General.LeaderKey != "ctrl+a" {
		t.Errorf("leader_key = %q", cfg.General.LeaderKey)
	}
	if len(cfg.Sessions) != 3 {
		t.Fatalf("got %d sessions, want 3", len(cfg.Sessions))
	}
	if cfg.Sessions[0].Name != "editor" || cfg.Sessions[0].Command != "vim" {
		t.Errorf("session 0 = %+v", cfg.Sessions[0])
	}
	if cfg.Sessions[1].Name != "htop" {
		t.Errorf("session without a name must default to its command, got %q", cfg.Sessions[1].Name)
	}
	if cfg.Sessions[2].Name != "session 3" {
		t.Errorf("bare session name = %q", cfg.Sessions[2].Name)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(nil)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.General.LeaderKey != "ctrl+b" {
		t.Errorf("leader_key = %q, want default", cfg.General.LeaderKey)
	}
	if len(cfg.Sessions) != 1 {
		t.Errorf("got %d sessions, want the default shell session", len(cfg.Sessions))
	}
}

func TestParseConfigRejectsBadLeader(t *testing.T) {
	if _, err := ParseConfig([]byte("[general]\nleader_key = \"ctrl+\"\n")); err == nil {
		t.Error("want error for malformed leader key")
	}
}

func TestParseLeaderKey(t *testing.T) {
	tests := []struct {
		in      string
		want    LeaderKey
		wantErr bool
	}{
		{"ctrl+b", LeaderKey{Ch: 'b', Ctrl: true}, false},
		{"alt+a", LeaderKey{Ch: 'a', Alt: true}, false},
		{"ctrl+alt+x", LeaderKey{Ch: 'x', Ctrl: true, Alt: true}, false},
		{"g", LeaderKey{Ch: 'g'}, false},
		{"Ctrl+B", LeaderKey{Ch: 'b', Ctrl: true}, false},
		{"ctrl+", LeaderKey{}, true},
		{"super+b", LeaderKey{}, true},
		{"", LeaderKey{}, true},
	}
	for _, tt := range tests {
		got, err := ParseLeaderKey(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLeaderKey(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLeaderKey(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
