package main

import (
	"testing"
)

func TestRootCommandStructure(t *testing.T) {
	root := buildRootCommand()

	want := map[string]bool{
		"onboard":  false,
		"chat":     false,
		"register": false,
		"login":    false,
		"status":   false,
		"version":  false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestChatCommandFlags(t *testing.T) {
	root := buildRootCommand()
	chat, _, err := root.Find([]string{"chat"})
	if err != nil {
		t.Fatalf("chat command not found: %v", err)
	}
	for _, flag := range []string{"message", "subject", "debug"} {
		if chat.Flags().Lookup(flag) == nil {
			t.Errorf("chat command missing --%s", flag)
		}
	}
}

func TestRegisterRequiresCredentials(t *testing.T) {
	root := buildRootCommand()
	root.SetArgs([]string{"register"})
	if err := root.Execute(); err == nil {
		t.Fatal("register without flags should fail")
	}
}
