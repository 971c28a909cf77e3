package executor

import "testing"

func TestWindowsInvocationShape(t *testing.T) {
	e := NewWindowsExecutor(WindowsConfig{})
	inv := e.invocation("Get-Date")

	if inv.program != windowsShell {
		t.Errorf("Expected program %q, got %q", windowsShell, inv.program)
	}
	want := []string{"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-Command", "Get-Date"}
	if len(inv.args) != len(want) {
		t.Fatalf("Expected %d args, got %v", len(want), inv.args)
	}
	for i, arg := range want {
		if inv.args[i] != arg {
			t.Errorf("Arg %d: expected %q, got %q", i, arg, inv.args[i])
		}
	}
}

func TestWindowsCapabilities(t *testing.T) {
	caps := NewWindowsExecutor(WindowsConfig{}).Capabilities()

	if caps.Platform != "windows" || caps.WSL {
		t.Errorf("Expected windows identity, got %+v", caps)
	}
	if caps.Shell != windowsShell {
		t.Errorf("Expected shell %q, got %q", windowsShell, caps.Shell)
	}
	if !caps.Streaming || !caps.Capture || !caps.Timeout || !caps.WorkingDirectory || !caps.Environment || !caps.Encoding {
		t.Errorf("All capabilities should be on, got %+v", caps)
	}
}
