package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{
			name: "with field",
			err:  NewConfigError("server.port", "must be between 0 and 65535"),
			want: "config error in server.port: must be between 0 and 65535",
		},
		{
			name: "without field",
			err:  NewConfigError("", "failed to load"),
			want: "config error: failed to load",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapConfigError(t *testing.T) {
	underlying := errors.New("invalid yaml")
	err := WrapConfigError(underlying)

	if !errors.Is(err, underlying) {
		t.Error("errors.Is() should see the wrapped error")
	}
	if err.Error() != "config error: invalid yaml" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestCommandError(t *testing.T) {
	underlying := errors.New("underlying error")
	err := NewCommandError("run", underlying)

	if err.Error() != "command run failed: underlying error" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is() should work with CommandError.Unwrap()")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "plain error", err: errors.New("boom"), want: ExitFailure},
		{name: "config error", err: NewConfigError("x", "y"), want: ExitFailure},
		{name: "command error", err: NewCommandError("run", errors.New("bind")), want: ExitFailure},
		{name: "command error with code", err: &CommandError{Command: "run", Err: errors.New("fault"), Code: ExitFault}, want: ExitFault},
		{
			name: "wrapped command error",
			err:  fmt.Errorf("outer: %w", &CommandError{Command: "run", Err: errors.New("fault"), Code: ExitFault}),
			want: ExitFault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
