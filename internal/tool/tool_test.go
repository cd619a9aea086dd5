// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/alphastrip/pkg/types"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool // "bin arg1 arg2" -> whether RunSilent succeeds
	runFunc       func(ctx context.Context, name string, args []string) ([]byte, error)
	calls         []string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(_ context.Context, name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, name+" "+strings.Join(args, " "))
	if m.runFunc != nil {
		return m.runFunc(ctx, name, args)
	}
	return nil, nil
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		preferred types.ToolName
		exec      *mockExecutor
		wantName  string
		wantErr   bool
	}{
		{
			name:      "sips preferred on macOS",
			preferred: types.ToolAuto,
			exec: &mockExecutor{
				availableBins: map[string]bool{"sips": true, "magick": true},
				runnableCmds:  map[string]bool{"sips --help": true, "magick -version": true},
			},
			wantName: "sips",
		},
		{
			name:      "magick fallback when sips missing",
			preferred: types.ToolAuto,
			exec: &mockExecutor{
				availableBins: map[string]bool{"magick": true},
				runnableCmds:  map[string]bool{"magick -version": true},
			},
			wantName: "magick",
		},
		{
			name:      "convert on PATH, magick probe fails",
			preferred: types.ToolAuto,
			exec: &mockExecutor{
				availableBins: map[string]bool{"magick": true, "convert": true},
				runnableCmds:  map[string]bool{"convert -version": true},
			},
			wantName: "convert",
		},
		{
			name:      "explicit tool skips others",
			preferred: types.ToolMagick,
			exec: &mockExecutor{
				availableBins: map[string]bool{"sips": true, "magick": true},
				runnableCmds:  map[string]bool{"sips --help": true, "magick -version": true},
			},
			wantName: "magick",
		},
		{
			name:      "explicit tool unavailable",
			preferred: types.ToolSips,
			exec: &mockExecutor{
				availableBins: map[string]bool{"magick": true},
				runnableCmds:  map[string]bool{"magick -version": true},
			},
			wantErr: true,
		},
		{
			name:      "native is not external",
			preferred: types.ToolNative,
			exec:      &mockExecutor{},
			wantErr:   true,
		},
		{
			name:      "nothing available",
			preferred: types.ToolAuto,
			exec:      &mockExecutor{},
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := detect(context.Background(), tt.exec, tt.preferred, 0)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrNoTool)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, got.Name())
		})
	}
}

func TestConvertArgs(t *testing.T) {
	tests := []struct {
		name    string
		mk      func(executor) *binTool
		format  Format
		quality int
		want    string
	}{
		{
			name:    "sips to jpeg",
			mk:      func(e executor) *binTool { return newSips(e, 0) },
			format:  FormatJPEG,
			quality: 90,
			want:    "sips -s format jpeg -s formatOptions 90 in.png --out out.jpg",
		},
		{
			name:    "sips to png ignores quality",
			mk:      func(e executor) *binTool { return newSips(e, 0) },
			format:  FormatPNG,
			quality: 90,
			want:    "sips -s format png in.png --out out.jpg",
		},
		{
			name:    "magick to jpeg",
			mk:      func(e executor) *binTool { return newMagick(e, 0) },
			format:  FormatJPEG,
			quality: 80,
			want:    "magick in.png -quality 80 jpeg:out.jpg",
		},
		{
			name:   "convert to png",
			mk:     func(e executor) *binTool { return newConvert(e, 0) },
			format: FormatPNG,
			want:   "convert in.png png:out.jpg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &mockExecutor{}
			err := tt.mk(exec).Convert(context.Background(), "in.png", "out.jpg", tt.format, tt.quality)
			require.NoError(t, err)
			require.Len(t, exec.calls, 1)
			assert.Equal(t, tt.want, exec.calls[0])
		})
	}
}

func TestConvert_FailureIncludesOutput(t *testing.T) {
	exec := &mockExecutor{
		runFunc: func(context.Context, string, []string) ([]byte, error) {
			return []byte("Error: unable to read in.png\n"), errors.New("exit status 1")
		},
	}
	err := newSips(exec, 0).Convert(context.Background(), "in.png", "out.jpg", FormatJPEG, 90)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sips")
	assert.Contains(t, err.Error(), "unable to read in.png")
}

func TestConvert_Timeout(t *testing.T) {
	exec := &mockExecutor{
		runFunc: func(ctx context.Context, _ string, _ []string) ([]byte, error) {
			<-ctx.Done()
			return nil, errors.New("signal: killed")
		},
	}
	err := newMagick(exec, 10*time.Millisecond).Convert(context.Background(), "in.png", "out.jpg", FormatJPEG, 90)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
