package config

import (
	"testing"

	"github.com/spf13/afero"
)

func writeBlockConfig(t *testing.T, fsys afero.Fs, path, contents string) {
	t.Helper()
	if err := afero.WriteFile(fsys, path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
}

func TestPlayerConfigRegistryScalarParams(t *testing.T) {
	fsys := afero.NewMemMapFs()
	contents := `
# comment line
audio_output_format		"44100:16:2"
audio_buffer_size		2048
buffer_before_play		10%
replaygain			track
replaygain_preamp		6
volume_normalization		no
max_command_list_size		2048
max_output_buffer_size		8192
`
	writeBlockConfig(t, fsys, "/etc/sonorad.conf", contents)

	reg := NewPlayerConfigRegistry()
	if err := reg.Load(fsys, "/etc/sonorad.conf"); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	format, err := reg.RequireParam("audio_output_format")
	if err != nil {
		t.Fatalf("RequireParam(audio_output_format) error: %v", err)
	}
	if format != "44100:16:2" {
		t.Errorf("expected audio_output_format %q, got %q", "44100:16:2", format)
	}

	normalize, err := reg.RequireParam("volume_normalization")
	if err != nil {
		t.Fatalf("RequireParam(volume_normalization) error: %v", err)
	}
	b, err := ParseBool(normalize)
	if err != nil {
		t.Fatalf("ParseBool error: %v", err)
	}
	if b {
		t.Error("expected volume_normalization to parse as false")
	}
}

func TestPlayerConfigRegistryAudioOutputBlocks(t *testing.T) {
	fsys := afero.NewMemMapFs()
	contents := `
audio_output {
	type	"malgo"
	name	"default"
}

audio_output {
	type	"exec"
	name	"wsl fallback"
	command	"paplay --raw"
}
`
	writeBlockConfig(t, fsys, "/etc/sonorad.conf", contents)

	reg := NewPlayerConfigRegistry()
	if err := reg.Load(fsys, "/etc/sonorad.conf"); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	first := reg.GetNextParam("audio_output", nil)
	if first == nil {
		t.Fatal("expected first audio_output block")
	}
	if typeParam := first.GetBlockParam("type"); typeParam == nil || typeParam.Value != "malgo" {
		t.Errorf("expected first block type malgo, got %+v", typeParam)
	}

	second := reg.GetNextParam("audio_output", first)
	if second == nil {
		t.Fatal("expected second audio_output block")
	}
	if nameParam := second.GetBlockParam("name"); nameParam == nil || nameParam.Value != "wsl fallback" {
		t.Errorf("expected second block name %q, got %+v", "wsl fallback", nameParam)
	}
	if cmdParam := second.GetBlockParam("command"); cmdParam == nil || cmdParam.Value != "paplay --raw" {
		t.Errorf("expected quoted command value to survive tokenization, got %+v", cmdParam)
	}

	if third := reg.GetNextParam("audio_output", second); third != nil {
		t.Errorf("expected no third audio_output block, got %+v", third)
	}
}

func TestPlayerConfigRegistryRejectsUnrecognizedParam(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeBlockConfig(t, fsys, "/etc/sonorad.conf", "bogus_param foo\n")

	reg := NewPlayerConfigRegistry()
	if err := reg.Load(fsys, "/etc/sonorad.conf"); err == nil {
		t.Error("expected error for unrecognized parameter")
	}
}

func TestPlayerConfigRegistryRejectsNonRepeatableRedefinition(t *testing.T) {
	fsys := afero.NewMemMapFs()
	contents := "audio_buffer_size 2048\naudio_buffer_size 4096\n"
	writeBlockConfig(t, fsys, "/etc/sonorad.conf", contents)

	reg := NewPlayerConfigRegistry()
	if err := reg.Load(fsys, "/etc/sonorad.conf"); err == nil {
		t.Error("expected error redefining a non-repeatable parameter")
	}
}

func TestPlayerConfigRegistryRejectsUnterminatedBlock(t *testing.T) {
	fsys := afero.NewMemMapFs()
	contents := "audio_output {\n\ttype \"malgo\"\n"
	writeBlockConfig(t, fsys, "/etc/sonorad.conf", contents)

	reg := NewPlayerConfigRegistry()
	if err := reg.Load(fsys, "/etc/sonorad.conf"); err == nil {
		t.Error("expected error for unterminated block")
	}
}

func TestPlayerConfigRegistryMissingRequiredParam(t *testing.T) {
	reg := NewPlayerConfigRegistry()
	if _, err := reg.RequireParam("audio_output_format"); err == nil {
		t.Error("expected error requiring a parameter that was never set")
	}
}

func TestParseBoolCaseInsensitive(t *testing.T) {
	cases := map[string]bool{
		"yes": true, "YES": true, "true": true, "1": true,
		"no": false, "NO": false, "false": false, "0": false,
	}
	for input, want := range cases {
		got, err := ParseBool(input)
		if err != nil {
			t.Errorf("ParseBool(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Errorf("ParseBool(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := ParseBool("maybe"); err == nil {
		t.Error("expected error for invalid boolean value")
	}
}
