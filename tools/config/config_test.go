package config_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clktmr/rpiboot/tools/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rpiboot.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[serial]
device = " /dev/ttyAMA0 "

[sdcard]
size_mib = 128
config_txt = ["gpu_mem=16"]

[emulator]
command = "qemu-system-aarch64 -M raspi3b -serial stdio -kernel build/chainloader.img"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	expected := config.Default()
	expected.Serial.Device = "/dev/ttyAMA0"
	expected.SDCard.SizeMiB = 128
	expected.SDCard.ConfigTxt = []string{"gpu_mem=16"}
	expected.Emulator.Command = "qemu-system-aarch64 -M raspi3b -serial stdio -kernel build/chainloader.img"

	if cfg.Serial != expected.Serial {
		t.Errorf("serial %+v", cfg.Serial)
	}
	if cfg.Image != expected.Image {
		t.Errorf("image %+v", cfg.Image)
	}
	if cfg.SDCard.SizeMiB != 128 || cfg.SDCard.Label != expected.SDCard.Label ||
		len(cfg.SDCard.ConfigTxt) != 1 || cfg.SDCard.ConfigTxt[0] != "gpu_mem=16" {
		t.Errorf("sdcard %+v", cfg.SDCard)
	}
	if cfg.Emulator != expected.Emulator {
		t.Errorf("emulator %+v", cfg.Emulator)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]struct {
		content  string
		expected string
	}{
		"syntax":      {"[serial\n", "load config"},
		"unknown key": {"[serial]\nspeed = 9600\n", "unknown key serial.speed"},
		"baud":        {"[serial]\nbaud = 0\n", "invalid baud rate"},
		"tiny sdcard": {"[sdcard]\nsize_mib = 8\n", "sdcard size"},
		"wrong type":  {"[serial]\nbaud = \"fast\"\n", "load config"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.expected) {
				t.Errorf("got %v, expected %q", err, tc.expected)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load(config.File)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Serial != config.Default().Serial {
		t.Errorf("got %+v", cfg.Serial)
	}

	_, err = config.Load("other.toml")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v", err)
	}
}

func TestDefaultEmulatorSerialPorts(t *testing.T) {
	cmd := config.Default().Emulator.Command
	for _, expected := range []string{
		"-chardev stdio,id=uart0,signal=off -serial chardev:uart0 ",
		"-serial {console} ",
	} {
		if !strings.Contains(cmd, expected) {
			t.Errorf("%q missing in %q", expected, cmd)
		}
	}
}
