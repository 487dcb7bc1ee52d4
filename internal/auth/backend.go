package auth

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	keychainService = "lasso-cli"
	keychainAccount = "credentials"
)

// Backend stores the serialized credential blob. Load returns
// (nil, nil) when nothing is stored.
type Backend interface {
	Load() ([]byte, error)
	Save(data []byte) error
	Clear() error
	Name() string
}

// selectBackend probes platform capabilities once, at store
// construction, and picks the strongest available backend.
func selectBackend() Backend {
	switch runtime.GOOS {
	case "darwin":
		if _, err := exec.LookPath("security"); err == nil {
			return &keychainBackend{
				load:  []string{"security", "find-generic-password", "-s", keychainService, "-a", keychainAccount, "-w"},
				save:  []string{"security", "add-generic-password", "-U", "-s", keychainService, "-a", keychainAccount, "-w"},
				clear: []string{"security", "delete-generic-password", "-s", keychainService, "-a", keychainAccount},
				name:  "keychain",
			}
		}
	case "linux":
		if _, err := exec.LookPath("secret-tool"); err == nil {
			return &keychainBackend{
				load:     []string{"secret-tool", "lookup", "service", keychainService},
				save:     []string{"secret-tool", "store", "--label=Lasso credentials", "service", keychainService},
				clear:    []string{"secret-tool", "clear", "service", keychainService},
				name:     "secret-service",
				viaStdin: true,
			}
		}
	}
	return &fileBackend{}
}

// keychainBackend shells out to the platform keystore CLI. The secret
// travels either as the final argument (macOS security) or on stdin
// (secret-tool).
type keychainBackend struct {
	load     []string
	save     []string
	clear    []string
	name     string
	viaStdin bool
}

func (b *keychainBackend) Name() string { return b.name }

func (b *keychainBackend) Load() ([]byte, error) {
	out, err := exec.Command(b.load[0], b.load[1:]...).Output()
	if err != nil {
		// The keystore reports a missing item as a non-zero exit.
		return nil, nil
	}
	data := bytes.TrimRight(out, "\n")
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

func (b *keychainBackend) Save(data []byte) error {
	var cmd *exec.Cmd
	if b.viaStdin {
		cmd = exec.Command(b.save[0], b.save[1:]...)
		cmd.Stdin = strings.NewReader(string(data))
	} else {
		args := append(append([]string{}, b.save[1:]...), string(data))
		cmd = exec.Command(b.save[0], args...)
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to write %s: %w", b.name, err)
	}
	return nil
}

func (b *keychainBackend) Clear() error {
	// Clearing an absent item is not an error.
	_ = exec.Command(b.clear[0], b.clear[1:]...).Run()
	return nil
}

// fileBackend stores credentials as a 0600 JSON file.
type fileBackend struct {
	// path overrides the default location; used by tests.
	path string
}

func (b *fileBackend) Name() string { return "file" }

func (b *fileBackend) filePath() (string, error) {
	if b.path != "" {
		return b.path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".lasso", "credentials.json"), nil
}

func (b *fileBackend) Load() ([]byte, error) {
	path, err := b.filePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return data, nil
}

func (b *fileBackend) Save(data []byte) error {
	path, err := b.filePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

func (b *fileBackend) Clear() error {
	path, err := b.filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete credentials file: %w", err)
	}
	return nil
}
