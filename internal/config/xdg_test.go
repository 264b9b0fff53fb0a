package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestXDGDirectories(t *testing.T) {
	xdg := NewXDGDirs()

	if xdg == nil {
		t.Fatal("NewXDGDirs returned nil")
	}
}

func TestXDGOutputProfilePaths(t *testing.T) {
	xdg := NewXDGDirs()

	testCases := []struct {
		name         string
		profileName  string
		expectedDirs []string // should check these directories exist in result
	}{
		{
			name:        "default output profile",
			profileName: "default",
			expectedDirs: []string{
				"sonorad/outputs/default",     // user data dir
				"sonorad/outputs/default",     // system data dirs
			},
		},
		{
			name:        "custom output profile",
			profileName: "mechanical-keyboard",
			expectedDirs: []string{
				"sonorad/outputs/mechanical-keyboard",
				"sonorad/outputs/mechanical-keyboard",
			},
		},
		{
			name:        "empty output profile id",
			profileName: "",
			expectedDirs: []string{
				"sonorad/outputs",  // fallback to base output profiles dir
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			paths := xdg.GetOutputProfilePaths(tc.profileName)

			if len(paths) == 0 {
				t.Error("GetOutputProfilePaths returned empty slice")
				return
			}

			// Verify all paths are absolute
			for i, path := range paths {
				if !filepath.IsAbs(path) {
					t.Errorf("Path[%d] = %s is not absolute", i, path)
				}
			}

			// Check that expected directory patterns appear in results
			for _, expectedDir := range tc.expectedDirs {
				found := false
				for _, path := range paths {
					if filepath.Base(path) == filepath.Base(expectedDir) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("Expected directory pattern %s not found in paths: %v", expectedDir, paths)
				}
			}

			// Log the actual paths for debugging
			t.Logf("Output profile paths for %s: %v", tc.profileName, paths)
		})
	}
}

func TestXDGCachePaths(t *testing.T) {
	xdg := NewXDGDirs()

	testCases := []struct {
		name         string
		purpose      string
		expectedPath string // should contain this pattern
	}{
		{
			name:         "output profile cache",
			purpose:      "outputs",
			expectedPath: "sonorad/outputs",
		},
		{
			name:         "web cache",
			purpose:      "web",
			expectedPath: "sonorad/web", 
		},
		{
			name:         "empty purpose",
			purpose:      "",
			expectedPath: "sonorad",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := xdg.GetCachePath(tc.purpose)

			if path == "" {
				t.Error("GetCachePath returned empty string")
				return
			}

			if !filepath.IsAbs(path) {
				t.Errorf("Cache path %s is not absolute", path)
			}

			if !strings.HasSuffix(path, tc.expectedPath) {
				t.Errorf("Cache path %s does not end with expected pattern %s", path, tc.expectedPath)
			}

			t.Logf("Cache path for %s: %s", tc.purpose, path)
		})
	}
}

func TestXDGConfigPaths(t *testing.T) {
	xdg := NewXDGDirs()

	testCases := []struct {
		name         string
		filename     string
		expectedFile string
	}{
		{
			name:         "main config file",
			filename:     "config.yaml",
			expectedFile: "config.yaml",
		},
		{
			name:         "output profile config",
			filename:     "output-profiles.yaml",
			expectedFile: "output-profiles.yaml",
		},
		{
			name:         "empty filename",
			filename:     "",
			expectedFile: "", // should handle gracefully
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			paths := xdg.GetConfigPaths(tc.filename)

			if len(paths) == 0 {
				t.Error("GetConfigPaths returned empty slice")
				return
			}

			// Verify all paths are absolute
			for i, path := range paths {
				if !filepath.IsAbs(path) {
					t.Errorf("Path[%d] = %s is not absolute", i, path)
				}

				if tc.filename != "" && !strings.HasSuffix(path, tc.expectedFile) {
					t.Errorf("Path[%d] = %s does not end with expected file %s", i, path, tc.expectedFile)
				}
			}

			// All paths should contain "sonorad" directory
			for i, path := range paths {
				if !strings.HasSuffix(filepath.Dir(path), "sonorad") && !strings.Contains(path, "sonorad") {
					t.Errorf("Path[%d] = %s does not contain 'sonorad' directory", i, path)
				}
			}

			t.Logf("Config paths for %s: %v", tc.filename, paths)
		})
	}
}

func TestXDGCreateCacheDir(t *testing.T) {
	xdg := NewXDGDirs()

	// Use a test-specific subdirectory to avoid conflicts
	testCacheDir := xdg.GetCachePath("test-create")

	// Clean up before and after test
	defer os.RemoveAll(testCacheDir)
	os.RemoveAll(testCacheDir)

	// Verify directory doesn't exist initially
	if _, err := os.Stat(testCacheDir); !os.IsNotExist(err) {
		t.Fatalf("Test cache directory %s already exists", testCacheDir)
	}

	// Create the directory
	err := xdg.CreateCacheDir("test-create")
	if err != nil {
		t.Fatalf("CreateCacheDir failed: %v", err)
	}

	// Verify directory was created
	info, err := os.Stat(testCacheDir)
	if err != nil {
		t.Fatalf("Cache directory was not created: %v", err)
	}

	if !info.IsDir() {
		t.Error("Created cache path is not a directory")
	}

	// Test creating again (should not error)
	err = xdg.CreateCacheDir("test-create")
	if err != nil {
		t.Errorf("CreateCacheDir failed on existing directory: %v", err)
	}
}

func TestXDGFindOutputProfile(t *testing.T) {
	xdg := NewXDGDirs()

	testCases := []struct {
		name           string
		profileName    string
		profilePath   string
		createFile     bool
		shouldFind     bool
	}{
		{
			name:         "existing file",
			profileName:  "test-pack",
			profilePath: "success/test-sound.wav",
			createFile:   true,
			shouldFind:   true,
		},
		{
			name:         "non-existing file",
			profileName:  "test-pack",
			profilePath: "error/missing-sound.wav", 
			createFile:   false,
			shouldFind:   false,
		},
		{
			name:         "empty output profile",
			profileName:  "",
			profilePath: "default.wav",
			createFile:   false,
			shouldFind:   false,
		},
		{
			name:         "empty path",
			profileName:  "test-pack",
			profilePath: "",
			createFile:   false,
			shouldFind:   false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var testFilePath string

			if tc.createFile && tc.profileName != "" && tc.profilePath != "" {
				// Create a test file in the first output profile path
				outputProfilePaths := xdg.GetOutputProfilePaths(tc.profileName)
				if len(outputProfilePaths) > 0 {
					testFilePath = filepath.Join(outputProfilePaths[0], tc.profilePath)
					
					// Create parent directories
					err := os.MkdirAll(filepath.Dir(testFilePath), 0755)
					if err != nil {
						t.Fatalf("Failed to create test directories: %v", err)
					}

					// Create test file
					file, err := os.Create(testFilePath)
					if err != nil {
						t.Fatalf("Failed to create test file: %v", err)
					}
					file.Close()

					// Clean up after test
					defer os.RemoveAll(outputProfilePaths[0])
				}
			}

			// Test finding the file
			foundPath := xdg.FindOutputProfile(tc.profileName, tc.profilePath)

			if tc.shouldFind {
				if foundPath == "" {
					t.Error("Expected to find output profile but got empty path")
				} else if !filepath.IsAbs(foundPath) {
					t.Errorf("Found path %s is not absolute", foundPath)
				} else {
					// Verify file actually exists
					if _, err := os.Stat(foundPath); err != nil {
						t.Errorf("Found path %s does not exist: %v", foundPath, err)
					}
				}
			} else {
				if foundPath != "" {
					t.Errorf("Expected not to find file but got: %s", foundPath)
				}
			}

			t.Logf("FindOutputProfile(%s, %s) = %s", tc.profileName, tc.profilePath, foundPath)
		})
	}
}

func TestXDGCrossPlatform(t *testing.T) {
	xdg := NewXDGDirs()

	// These tests verify the package works across platforms
	t.Run("cache paths exist", func(t *testing.T) {
		cachePath := xdg.GetCachePath("test")
		if cachePath == "" {
			t.Error("Cache path is empty")
		}
		t.Logf("Cache path: %s", cachePath)
	})

	t.Run("config paths exist", func(t *testing.T) {
		configPaths := xdg.GetConfigPaths("test.yaml")
		if len(configPaths) == 0 {
			t.Error("No config paths returned")
		}
		t.Logf("Config paths: %v", configPaths)
	})

	t.Run("output profile paths exist", func(t *testing.T) {
		outputProfilePaths := xdg.GetOutputProfilePaths("test")
		if len(outputProfilePaths) == 0 {
			t.Error("No output profile paths returned")
		}
		t.Logf("Output profile paths: %v", outputProfilePaths)
	})
}

func TestXDGErrorHandling(t *testing.T) {
	xdg := NewXDGDirs()

	t.Run("invalid characters in paths", func(t *testing.T) {
		// Test with various invalid characters
		invalidPaths := []string{
			"../../../etc/passwd",
			"test\x00null",
			"test\n\r",
			"test with spaces",  // Should be OK
			"test-with-hyphens", // Should be OK
		}

		for _, invalidPath := range invalidPaths {
			result := xdg.FindOutputProfile("test", invalidPath)
			// Should handle gracefully (either find nothing or sanitize)
			t.Logf("FindOutputProfile with invalid path %q: %s", invalidPath, result)
		}
	})

	t.Run("very long paths", func(t *testing.T) {
		longName := ""
		for i := 0; i < 300; i++ {
			longName += "a"
		}

		result := xdg.FindOutputProfile(longName, "test.wav")
		// Should handle gracefully
		t.Logf("FindOutputProfile with long name: %s", result)
	})
}