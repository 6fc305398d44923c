// Package update implements self-update against GitHub releases.
package update

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/Nurdvu1et/email-archiver/internal/config"
	"golang.org/x/mod/semver"
)

const (
	releaseAPIURL = "https://api.github.com/repos/Nurdvu1et/email-archiver/releases/latest"
	binaryName    = "email-archiver"
	cacheFileName = "update_check.json"
	cacheDuration = 1 * time.Hour
)

// Release is the subset of the GitHub release payload we use.
type Release struct {
	TagName string  `json:"tag_name"`
	Body    string  `json:"body"`
	Assets  []Asset `json:"assets"`
}

// Asset is a downloadable release artifact.
type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Info describes an available update.
type Info struct {
	CurrentVersion string
	LatestVersion  string
	DownloadURL    string
	AssetName      string
	Size           int64
	Checksum       string
	IsDevBuild     bool
}

type cachedCheck struct {
	CheckedAt time.Time `json:"checked_at"`
	Version   string    `json:"version"`
}

// Check reports whether a newer release is available. A nil Info with a
// nil error means the current version is up to date. Results are cached
// for an hour unless force is set.
func Check(currentVersion string, force bool) (*Info, error) {
	clean := strings.TrimPrefix(currentVersion, "v")
	devBuild := isDevBuildVersion(clean)

	if !force {
		if info, done := checkCache(currentVersion, clean, devBuild); done {
			return info, nil
		}
	}

	release, err := fetchLatestRelease()
	if err != nil {
		return nil, fmt.Errorf("check for updates: %w", err)
	}
	saveCache(release.TagName)

	latest := strings.TrimPrefix(release.TagName, "v")
	if !devBuild && !isNewer(latest, clean) {
		return nil, nil
	}

	assetName := fmt.Sprintf("%s_%s_%s_%s.tar.gz", binaryName, latest, runtime.GOOS, runtime.GOARCH)
	asset, checksumsAsset := findAssets(release.Assets, assetName)
	if asset == nil {
		return nil, fmt.Errorf("no release asset found for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	var checksum string
	if checksumsAsset != nil {
		checksum, _ = fetchChecksumFromFile(checksumsAsset.BrowserDownloadURL, assetName)
	}
	if checksum == "" {
		checksum = extractChecksum(release.Body, assetName)
	}

	return &Info{
		CurrentVersion: currentVersion,
		LatestVersion:  release.TagName,
		DownloadURL:    asset.BrowserDownloadURL,
		AssetName:      asset.Name,
		Size:           asset.Size,
		Checksum:       checksum,
		IsDevBuild:     devBuild,
	}, nil
}

// Apply downloads the release archive, verifies its checksum, and
// installs the binary over the current executable.
func Apply(info *Info, progressFn func(downloaded, total int64)) error {
	if info.Checksum == "" {
		return fmt.Errorf("no checksum available for %s, refusing to install unverified binary", info.AssetName)
	}

	fmt.Printf("Downloading %s...\n", info.AssetName)
	tempDir, err := os.MkdirTemp("", "email-archiver-update-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	archivePath := filepath.Join(tempDir, info.AssetName)
	checksum, err := downloadFile(info.DownloadURL, archivePath, info.Size, progressFn)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}

	fmt.Printf("Verifying checksum... ")
	if !strings.EqualFold(checksum, info.Checksum) {
		fmt.Println("FAILED")
		return fmt.Errorf("checksum mismatch: expected %s, got %s", info.Checksum, checksum)
	}
	fmt.Println("OK")

	fmt.Println("Extracting...")
	extractDir := filepath.Join(tempDir, "extracted")
	if err := extractTarGz(archivePath, extractDir); err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	return installBinary(filepath.Join(extractDir, binaryName))
}

func installBinary(srcPath string) error {
	if _, err := os.Stat(srcPath); os.IsNotExist(err) {
		return fmt.Errorf("binary not found in archive")
	}

	currentExe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find current executable: %w", err)
	}
	currentExe, err = filepath.EvalSymlinks(currentExe)
	if err != nil {
		return fmt.Errorf("resolve symlinks: %w", err)
	}
	binDir := filepath.Dir(currentExe)
	dstPath := filepath.Join(binDir, binaryName)

	fmt.Printf("Installing %s to %s... ", binaryName, binDir)
	if err := installBinaryTo(srcPath, dstPath); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

// installBinaryTo replaces dstPath with srcPath, keeping a backup so a
// failed copy can be rolled back.
func installBinaryTo(srcPath, dstPath string) error {
	backupPath := dstPath + ".old"

	// Stale backup from an earlier update.
	os.Remove(backupPath)

	if _, err := os.Stat(dstPath); err == nil {
		if err := os.Rename(dstPath, backupPath); err != nil {
			return fmt.Errorf("backup: %w", err)
		}
	}

	if err := copyFile(srcPath, dstPath); err != nil {
		_ = os.Rename(backupPath, dstPath)
		return fmt.Errorf("install: %w", err)
	}

	if err := os.Chmod(dstPath, 0755); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}

	os.Remove(backupPath)
	return nil
}

// findAssets locates the platform archive and the checksums file.
func findAssets(assets []Asset, assetName string) (asset *Asset, checksumsAsset *Asset) {
	for i := range assets {
		a := &assets[i]
		if a.Name == assetName {
			asset = a
		}
		if a.Name == "SHA256SUMS" || a.Name == "checksums.txt" {
			checksumsAsset = a
		}
	}
	return asset, checksumsAsset
}

func fetchLatestRelease() (*Release, error) {
	req, err := http.NewRequest("GET", releaseAPIURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "email-archiver-update")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %s", resp.Status)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, err
	}
	return &release, nil
}

func downloadFile(url, dest string, totalSize int64, progressFn func(downloaded, total int64)) (string, error) {
	resp, err := http.Get(url) //nolint:gosec
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer out.Close()

	hasher := sha256.New()
	writer := io.MultiWriter(out, hasher)

	var downloaded int64
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := writer.Write(buf[:n]); writeErr != nil {
				return "", writeErr
			}
			downloaded += int64(n)
			if progressFn != nil {
				progressFn(downloaded, totalSize)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func extractTarGz(archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}
	absDestDir, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("resolve dest dir: %w", err)
	}

	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		target, err := sanitizeTarPath(absDestDir, header.Name)
		if err != nil {
			return fmt.Errorf("invalid tar entry %q: %w", header.Name, err)
		}

		// Symlinks and hardlinks are never installed.
		if header.Typeflag == tar.TypeSymlink || header.Typeflag == tar.TypeLink {
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			outFile, err := os.Create(target)
			if err != nil {
				return err
			}
			if _, err := io.Copy(outFile, tr); err != nil {
				outFile.Close()
				return err
			}
			outFile.Close()
			if err := os.Chmod(target, os.FileMode(header.Mode)); err != nil {
				return err
			}
		}
	}

	return nil
}

// sanitizeTarPath rejects entries that would escape destDir.
func sanitizeTarPath(destDir, name string) (string, error) {
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("absolute path not allowed")
	}

	cleanName := filepath.Clean(name)
	if filepath.IsAbs(cleanName) {
		return "", fmt.Errorf("absolute path not allowed")
	}
	if strings.HasPrefix(cleanName, "..") || strings.Contains(cleanName, string(filepath.Separator)+"..") {
		return "", fmt.Errorf("path traversal not allowed")
	}

	target := filepath.Join(destDir, cleanName)
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	absDestDir, err := filepath.Abs(destDir)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absTarget, absDestDir+string(filepath.Separator)) && absTarget != absDestDir {
		return "", fmt.Errorf("path escapes destination directory")
	}

	return target, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func fetchChecksumFromFile(url, assetName string) (string, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url) //nolint:gosec
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch checksums: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return extractChecksum(string(body), assetName), nil
}

var hexDigestPattern = regexp.MustCompile(`(?i)[a-f0-9]{64}`)

// extractChecksum finds the SHA-256 digest for assetName in sha256sum
// style output ("digest  filename", or "*filename" for binary mode).
func extractChecksum(body, assetName string) string {
	for _, line := range strings.Split(body, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		fname := strings.TrimPrefix(fields[1], "*")
		if fname != assetName {
			continue
		}
		if match := hexDigestPattern.FindString(fields[0]); match != "" {
			return strings.ToLower(match)
		}
	}
	return ""
}

func cacheDir() string {
	return config.DefaultHome()
}

func loadCache() (*cachedCheck, error) {
	data, err := os.ReadFile(filepath.Join(cacheDir(), cacheFileName))
	if err != nil {
		return nil, err
	}
	var cached cachedCheck
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

// checkCache returns (info, true) when a fresh cached result can answer
// the check without hitting the network. Dev builds always report the
// cached latest version since they cannot be compared.
func checkCache(currentVersion, cleanVersion string, devBuild bool) (*Info, bool) {
	cached, err := loadCache()
	if err != nil {
		return nil, false
	}
	if time.Since(cached.CheckedAt) >= cacheDuration {
		return nil, false
	}

	if devBuild {
		return &Info{
			CurrentVersion: currentVersion,
			LatestVersion:  cached.Version,
			IsDevBuild:     true,
		}, true
	}

	latest := strings.TrimPrefix(cached.Version, "v")
	if !isNewer(latest, cleanVersion) {
		return nil, true
	}
	// An update exists but the cached entry has no download info.
	return nil, false
}

func saveCache(version string) {
	data, err := json.Marshal(cachedCheck{CheckedAt: time.Now(), Version: version})
	if err != nil {
		return
	}
	cachePath := filepath.Join(cacheDir(), cacheFileName)
	os.MkdirAll(filepath.Dir(cachePath), 0755) //nolint:errcheck
	os.WriteFile(cachePath, data, 0600)        //nolint:errcheck
}

// extractBaseSemver returns the X.Y[.Z] part of a version string, or ""
// when the string is not version-shaped.
func extractBaseSemver(v string) string {
	v = strings.TrimPrefix(v, "v")
	if len(v) == 0 || v[0] < '0' || v[0] > '9' {
		return ""
	}
	if !strings.Contains(v, ".") {
		return ""
	}
	if idx := strings.Index(v, "-"); idx > 0 {
		v = v[:idx]
	}
	return v
}

// gitDescribePattern matches git describe output such as
// v0.3.1-2-gabcdef or v0.3.1-2-gabcdef-dirty.
var gitDescribePattern = regexp.MustCompile(`-\d+-g[0-9a-f]+(-dirty)?$`)

func isDevBuildVersion(v string) bool {
	v = strings.TrimPrefix(v, "v")
	if extractBaseSemver(v) == "" {
		return true
	}
	return gitDescribePattern.MatchString(v)
}

// isNewer reports whether v1 is a newer version than v2. Prereleases
// sort below their base version and git-describe suffixes are ignored.
func isNewer(v1, v2 string) bool {
	if extractBaseSemver(v1) == "" || extractBaseSemver(v2) == "" {
		return false
	}
	return semver.Compare(normalizeSemver(v1), normalizeSemver(v2)) > 0
}

// prereleaseNumericPattern matches identifiers like "rc10" or "beta2"
// whose trailing digits should compare numerically.
var prereleaseNumericPattern = regexp.MustCompile(`^([A-Za-z]+)(\d+)$`)

// normalizeSemver prepares a version string for semver.Compare. The
// git-describe suffix is stripped and prerelease identifiers like
// "rc10" become "rc.10" so their numeric parts compare as integers.
func normalizeSemver(v string) string {
	v = strings.TrimPrefix(v, "v")
	v = gitDescribePattern.ReplaceAllString(v, "")

	if idx := strings.Index(v, "-"); idx > 0 {
		v = v[:idx] + "-" + normalizePrereleaseIdentifiers(v[idx+1:])
	}
	return "v" + v
}

func normalizePrereleaseIdentifiers(prerelease string) string {
	parts := strings.Split(prerelease, ".")
	var result []string
	for _, part := range parts {
		matches := prereleaseNumericPattern.FindStringSubmatch(part)
		// Leading zeros would form an invalid semver numeric identifier.
		if matches == nil || (len(matches[2]) > 1 && matches[2][0] == '0') {
			result = append(result, part)
			continue
		}
		result = append(result, matches[1], matches[2])
	}
	return strings.Join(result, ".")
}

// FormatSize formats bytes as a human-readable string.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
