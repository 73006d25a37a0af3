package keyprovisioner

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"mvdan.cc/sh/v3/syntax"
)

const (
	EnvFileName    = ".env"
	BackupFileName = "vapid-keys-backup.txt"

	DefaultMailto = "mailto:your-email@example.com"

	keyPublic  = "VAPID_PUBLIC_KEY"
	keyPrivate = "VAPID_PRIVATE_KEY"
	keyMailto  = "VAPID_MAILTO"
)

// isoTime matches JavaScript's Date.toISOString.
const isoTime = "2006-01-02T15:04:05.000Z"

var envTemplate = template.Must(template.New("env").Funcs(template.FuncMap{
	"q": quote,
}).Parse(`# MongoDB Configuration
MONGODB_URI={{ q .MongoURI }}

# Server Configuration
PORT={{ q .Port }}
NODE_ENV={{ q .NodeEnv }}
FRONTEND_URL={{ q .FrontendURL }}

# Google OAuth Configuration
GOOGLE_CLIENT_ID={{ q .GoogleClientID }}
GOOGLE_CLIENT_SECRET={{ q .GoogleClientSecret }}

# Cloudinary Configuration
CLOUDINARY_CLOUD_NAME={{ q .CloudinaryCloudName }}
CLOUDINARY_API_KEY={{ q .CloudinaryAPIKey }}
CLOUDINARY_API_SECRET={{ q .CloudinaryAPISecret }}

# Web Push VAPID Keys (Generated on {{ .GeneratedAt }})
VAPID_PUBLIC_KEY={{ q .PublicKey }}
VAPID_PRIVATE_KEY={{ q .PrivateKey }}
VAPID_MAILTO={{ q .Mailto }}
`))

var backupTemplate = template.Must(template.New("backup").Parse(`VAPID Keys Generated: {{ .GeneratedAt }}

Public Key:
{{ .PublicKey }}

Private Key:
{{ .PrivateKey }}

WARNING: Keep this file secure and never commit to Git!
Add these keys to:
1. Your .env file (local development)
2. Your hosting provider's environment variables (production)
`))

// EnvValues fills the .env template. Everything except the keys is a
// placeholder for the operator to edit.
type EnvValues struct {
	MongoURI            string
	Port                string
	NodeEnv             string
	FrontendURL         string
	GoogleClientID      string
	GoogleClientSecret  string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	PublicKey   string
	PrivateKey  string
	Mailto      string
	GeneratedAt string
}

func defaultEnvValues(publicKey, privateKey, mailto string, now time.Time) EnvValues {
	return EnvValues{
		MongoURI:            "mongodb://localhost:27017/mess_db?retryWrites=true&w=majority",
		Port:                "3000",
		NodeEnv:             "production",
		FrontendURL:         "https://your-app-name.example.com",
		GoogleClientID:      "your_google_client_id_here",
		GoogleClientSecret:  "your_google_client_secret_here",
		CloudinaryCloudName: "your_cloud_name_here",
		CloudinaryAPIKey:    "your_cloudinary_api_key_here",
		CloudinaryAPISecret: "your_cloudinary_api_secret_here",
		PublicKey:           publicKey,
		PrivateKey:          privateKey,
		Mailto:              mailto,
		GeneratedAt:         now.UTC().Format(isoTime),
	}
}

// quote makes v safe to source from a POSIX-ish shell. Plain values are left
// bare.
func quote(v string) (string, error) {
	q, err := syntax.Quote(v, syntax.LangBash)
	if err != nil {
		return "", fmt.Errorf("failed to quote %q: %w", v, err)
	}
	return q, nil
}

func renderEnv(v EnvValues) ([]byte, error) {
	var buf bytes.Buffer
	if err := envTemplate.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", EnvFileName, err)
	}
	return buf.Bytes(), nil
}

func renderBackup(v EnvValues) ([]byte, error) {
	var buf bytes.Buffer
	if err := backupTemplate.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", BackupFileName, err)
	}
	return buf.Bytes(), nil
}

// mergeVAPID returns existing with its VAPID key lines replaced, appending
// any that are missing. VAPID_MAILTO is only added, never changed.
func mergeVAPID(existing []byte, publicKey, privateKey, mailto string) ([]byte, error) {
	want := []struct {
		key     string
		value   string
		replace bool
	}{
		{keyPublic, publicKey, true},
		{keyPrivate, privateKey, true},
		{keyMailto, mailto, false},
	}
	seen := make(map[string]bool, len(want))

	var out bytes.Buffer
	sc := bufio.NewScanner(bytes.NewReader(existing))
	for sc.Scan() {
		line := sc.Text()
		key := lineKey(line)
		replaced := false
		for _, w := range want {
			if key != w.key {
				continue
			}
			seen[w.key] = true
			if w.replace {
				v, err := quote(w.value)
				if err != nil {
					return nil, err
				}
				out.WriteString(w.key + "=" + v + "\n")
				replaced = true
			}
		}
		if !replaced {
			out.WriteString(line + "\n")
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", EnvFileName, err)
	}
	for _, w := range want {
		if seen[w.key] {
			continue
		}
		v, err := quote(w.value)
		if err != nil {
			return nil, err
		}
		out.WriteString(w.key + "=" + v + "\n")
	}
	return out.Bytes(), nil
}

func lineKey(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ""
	}
	line = strings.TrimPrefix(line, "export ")
	k, _, ok := strings.Cut(line, "=")
	if !ok {
		return ""
	}
	return strings.TrimSpace(k)
}

func unifiedDiff(path string, before, after []byte) (string, error) {
	d, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: path,
		ToFile:   path + " (with new keys)",
		Context:  2,
	})
	if err != nil {
		return "", fmt.Errorf("failed to diff %s: %w", path, err)
	}
	return d, nil
}
