// Package keyprovisioner generates a VAPID key pair for the push server and
// writes it to a fresh .env file and a backup file.
package keyprovisioner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"

	"github.com/kazz187/messmate-push/pkg/color"
	"github.com/kazz187/messmate-push/pkg/vapidkey"
)

type Options struct {
	// Dir receives .env and the backup file.
	Dir    string
	Mailto string
	// Diff prints what updating an existing .env would change. The file
	// itself is never modified.
	Diff bool
	// Copy puts the public key on the clipboard.
	Copy bool

	Out     io.Writer
	Palette *color.Palette

	now       func() time.Time
	generate  func() (*vapidkey.KeyPair, error)
	clipboard func(string) error
}

type Result struct {
	Keys        *vapidkey.KeyPair
	GeneratedAt time.Time
	EnvPath     string
	EnvCreated  bool
	BackupPath  string
	Diff        string
	Copied      bool
}

func (o *Options) setDefaults() {
	if o.Dir == "" {
		o.Dir = "."
	}
	if o.Mailto == "" {
		o.Mailto = DefaultMailto
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Palette == nil {
		o.Palette = color.NewPalette(false)
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.generate == nil {
		o.generate = vapidkey.Generate
	}
	if o.clipboard == nil {
		o.clipboard = clipboard.WriteAll
	}
}

// Provision generates a key pair, prints it, creates .env when it does not
// exist yet and always writes the backup file.
func Provision(ctx context.Context, opts Options) (*Result, error) {
	opts.setDefaults()
	p := &printer{w: opts.Out, pal: opts.Palette}

	p.banner("MessMate Push Notification Setup")
	p.line("Generating VAPID keys for web push notifications...")
	p.blank()

	keys, err := opts.generate()
	if err != nil {
		return nil, err
	}
	now := opts.now()
	res := &Result{
		Keys:        keys,
		GeneratedAt: now,
		EnvPath:     filepath.Join(opts.Dir, EnvFileName),
		BackupPath:  filepath.Join(opts.Dir, BackupFileName),
	}
	values := defaultEnvValues(keys.PublicKey, keys.PrivateKey, opts.Mailto, now)

	p.success("VAPID keys generated successfully!")
	p.blank()
	p.rule()
	p.heading("Public Key (VAPID_PUBLIC_KEY):")
	p.key(keys.PublicKey)
	p.blank()
	p.heading("Private Key (VAPID_PRIVATE_KEY):")
	p.key(keys.PrivateKey)
	p.blank()
	p.rule()

	existing, err := os.ReadFile(res.EnvPath)
	switch {
	case err == nil:
		p.line("Found existing .env file; it was left untouched.")
		p.line("   Manual update: Copy the keys above to your .env file")
		if opts.Diff {
			merged, err := mergeVAPID(existing, keys.PublicKey, keys.PrivateKey, opts.Mailto)
			if err != nil {
				return nil, err
			}
			if res.Diff, err = unifiedDiff(res.EnvPath, existing, merged); err != nil {
				return nil, err
			}
			p.blank()
			p.muted(res.Diff)
		}
	case errors.Is(err, fs.ErrNotExist):
		p.line("Creating .env file...")
		content, err := renderEnv(values)
		if err != nil {
			return nil, err
		}
		if err := writeNew(res.EnvPath, content); err != nil {
			return nil, err
		}
		res.EnvCreated = true
		p.success("Created .env file with VAPID keys!")
	default:
		return nil, fmt.Errorf("failed to read %s: %w", res.EnvPath, err)
	}

	p.blank()
	p.rule()
	p.heading("Next Steps:")
	p.line("   1. Update VAPID_MAILTO in .env with your email")
	p.line("   2. Update other configuration values in .env")
	p.line("   3. Add the same keys to your production environment variables")
	p.line("   4. Start your server: messmate-server")
	p.blank()
	p.rule()
	p.warning("IMPORTANT SECURITY NOTES:")
	p.line("   - Keep your private key SECRET")
	p.line("   - Never commit .env to Git")
	p.line("   - Use the same keys in production")
	p.line("   - Push notifications only work over HTTPS")
	p.blank()
	p.rule()
	p.success("Setup complete! Your push notifications are ready to use.")
	p.blank()

	backup, err := renderBackup(values)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(res.BackupPath, backup, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", res.BackupPath, err)
	}
	p.line("Keys backed up to: " + res.BackupPath)
	p.line("   (Keep this file secure and delete after setup)")

	if opts.Copy {
		if err := opts.clipboard(keys.PublicKey); err != nil {
			slog.WarnContext(ctx, "failed to copy public key to clipboard", "error", err)
		} else {
			res.Copied = true
			p.line("Public key copied to clipboard.")
		}
	}
	p.blank()
	return res, p.err
}

// writeNew creates path and fails if it already exists.
func writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// printer remembers the first write error so the output code stays linear.
type printer struct {
	w   io.Writer
	pal *color.Palette
	err error
}

func (p *printer) write(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s+"\n")
}

func (p *printer) blank() { p.write("") }
func (p *printer) line(s string) { p.write(s) }
func (p *printer) rule() { p.write(p.pal.Rule() + "\n") }
func (p *printer) banner(s string) { p.write(p.pal.Box(s) + "\n") }
func (p *printer) heading(s string) { p.write(p.pal.Heading.Sprint(s)) }
func (p *printer) key(s string) { p.write(p.pal.Key.Sprint(s)) }
func (p *printer) success(s string) { p.write(p.pal.Success.Sprint(s)) }
func (p *printer) warning(s string) { p.write(p.pal.Warning.Sprint(s)) }
func (p *printer) muted(s string) { p.write(p.pal.Muted.Sprint(s)) }
