package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/kazz187/messmate-push/internal/keyprovisioner"
	"github.com/kazz187/messmate-push/pkg/clog"
	"github.com/kazz187/messmate-push/pkg/color"
)

var (
	app = kingpin.New("setup-notifications", "Generate VAPID keys for MessMate web push notifications")

	dir     = app.Flag("dir", "Directory to write .env and the key backup into").Default(".").ExistingDir()
	mailto  = app.Flag("mailto", "Contact URI stored as VAPID_MAILTO in a new .env").Default(keyprovisioner.DefaultMailto).String()
	diff    = app.Flag("diff", "Show how an existing .env would change with the new keys").Bool()
	copyKey = app.Flag("copy", "Copy the public key to the clipboard").Bool()
	noColor = app.Flag("no-color", "Disable coloured output").Bool()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	useColor := !*noColor && color.Supported()
	slog.SetDefault(slog.New(clog.NewHTTPTextHandler(os.Stderr, clog.WithColor(useColor))))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	_, err := keyprovisioner.Provision(ctx, keyprovisioner.Options{
		Dir:     *dir,
		Mailto:  *mailto,
		Diff:    *diff,
		Copy:    *copyKey,
		Out:     os.Stdout,
		Palette: color.NewPalette(useColor),
	})
	if err != nil {
		slog.Error("setup failed", "error", err)
		os.Exit(1)
	}
}
