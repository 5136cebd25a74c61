package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"gallery-viewer/internal/database"
	"gallery-viewer/internal/gallery"
	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/media"
	"gallery-viewer/internal/startup"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// options are the persistent flags shared by every command.
type options struct {
	dataDir  string
	logLevel string
	level    *logging.LogLevel
	size     int
	workers  int
	jsonOut  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "galleryctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "galleryctl",
		Short: "Scan image folders and manage the thumbnail cache",
		Long: `galleryctl walks a folder for images, fills the thumbnail cache that the
gallery viewer reads, and reports on it. Configuration comes from the same
GALLERY_* environment variables and GALLERY_CONFIG file as the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("log-level") {
				// Quieter than the server unless the environment says otherwise.
				if os.Getenv("LOG_LEVEL") == "" && os.Getenv("DEBUG") == "" {
					logging.SetLevel(logging.LevelWarn)
				}
				return nil
			}
			level, ok := logging.ParseLevel(opts.logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", opts.logLevel)
			}
			opts.level = &level
			logging.SetLevel(level)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory holding the thumbnail cache (default from GALLERY_DATA_DIR)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn or error (overrides LOG_LEVEL and the config file)")
	flags.IntVar(&opts.size, "size", 0, "Maximum thumbnail dimension in pixels (default from THUMBNAIL_SIZE)")
	flags.IntVar(&opts.workers, "workers", 0, "Thumbnail worker count (default one per CPU)")
	flags.BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")

	cmd.AddCommand(
		newScanCmd(opts),
		newThumbCmd(opts),
		newImageCmd(opts),
		newStatsCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}

// app is the opened cache plus the services built on it.
type app struct {
	config  *startup.Config
	db      *database.Database
	session *gallery.Session
}

func openApp(ctx context.Context, opts *options, args []string) (*app, error) {
	config, err := startup.LoadWith(args, func(c *startup.Config) {
		if opts.dataDir != "" {
			c.DataDir = opts.dataDir
		}
		if opts.size > 0 {
			c.ThumbnailSize = opts.size
		}
		if opts.workers > 0 {
			c.Workers = opts.workers
		}
	})
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	// The config file may have set a level; the flag wins.
	if opts.level != nil {
		logging.SetLevel(*opts.level)
	}
	if config.VipsEnabled {
		if err := media.InitVips(); err != nil {
			logging.Warn("libvips unavailable, using pure Go decoding: %v", err)
		}
	}

	// Opening the cache is not interrupted; commands check ctx themselves.
	db, err := gallery.OpenStore(context.WithoutCancel(ctx), config.DataDir)
	if err != nil {
		return nil, err
	}
	service := gallery.NewService(db, media.NewGenerator(), config.Workers)
	return &app{config: config, db: db, session: gallery.NewSession(service)}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		logging.Warn("Failed to close thumbnail cache: %v", err)
	}
	if a.config.VipsEnabled {
		media.ShutdownVips()
	}
}

// folderArg returns the folder named on the command line, or the
// configured initial folder.
func (a *app) folderArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if a.config.InitialFolder != "" {
		return a.config.InitialFolder, nil
	}
	return "", errors.New("no folder given and GALLERY_INITIAL_FOLDER is not set")
}

func newScanCmd(opts *options) *cobra.Command {
	var embed bool
	cmd := &cobra.Command{
		Use:   "scan [folder]",
		Short: "Scan a folder and cache thumbnails for every image",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			folder, err := a.folderArg(args)
			if err != nil {
				return err
			}

			scanOpts := gallery.ScanOptions{EmbedThumbnails: embed}
			stderr := cmd.ErrOrStderr()
			interactive := isTerminal(stderr) && !opts.jsonOut
			if interactive {
				scanOpts.Progress = terminalProgress(stderr)
			}

			// An interrupt ends ctx; the scan stops at its next checkpoint and
			// returns the images found so far.
			result, err := a.session.Scan(ctx, folder, a.config.ThumbnailSize, scanOpts)
			if interactive {
				fmt.Fprintln(stderr)
			}
			if err != nil {
				return err
			}
			return printScanResult(cmd.OutOrStdout(), result, opts.jsonOut)
		},
	}
	cmd.Flags().BoolVar(&embed, "embed", false, "Include each thumbnail as a data URL in the output")
	return cmd
}

func printScanResult(w io.Writer, result *gallery.ScanResult, asJSON bool) error {
	if asJSON {
		return writeJSON(w, result)
	}
	for _, item := range result.Items {
		if item.ThumbnailDataURL != "" {
			fmt.Fprintf(w, "%s\t%s\n", item.Path, item.ThumbnailDataURL)
		} else {
			fmt.Fprintln(w, item.Path)
		}
	}
	status := "complete"
	if result.Cancelled {
		status = "cancelled"
	}
	_, err := fmt.Fprintf(w, "%d images, scan %s (%s)\n", len(result.Items), result.ScanID, status)
	return err
}

func newThumbCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "thumb <image>",
		Short: "Print the cached thumbnail of one image, generating it if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			url, err := a.session.Service().GetThumbnail(cmd.Context(), args[0], a.config.ThumbnailSize)
			if err != nil {
				return err
			}
			return emitDataURL(cmd.OutOrStdout(), args[0], url, out, opts.jsonOut)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the decoded image to this file instead of printing it")
	return cmd
}

func newImageCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "image <image>",
		Short: "Print a full image as a data URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := media.LoadFullImage(args[0])
			if err != nil {
				return err
			}
			return emitDataURL(cmd.OutOrStdout(), args[0], url, out, opts.jsonOut)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the image bytes to this file instead of printing them")
	return cmd
}

func emitDataURL(w io.Writer, path, url, out string, asJSON bool) error {
	if out != "" {
		_, data, err := media.DecodeDataURL(url)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		_, err = fmt.Fprintf(w, "wrote %d bytes to %s\n", len(data), out)
		return err
	}
	if asJSON {
		return writeJSON(w, map[string]string{"path": path, "dataUrl": url})
	}
	_, err := fmt.Fprintln(w, url)
	return err
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the size of the thumbnail cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.db.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading cache stats: %w", err)
			}
			w := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(w, stats)
			}
			fmt.Fprintf(w, "Cache:      %s\n", stats.Path)
			fmt.Fprintf(w, "Entries:    %d\n", stats.Entries)
			_, err = fmt.Fprintf(w, "Thumbnails: %d bytes\n", stats.TotalBytes)
			return err
		},
	}
}

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [folder]",
		Short: "Rescan a folder whenever images in it change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			folder, err := a.folderArg(args)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if _, err := a.session.Scan(ctx, folder, a.config.ThumbnailSize, gallery.ScanOptions{}); err != nil {
				return err
			}

			watcher, err := gallery.NewWatcher(a.session, folder, a.config.ThumbnailSize, gallery.ScanOptions{}, gallery.DefaultDebounce)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", folder)

			return watcher.Run(ctx, func(result *gallery.ScanResult, err error) {
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "rescan failed: %v\n", err)
					return
				}
				if opts.jsonOut {
					_ = writeJSON(w, result)
					return
				}
				fmt.Fprintf(w, "rescanned %s: %d images\n", folder, len(result.Items))
			})
		},
	}
}

func newVersionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := startup.GetBuildInfo()
			w := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(w, info)
			}
			_, err := fmt.Fprintf(w, "galleryctl %s (commit %s, built %s, %s %s/%s)\n",
				info.Version, info.Commit, info.BuildTime, info.GoVersion, info.OS, info.Arch)
			return err
		},
	}
}

// terminalProgress redraws a single status line per progress event.
func terminalProgress(w io.Writer) gallery.ProgressReporter {
	return gallery.ProgressFunc(func(p gallery.Progress) error {
		_, err := fmt.Fprintf(w, "\r\033[K[%d/%d] %s", p.Current, p.Total, p.Name)
		return err
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
