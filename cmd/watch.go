package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"

	"linkedlens/internal/apihandlers"
	"linkedlens/internal/app"
	"linkedlens/internal/dom"
	"linkedlens/internal/pagesource"
)

var (
	watchFile     string
	watchBrowser  bool
	watchURL      string
	watchListen   string
	watchOut      string
	watchDuration time.Duration
)

const blankPage = `<html><head></head><body></body></html>`

// watchCmd runs a page session until interrupted.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a feed and tag each post with its category",
	Long: `Mirrors a LinkedIn feed into a page session and classifies new posts one at a time.
The feed comes from an HTML snapshot file (--file, reloaded whenever it changes) or from
a headless Chrome session (--browser). With --listen, a diagnostics API is served.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		cfg := appInstance.Config
		if watchFile == "" && !watchBrowser {
			return fmt.Errorf("one of --file or --browser is required")
		}
		if watchFile != "" && watchBrowser {
			return fmt.Errorf("--file and --browser are mutually exclusive")
		}
		if watchURL != "" {
			cfg.Source.URL = watchURL
		}
		if watchListen != "" {
			cfg.Server.Listen = watchListen
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if watchDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, watchDuration)
			defer cancel()
		}

		page, err := dom.ParseString(blankPage, cfg.Source.URL)
		if err != nil {
			return fmt.Errorf("create page: %w", err)
		}
		sess, err := appInstance.NewSession(page)
		if err != nil {
			return err
		}
		mirror, err := pagesource.NewMirror(page, cfg.Source.ItemSelector, cfg.Source.KeyAttrs)
		if err != nil {
			return err
		}

		var src pagesource.Source
		if watchBrowser {
			src = pagesource.NewBrowserSource(cfg.BrowserOptions(), page, mirror)
		} else {
			src = pagesource.NewFileSource(watchFile, mirror)
		}

		if !appInstance.Gateway.IsConfigured(ctx) {
			log.Warn("LLM not configured; posts will be marked as errors until `linkedlens llm set` is run")
		}

		if cfg.Server.Listen != "" {
			srv := startServer(ctx, cfg.Server.Listen, apihandlers.NewRouter(apihandlers.NewAPIHandler(appInstance, sess)))
			defer shutdownServer(srv)
		}

		runErr := appInstance.Run(ctx, sess, src)

		printSummary(cmd.OutOrStdout(), sess)
		if watchOut != "" {
			if err := writePage(watchOut, page); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Annotated page written to %s\n", watchOut)
		}
		return runErr
	},
}

func startServer(ctx context.Context, addr string, handler http.Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		log.Infof("Diagnostics API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Diagnostics API stopped: %v", err)
		}
	}()
	return srv
}

func shutdownServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("Diagnostics API shutdown: %v", err)
	}
}

func printSummary(w io.Writer, sess *app.Session) {
	posts := sess.Annotator.Snapshot()
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts discovered.")
		return
	}
	table := newTable(w, "Post", "State", "Label", "On page")
	for _, p := range posts {
		onPage := "yes"
		if !p.Attached {
			onPage = "no"
		}
		table.Append([]string{p.PostID, stateString(p.State), p.Label, onPage})
	}
	table.Render()
	fmt.Fprintf(w, "%d posts, %d still queued, %d dropped\n", len(posts), sess.Scheduler.Len(), sess.Scheduler.Dropped())
}

func writePage(path string, page *dom.Page) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchFile, "file", "f", "", "HTML snapshot of the feed to watch")
	watchCmd.Flags().BoolVar(&watchBrowser, "browser", false, "Drive headless Chrome instead of reading a file")
	watchCmd.Flags().StringVar(&watchURL, "url", "", "Page URL (default source.url)")
	watchCmd.Flags().StringVar(&watchListen, "listen", "", "Serve the diagnostics API on this address, e.g. :8089")
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "Write the annotated page here on exit")
	watchCmd.Flags().DurationVar(&watchDuration, "duration", 0, "Stop after this long (0 runs until interrupted)")
}
