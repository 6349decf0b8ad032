package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/reaandrew/securecodeauditor/analysis"
	"github.com/reaandrew/securecodeauditor/archive"
	"github.com/reaandrew/securecodeauditor/config"
	"github.com/reaandrew/securecodeauditor/core"
	"github.com/reaandrew/securecodeauditor/reporters"
	"github.com/reaandrew/securecodeauditor/reportstorage"
	"github.com/reaandrew/securecodeauditor/utils"
	"github.com/reaandrew/securecodeauditor/web"
	"github.com/reaandrew/securecodeauditor/workflow"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Cli represents the command-line interface
type Cli struct {
	configPath   string
	endpoint     string
	logLevel     string
	reportFormat string
	outputDir    string
	baseUrl      string
	listen       string
	progress     bool

	cfg config.Config
	out io.Writer
	// analyzer replaces the HTTP client when set
	analyzer workflow.Analyzer
}

// Execute sets up and runs the root command
func (cli *Cli) Execute() error {
	return cli.newRootCommand().Execute()
}

func (cli *Cli) newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "securecodeauditor",
		Short:         "SecureCodeAuditor uploads code archives for security analysis and reports the findings.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.loadConfig(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cli.configPath, "config", os.Getenv("SCA_CONFIG"), "Config file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVar(&cli.endpoint, "endpoint", "", "Analysis service base url")
	rootCmd.PersistentFlags().StringVar(&cli.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(cli.createAnalyzeCommand())
	rootCmd.AddCommand(cli.createRepoCommand())
	rootCmd.AddCommand(cli.createInspectCommand())
	rootCmd.AddCommand(cli.createServeCommand())
	return rootCmd
}

func (cli *Cli) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(cli.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint = cli.endpoint
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = cli.logLevel
	}
	if flags.Changed("report") {
		cfg.ReportFormat = cli.reportFormat
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = cli.outputDir
	}
	if flags.Changed("baseurl") {
		cfg.ReportBaseURL = cli.baseUrl
	}
	if flags.Changed("listen") {
		cfg.Listen = cli.listen
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cli.cfg = cfg
	setupLogging(cfg)
	return nil
}

func (cli *Cli) addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cli.reportFormat, "report", "json", "Report format (supported: json, xlsx, table, http)")
	cmd.Flags().StringVar(&cli.outputDir, "output-dir", ".", "Directory the report is written to")
	cmd.Flags().StringVar(&cli.baseUrl, "baseurl", "", "Http report base url")
	cmd.Flags().BoolVar(&cli.progress, "progress", true, "Show a spinner while the archive is analysed")
}

func (cli *Cli) createAnalyzeCommand() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze <ARCHIVE.zip | DIRECTORY>",
		Short: "Upload a zip archive, or a directory packed as one, for security analysis.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := archive.Load(args[0])
			if err != nil {
				return err
			}
			if !archive.ZipPolicy().Accepts(file.Name, "") {
				return errors.New(analysis.MessageUnsupported)
			}
			return cli.runWorkflow(cmd.Context(), file)
		},
	}
	cli.addReportFlags(analyzeCmd)
	return analyzeCmd
}

func (cli *Cli) createRepoCommand() *cobra.Command {
	repoCmd := &cobra.Command{
		Use:   "repo <REPO_URL>",
		Short: "Clone a Git repository, pack it as a zip archive and analyse it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := archive.FromGitRepository(cmd.Context(), args[0], os.TempDir())
			if err != nil {
				return err
			}
			return cli.runWorkflow(cmd.Context(), file)
		},
	}
	cli.addReportFlags(repoCmd)
	return repoCmd
}

func (cli *Cli) createInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <ARCHIVE.zip>",
		Short: "List the files and languages in an archive without uploading it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := archive.Load(args[0])
			if err != nil {
				return err
			}
			inventory, err := archive.Inspect(file)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cli.stdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Archive:\t%s\n", file.Name)
			fmt.Fprintf(w, "Files:\t%d\n", inventory.FileCount())
			fmt.Fprintln(w, "\nLANGUAGE\tFILES")
			for _, language := range inventory.SortedLanguages() {
				fmt.Fprintf(w, "%s\t%d\n", language, inventory.Languages[language])
			}
			return w.Flush()
		},
	}
}

func (cli *Cli) createServeCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.serve(cmd.Context())
		},
	}
	serveCmd.Flags().StringVar(&cli.listen, "listen", config.DefaultListen, "Address the web interface listens on")
	return serveCmd
}

func (cli *Cli) stdout() io.Writer {
	if cli.out != nil {
		return cli.out
	}
	return os.Stdout
}

func (cli *Cli) client() *analysis.Client {
	return analysis.NewClient(cli.cfg.Endpoint, cli.cfg.RequestTimeout)
}

func (cli *Cli) newAnalyzer() workflow.Analyzer {
	if cli.analyzer != nil {
		return cli.analyzer
	}
	return cli.client()
}

func (cli *Cli) progressReporter() utils.ProgressReporter {
	if !cli.progress {
		return utils.NoopProgressReporter{}
	}
	return utils.NewSpinnerProgressReporter("Processing...")
}

// runWorkflow uploads file once, prints the findings and writes the requested report.
func (cli *Cli) runWorkflow(ctx context.Context, file core.SelectedFile) error {
	progress := cli.progressReporter()
	wf := workflow.New(cli.newAnalyzer(), workflow.WithListener(func(from, to workflow.State) {
		if _, ok := to.(workflow.Processing); ok {
			progress.Start()
		} else if _, ok := from.(workflow.Processing); ok {
			progress.Stop()
		}
	}))

	wf.SelectFile(file)
	state, err := wf.Process(ctx)
	if err != nil {
		return err
	}
	if failed, ok := state.(workflow.Failed); ok {
		return errors.New(failed.Message)
	}

	report, ok := wf.Report()
	if !ok {
		return fmt.Errorf("analysis finished without a report")
	}
	if err := (reporters.TableReporter{Writer: cli.stdout()}).Report(report); err != nil {
		return err
	}

	storage, err := reportstorage.CreateFileReportStorage(cli.cfg.OutputDir)
	if err != nil {
		return err
	}

	switch cli.cfg.ReportFormat {
	case "table":
		return nil
	case "json":
		path, err := wf.DownloadReport(storage)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.stdout(), "\nReport saved to %s\n", path)
		return nil
	}

	reporter, err := reporters.CreateReporter(cli.cfg.ReportFormat, reporters.ReporterOptions{
		Storage: storage,
		Writer:  cli.stdout(),
		BaseURL: cli.cfg.ReportBaseURL,
	})
	if err != nil {
		return err
	}
	return reporter.Report(report)
}

func (cli *Cli) serve(ctx context.Context) error {
	server := web.NewServer(cli.client(), web.Options{
		AllowedOrigins: cli.cfg.AllowedOrigins,
		SessionTTL:     cli.cfg.SessionTTL,
	})

	srv := &http.Server{
		Addr:              cli.cfg.Listen,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		log.Printf("Web interface listening on %s", cli.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down web interface...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
