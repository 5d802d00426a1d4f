package cli

import "flag"

const versionString = "1.0.0"

type cliOptions struct {
	configPath   string
	outputFile   string
	outputDir    string
	geometry     string
	geometryFile string
	frameRate    float64
	watch        bool
	progress     bool
	metricsAddr  string
	otlpEndpoint string
	verbose      bool
	version      bool
	args         []string
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("jpslite", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", "", "Path to optional TOML config file")
	fs.StringVar(&opts.outputFile, "output", "", "Output sqlite file path (single input only)")
	fs.StringVar(&opts.outputDir, "output-dir", "", "Directory for auto-named output files")
	fs.StringVar(&opts.geometry, "geometry", "", "Walkable area as a POLYGON WKT string")
	fs.StringVar(&opts.geometryFile, "geometry-file", "", "File whose first line is the walkable area WKT")
	fs.Float64Var(&opts.frameRate, "frame-rate", 0, "Frame rate for files without a framerate header")
	fs.BoolVar(&opts.watch, "watch", false, "Keep running and re-convert files when they change")
	fs.BoolVar(&opts.progress, "progress", false, "Show a progress bar while converting a batch")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address")
	fs.StringVar(&opts.otlpEndpoint, "otlp-endpoint", "", "Export traces to this OTLP gRPC endpoint")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
