package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-osm/internal/query"
	"github.com/joeblew999/plat-osm/internal/server"
)

// Options defines all CLI flags and env vars for the map server.
// Flags: --host, --port, --baselink, --variant, ...
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_BASELINK, SERVICE_VARIANT, ...
type Options struct {
	Host         string `doc:"Host to bind to" default:"0.0.0.0"`
	Port         int    `doc:"Port to listen on" short:"p" default:"8087"`
	Baselink     string `doc:"Ticketing backend gateway URL, e.g. https://tickets.example.com/otrs/index.pl"`
	Variant      string `doc:"Default widget variant (overrides the variants file)"`
	VariantsFile string `doc:"YAML file with widget variants" default:"variants.yaml"`
	AssetOrigin  string `doc:"Serve Leaflet assets fetched from this origin instead of the host's copies"`
	CacheDir     string `doc:"Directory for the asset cache; empty keeps it in memory"`
	Upstream     string `doc:"Proxy this ticketing application and inject the map into its pages"`
	Timeout      int    `doc:"Backend and asset timeout in seconds" default:"15"`
	RateLimit    int    `doc:"Backend calls per second, 0 disables the limit" default:"0"`
	LogLevel     string `doc:"Log level (debug, info, warn, error)" default:"info"`
	LogFormat    string `doc:"Log format (text, json)" default:"text"`
}

func setupLogging(opts *Options) {
	if opts.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(opts.LogLevel)
	if err != nil {
		log.WithError(err).Warn("unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func newServer(opts *Options) *server.Server {
	setupLogging(opts)

	srv, err := server.New(server.Config{
		Host:         opts.Host,
		Port:         fmt.Sprintf("%d", opts.Port),
		Baselink:     opts.Baselink,
		Variant:      opts.Variant,
		VariantsFile: opts.VariantsFile,
		AssetOrigin:  opts.AssetOrigin,
		CacheDir:     opts.CacheDir,
		Upstream:     opts.Upstream,
		Timeout:      time.Duration(opts.Timeout) * time.Second,
		RateLimit:    float64(opts.RateLimit),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
	return srv
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("failed to load .env")
	}

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var srv *server.Server

		hooks.OnStart(func() {
			srv = newServer(opts)
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-osm map server starting...\n")
			fmt.Printf("  Server:   %s\n", baseURL)
			fmt.Printf("  Backend:  %s\n", opts.Baselink)
			if opts.Upstream != "" {
				fmt.Printf("  Proxying: %s\n", opts.Upstream)
			}
			fmt.Println()
			fmt.Printf("  Map:      %s/map?Action=AgentTicketZoom;TicketID=1\n", baseURL)
			fmt.Printf("  Docs:     %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI:  %s/openapi.json\n", baseURL)
			fmt.Println()

			if err := http.ListenAndServe(addr, srv); err != nil {
				log.WithError(err).Fatal("server error")
			}
		})

		hooks.OnStop(func() {
			if srv != nil {
				srv.Close()
			}
		})
	})

	cli.Root().Use = "osmmap"
	cli.Root().Short = "OpenStreetMap widget for ticketing pages"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := newServer(opts)
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// overlays subcommand: fetch one map and print what would be drawn
	overlaysCmd := &cobra.Command{
		Use:   "overlays [query]",
		Short: "Fetch the map for a page query and print the overlays (--geojson, --script)",
		Args:  cobra.MaximumNArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := newServer(opts)
			defer srv.Close()
			svc := srv.Services().Map

			rawQuery := ""
			if len(args) == 1 {
				rawQuery = query.RawQuery(args[0])
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(opts.Timeout)*time.Second)
			defer cancel()

			res, err := svc.Fetch(ctx, rawQuery)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error fetching map: %v\n", err)
				os.Exit(1)
			}

			asGeoJSON, _ := cmd.Flags().GetBool("geojson")
			asScript, _ := cmd.Flags().GetBool("script")

			var out any = svc.Instructions(res)
			switch {
			case asScript:
				script, _ := svc.Script(res)
				fmt.Println(script)
				return
			case asGeoJSON:
				out = svc.GeoJSON(res)
			}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling overlays: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(data))
		}),
	}
	overlaysCmd.Flags().Bool("geojson", false, "Print a GeoJSON FeatureCollection")
	overlaysCmd.Flags().Bool("script", false, "Print the Leaflet script")
	cli.Root().AddCommand(overlaysCmd)

	// variants subcommand: print the effective variants
	variantsCmd := &cobra.Command{
		Use:   "variants",
		Short: "Print the effective widget variants as YAML",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := newServer(opts)
			defer srv.Close()

			if path, _ := cmd.Flags().GetString("write"); path != "" {
				if err := srv.Variants().Save(path); err != nil {
					fmt.Fprintf(os.Stderr, "Error saving variants: %v\n", err)
					os.Exit(1)
				}
				fmt.Printf("Variants written to %s\n", path)
				return
			}

			output, err := yaml.Marshal(srv.Variants())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling variants: %v\n", err)
				os.Exit(1)
			}
			fmt.Print(string(output))
		}),
	}
	variantsCmd.Flags().StringP("write", "w", "", "Write the effective variants to a YAML file")
	cli.Root().AddCommand(variantsCmd)

	cli.Run()
}
