package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lintang-b-s/pbfextractor/pkg/extractor"
	"github.com/lintang-b-s/pbfextractor/pkg/logger"
	"github.com/lintang-b-s/pbfextractor/pkg/util"
	"github.com/pkg/profile"
	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	configFile    = kingpin.Flag("config", "yaml/toml/json config file").Short('c').String()
	pbfFile       = kingpin.Flag("pbf", "openstreetmap .osm.pbf file").String()
	srtmDir       = kingpin.Flag("srtm", "directory with .hgt elevation tiles").String()
	outputFile    = kingpin.Flag("output", "graph output file").Short('o').String()
	compression   = kingpin.Flag("compression", "output compression: none, gzip or bzip2").String()
	noElevation   = kingpin.Flag("no-elevation", "skip the elevation pass").Bool()
	bicycleRoutes = kingpin.Flag("bicycle-routes", "lower unsuitability of ways on route=bicycle relations").Bool()
	prune         = kingpin.Flag("prune-dominated", "remove parallel edges that are dominated in every metric").Bool()
	verbose       = kingpin.Flag("v", "verbose logging").Bool()
	shouldProfile = kingpin.Flag("profile", "write a cpu profile").Bool()
	profileDir    = kingpin.Flag("profile-dir", "directory of the cpu profile").Default(".").String()
)

func main() {
	kingpin.Parse()

	var (
		log *zap.Logger
		err error
	)
	if *verbose {
		log, err = logger.NewDevelopment()
	} else {
		log, err = logger.New()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Error("extraction failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.Logger) error {
	v := util.NewViper()
	if err := util.ReadConfig(v, *configFile); err != nil {
		return err
	}

	// flags win over the config file and the environment
	overrides := map[string]string{
		"pbf_file":           *pbfFile,
		"srtm_dir":           *srtmDir,
		"output_file":        *outputFile,
		"output.compression": *compression,
	}
	for key, val := range overrides {
		if val != "" {
			v.Set(key, val)
		}
	}
	if *noElevation {
		v.Set("elevation.enabled", false)
	}
	if *bicycleRoutes {
		v.Set("builder.bicycle_routes", true)
	}
	if *prune {
		v.Set("builder.prune_dominated", true)
	}

	cfg, err := util.LoadConfig(v)
	if err != nil {
		return err
	}

	if *shouldProfile {
		defer profile.Start(profile.ProfilePath(*profileDir), profile.CPUProfile).Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("extracting bicycle graph", zap.String("pbf", cfg.PbfFile), zap.String("srtm", cfg.SrtmDir),
		zap.String("output", cfg.OutputFile))
	_, err = extractor.NewExtractor(cfg, log).Run(ctx)
	return err
}
