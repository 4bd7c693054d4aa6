package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "philoassets",
	Short:         "Batch image optimization pipeline for static assets",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var optimizeFlags struct {
	output       string
	threshold    string
	maxDimension int
	jpegQuality  int
	webpQuality  int
	qualityFloor int
	jobs         int
	recursive    bool
	force        bool
	webp         bool
	aggressive   bool
	dryRun       bool
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize [flags] <path>...",
	Short: "Optimize images under the given files or directories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := DefaultOptions()
		opts.OutputDir = optimizeFlags.output
		opts.MaxDimension = optimizeFlags.maxDimension
		opts.JPEGQuality = optimizeFlags.jpegQuality
		opts.WebPQuality = optimizeFlags.webpQuality
		opts.QualityFloor = optimizeFlags.qualityFloor
		opts.Jobs = optimizeFlags.jobs
		opts.Recursive = optimizeFlags.recursive
		opts.Force = optimizeFlags.force
		opts.WebPSiblings = optimizeFlags.webp
		opts.Aggressive = optimizeFlags.aggressive
		opts.DryRun = optimizeFlags.dryRun

		threshold, err := ParseSizeThreshold(optimizeFlags.threshold)
		if err != nil {
			return err
		}
		opts.SizeThreshold = threshold

		if rate := os.Getenv("RATE"); rate != "" {
			quality, err := strconv.Atoi(rate)
			if err != nil {
				return fmt.Errorf("invalid RATE value %q: %w", rate, err)
			}
			opts.JPEGQuality = quality
		}

		store, err := NewMetadataStore()
		if err != nil {
			return err
		}
		defer store.Close()

		report, err := NewOptimizer(store).Run(args, opts)
		if err != nil {
			return err
		}
		if report.Failed > 0 {
			return fmt.Errorf("%d of %d jobs failed", report.Failed, report.Failed+report.Processed)
		}
		return nil
	},
}

var backupFlags struct {
	jobs int
}

var backupCmd = &cobra.Command{
	Use:   "backup <output-dir> <bucket>",
	Short: "Archive the optimized output tree to an S3 bucket",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		backup, err := NewOutputBackup(ctx)
		if err != nil {
			return err
		}
		return backup.BackupTree(ctx, args[0], args[1], backupFlags.jobs)
	},
}

var signFlags struct {
	secret string
	ttl    time.Duration
}

var signCmd = &cobra.Command{
	Use:   "sign <uri>",
	Short: "Compute a secure-link digest and expiry for an asset URI",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := signFlags.secret
		if secret == "" {
			secret = os.Getenv("SECURE_LINK_SECRET")
		}
		if secret == "" {
			return fmt.Errorf("no secret given: use --secret or SECURE_LINK_SECRET")
		}
		expires := time.Now().Add(signFlags.ttl).Unix()
		fmt.Printf("%s?md5=%s&expires=%d\n", args[0], Digest(expires, args[0], secret), expires)
		return nil
	},
}

func init() {
	defaults := DefaultOptions()
	optimizeCmd.Flags().StringVarP(&optimizeFlags.output, "output", "o", defaults.OutputDir, "output directory for optimized files")
	optimizeCmd.Flags().StringVar(&optimizeFlags.threshold, "threshold", "500KB", "size above which files are optimized (e.g. 500KB, 2MB)")
	optimizeCmd.Flags().IntVar(&optimizeFlags.maxDimension, "max-dimension", defaults.MaxDimension, "downscale images whose longest side exceeds this")
	optimizeCmd.Flags().IntVar(&optimizeFlags.jpegQuality, "quality", defaults.JPEGQuality, "JPEG encode quality")
	optimizeCmd.Flags().IntVar(&optimizeFlags.webpQuality, "webp-quality", defaults.WebPQuality, "WebP encode quality")
	optimizeCmd.Flags().IntVar(&optimizeFlags.qualityFloor, "quality-floor", defaults.QualityFloor, "lowest quality the aggressive search may reach")
	optimizeCmd.Flags().IntVarP(&optimizeFlags.jobs, "jobs", "j", defaults.Jobs, "maximum parallel jobs (clamped to a quarter of the CPUs)")
	optimizeCmd.Flags().BoolVarP(&optimizeFlags.recursive, "recursive", "r", false, "recurse into subdirectories")
	optimizeCmd.Flags().BoolVarP(&optimizeFlags.force, "force", "f", false, "reprocess files regardless of markers and existing outputs")
	optimizeCmd.Flags().BoolVar(&optimizeFlags.webp, "webp", false, "also emit a WebP rendition next to each output")
	optimizeCmd.Flags().BoolVar(&optimizeFlags.aggressive, "aggressive", false, "size-driven WebP re-encode of previously optimized files")
	optimizeCmd.Flags().BoolVar(&optimizeFlags.dryRun, "dry-run", false, "select candidates without processing them")

	backupCmd.Flags().IntVarP(&backupFlags.jobs, "jobs", "j", defaults.Jobs, "maximum parallel uploads")

	signCmd.Flags().StringVar(&signFlags.secret, "secret", "", "secure-link secret")
	signCmd.Flags().DurationVar(&signFlags.ttl, "ttl", 24*time.Hour, "how long the signed link stays valid")

	rootCmd.AddCommand(optimizeCmd, backupCmd, signCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}
}
