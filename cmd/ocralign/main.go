// ocralign is a command-line tool for aligning OCR output with a clean reference text.
//
// Every OCR line is matched against windows of reference words, scored, and
// replaced by its best match in the output. The character confusions between
// the recognized lines and their matches are tallied and reported, which shows
// how the OCR engine tends to fail on the material.
//
// Configuration:
//
// An optional YAML configuration file sets the alignment options. Flags given
// on the command line override it:
//
//	threshold: 70
//	script: hebrew
//	nfc: false
//	confusions: normalized
//	workers: 4
//	top_confusions: 5
//	reference_encoding: utf-8
//	gdocai:
//	  project_id: "your-gcp-project-id"
//	  location: "us"
//	  processor_id: "your-processor-id"
//
// Usage:
//
//	ocralign -ref reference.txt (-ocr lines.txt | -hocr path | -pagexml path | -pdf input.pdf) [options]
//
// Required flags:
//
//	-ref string      Path to the reference text
//
// Input options (exactly one required):
//
//	-ocr string      Plain text file, one OCR line per line
//	-hocr string     hOCR file or directory of hOCR files
//	-pagexml string  PAGE-XML file or directory of PAGE-XML files
//	-pdf string      PDF to recognize with Google Document AI (needs gdocai in the config)
//
// Output options:
//
//	-out string        Output directory (default "aligned")
//	-debug-api string  Path to save the raw Document AI response as JSON
//	-no-color          Disable colored console output
//	-verbose           Print every aligned line
//
// Alignment options:
//
//	-config string        Path to the YAML configuration file
//	-threshold int        Low-confidence threshold (0-100)
//	-script string        Characters kept by normalization: hebrew, a Unicode script name or hex ranges
//	-nfc                  Compose input to NFC before normalization
//	-confusions string    Compare matches with the "normalized" or "raw" line
//	-workers int          Lines aligned concurrently
//	-top int              Confusions listed in the summary
//	-ref-encoding string  Reference encoding, e.g. windows-1255
//
// Rewritten documents are saved under <out>/hocr or <out>/xml. A line is only
// replaced when its match differs from it and scores above 50.
//
// Example:
//
//	ocralign -ref genesis.txt -ocr page1.txt -out results
//	ocralign -ref genesis.txt -pagexml scans/ -workers 4 -verbose
//	ocralign -config config.yml -ref genesis.txt -pdf scan.pdf -debug-api response.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gardar/ocralign/pkg/align"
	"github.com/gardar/ocralign/pkg/plaintext"
	"github.com/gardar/ocralign/pkg/report"
)

func main() {
	// Required flags.
	refPath := flag.String("ref", "", "Path to the reference text (required)")

	// Input flags.
	ocrPath := flag.String("ocr", "", "Plain text file with one OCR line per line")
	hocrPath := flag.String("hocr", "", "hOCR file or directory of hOCR files")
	pagexmlPath := flag.String("pagexml", "", "PAGE-XML file or directory of PAGE-XML files")
	pdfPath := flag.String("pdf", "", "PDF to recognize with Google Document AI")

	// Output flags.
	outDir := flag.String("out", "aligned", "Output directory")
	debugAPIPath := flag.String("debug-api", "", "Path to save the raw Document AI response as JSON")
	noColor := flag.Bool("no-color", false, "Disable colored console output")
	verbose := flag.Bool("verbose", false, "Print every aligned line")

	// Alignment flags.
	configPath := flag.String("config", "", "Path to the config YAML file")
	defaults := align.DefaultConfig()
	var o options
	flag.IntVar(&o.threshold, "threshold", defaults.Threshold, "Low-confidence threshold (0-100)")
	flag.StringVar(&o.script, "script", defaults.Script, "Characters kept by normalization: hebrew, a Unicode script name or hex ranges")
	flag.BoolVar(&o.nfc, "nfc", defaults.NFC, "Compose input to NFC before normalization")
	flag.StringVar(&o.confusions, "confusions", string(defaults.Confusions), `Compare matches with the "normalized" or "raw" line`)
	flag.IntVar(&o.workers, "workers", defaults.Workers, "Lines aligned concurrently")
	flag.IntVar(&o.top, "top", defaults.TopConfusions, "Confusions listed in the summary")
	flag.StringVar(&o.refEncoding, "ref-encoding", "", "Reference encoding, e.g. windows-1255 (default utf-8)")

	flag.Parse()

	o.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		o.set[f.Name] = true
	})

	if *refPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -ref flag is required")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	inputs := 0
	for _, p := range []string{*ocrPath, *hocrPath, *pagexmlPath, *pdfPath} {
		if p != "" {
			inputs++
		}
	}
	if inputs != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one of -ocr, -hocr, -pagexml or -pdf must be provided")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var yc *yamlConfig
	if *configPath != "" {
		var err error
		yc, err = loadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	cfg := buildConfig(yc, o)
	if *verbose {
		cfg.Logger = os.Stdout
	}
	aligner, err := align.New(cfg)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	refText, err := plaintext.ReadReferenceFile(*refPath, referenceEncoding(yc, o))
	if err != nil {
		log.Fatalf("Failed to load reference: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b := &batch{
		aligner: aligner,
		ref:     aligner.Reference(refText),
		outDir:  *outDir,
		logger:  os.Stdout,
		now:     time.Now,
	}

	var run *align.Run
	switch {
	case *ocrPath != "":
		run, err = b.alignText(ctx, *ocrPath)
	case *hocrPath != "":
		run, err = b.alignHOCR(ctx, *hocrPath)
	case *pagexmlPath != "":
		run, err = b.alignPageXML(ctx, *pagexmlPath)
	case *pdfPath != "":
		if yc == nil || yc.GDocAI == nil {
			log.Fatalf("Error: -pdf needs a gdocai section in the -config file")
		}
		run, err = b.alignPDF(ctx, *pdfPath, yc.GDocAI, *debugAPIPath)
	}
	if err != nil {
		log.Fatalf("Alignment failed: %v", err)
	}

	paths, err := report.WriteRun(*outDir, report.NewRunID(), run)
	if err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}

	console := report.NewConsole(os.Stdout, *noColor)
	console.Outputs(paths)
	console.Summary(run.Summary, aligner.TopConfusions(run))
}
