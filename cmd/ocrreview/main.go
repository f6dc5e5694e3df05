// ocrreview serves a web page for reviewing OCR alignments.
//
// OCR lines (plain text, hOCR or PAGE-XML uploads, or pasted text) are aligned
// against a reference chosen from a directory, uploaded or pasted. Each run is
// shown ten lines per page with the differences to the matched text
// highlighted, and the final text of any line can be corrected before the
// alignment table, matched text, confusion table and summary are downloaded.
//
// Runs are kept in memory only and are lost when the server stops.
//
// Usage:
//
//	ocrreview [options]
//
// Options:
//
//	-addr string          Address to listen on (default ":8080")
//	-refs string          Directory of reference .txt files to choose from
//	-ref-encoding string  Encoding of reference files, e.g. windows-1255
//	-threshold int        Low-confidence threshold (0-100)
//	-script string        Characters kept by normalization
//	-workers int          Lines aligned concurrently
//	-page-size int        Lines per page
//	-quiet                Do not log requests
//
// Example:
//
//	ocrreview -refs references/ -addr localhost:8080
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gardar/ocralign/pkg/align"
	"github.com/gardar/ocralign/pkg/review"
)

func main() {
	defaults := align.DefaultConfig()

	addr := flag.String("addr", ":8080", "Address to listen on")
	refDir := flag.String("refs", "", "Directory of reference .txt files to choose from")
	refEncoding := flag.String("ref-encoding", "", "Encoding of reference files, e.g. windows-1255 (default utf-8)")
	threshold := flag.Int("threshold", defaults.Threshold, "Low-confidence threshold (0-100)")
	script := flag.String("script", defaults.Script, "Characters kept by normalization: hebrew, a Unicode script name or hex ranges")
	workers := flag.Int("workers", 4, "Lines aligned concurrently")
	pageSize := flag.Int("page-size", review.DefaultPageSize, "Lines per page")
	quiet := flag.Bool("quiet", false, "Do not log requests")

	flag.Parse()

	cfg := defaults
	cfg.Threshold = *threshold
	cfg.Script = *script
	cfg.Workers = *workers

	aligner, err := align.New(cfg)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	var logger io.Writer = os.Stderr
	if *quiet {
		logger = nil
	}

	srv := &http.Server{
		Addr: *addr,
		Handler: review.New(aligner, review.Options{
			ReferenceDir:      *refDir,
			ReferenceEncoding: *refEncoding,
			PageSize:          *pageSize,
			Logger:            logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown failed: %v", err)
		}
	}()

	fmt.Printf("Review server listening on %s\n", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
