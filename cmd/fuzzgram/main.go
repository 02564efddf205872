/*
Command fuzzgram builds and queries fuzzy trigram indexes.

Build an index from a corpus with one string per line. Line n (from 0) is
indexed under id n:

	fuzzgram build -o words.trie words.txt
	fuzzgram build -o words.trie.zst - < words.txt

Search it:

	fuzzgram search -i words.trie -t 0.3 -limit 10 hammock
	fuzzgram search -i words.trie -json -corpus words.txt ham spam

Print the posting list of a single trigram:

	fuzzgram lookup -i words.trie 'lb$'

Index locations may name a bucket instead of a local file:
s3://bucket/key or minio://bucket/key. Defaults come from an optional TOML
file given with -config; see Config.
*/
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hupe1980/fuzzgram"
	"github.com/hupe1980/fuzzgram/blobstore"
	"github.com/hupe1980/fuzzgram/blobstore/minio"
	"github.com/hupe1980/fuzzgram/blobstore/s3"
	"github.com/hupe1980/fuzzgram/codec"
)

const usage = `usage: fuzzgram <command> [flags]

commands:
  build   build an index from a line-delimited corpus
  search  search an index
  lookup  print the postings of one trigram
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "fuzzgram: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	switch args[0] {
	case "build":
		return runBuild(ctx, args[1:], stdin, stderr)
	case "search":
		return runSearch(ctx, args[1:], stdout, stderr)
	case "lookup":
		return runLookup(ctx, args[1:], stdout, stderr)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "TOML configuration file")
	return fs, configPath
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errUsage
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func runBuild(ctx context.Context, args []string, stdin io.Reader, stderr io.Writer) error {
	fs, configPath := newFlagSet("build", stderr)
	output := fs.String("o", "", "output index location (.zst or .lz4 compresses)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *output == "" || fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: fuzzgram build -o index corpus.txt")
		return errUsage
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}

	in := stdin
	if name := fs.Arg(0); name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	b := fuzzgram.NewBuilder(cfg.Options()...)
	if err := addLines(b, in); err != nil {
		return err
	}

	loc := parseLocation(*output)
	if loc.scheme == "" {
		return b.WriteFile(loc.key)
	}

	store, err := openStore(ctx, cfg, loc)
	if err != nil {
		return err
	}
	return b.Publish(ctx, store, loc.key)
}

// addLines indexes every line of r under its zero-based line number.
func addLines(b *fuzzgram.Builder, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var id uint32
	for sc.Scan() {
		if err := b.Add(sc.Text(), id); err != nil {
			return err
		}
		id++
	}
	return sc.Err()
}

type searchHit struct {
	Query string  `json:"query"`
	ID    uint32  `json:"id"`
	Score float32 `json:"score"`
	Text  string  `json:"text,omitempty"`
}

func runSearch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, configPath := newFlagSet("search", stderr)
	input := fs.String("i", "", "index location")
	threshold := fs.Float64("t", -1, "minimum score in [0, 1] (default from config, 0.3)")
	limit := fs.Int("limit", -1, "maximum results per query, 0 for all")
	asJSON := fs.Bool("json", false, "write JSON Lines")
	corpus := fs.String("corpus", "", "corpus file used to print matched lines")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *input == "" || fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: fuzzgram search -i index [-t 0.3] [-limit n] [-json] query...")
		return errUsage
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *threshold >= 0 {
		cfg.Search.Threshold = *threshold
	}
	if *limit >= 0 {
		cfg.Search.Limit = *limit
	}
	if *asJSON {
		cfg.Search.Output = "json"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var lines []string
	if *corpus != "" {
		if lines, err = readLines(*corpus); err != nil {
			return err
		}
	}

	idx, err := openIndex(ctx, cfg, *input)
	if err != nil {
		return err
	}
	defer idx.Close()

	c, _ := codec.ByName(cfg.Search.Codec)
	w := bufio.NewWriter(stdout)
	defer w.Flush()

	for _, q := range fs.Args() {
		results, err := idx.Search(ctx, q, float32(cfg.Search.Threshold), fuzzgram.WithLimit(cfg.Search.Limit))
		if err != nil {
			return err
		}

		for _, r := range results {
			hit := searchHit{Query: q, ID: r.ID, Score: r.Score}
			if int(r.ID) < len(lines) {
				hit.Text = lines[r.ID]
			}

			if cfg.Search.Output == "json" {
				if err := codec.WriteLine(w, c, hit); err != nil {
					return err
				}
				continue
			}

			if hit.Text != "" {
				fmt.Fprintf(w, "%s\t%d\t%.4f\t%s\n", q, hit.ID, hit.Score, hit.Text)
			} else {
				fmt.Fprintf(w, "%s\t%d\t%.4f\n", q, hit.ID, hit.Score)
			}
		}
	}

	return w.Flush()
}

func runLookup(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, configPath := newFlagSet("lookup", stderr)
	input := fs.String("i", "", "index location")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *input == "" || fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: fuzzgram lookup -i index trigram")
		return errUsage
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}

	idx, err := openIndex(ctx, cfg, *input)
	if err != nil {
		return err
	}
	defer idx.Close()

	leaves, err := idx.LookupTrigram(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	for _, l := range leaves {
		fmt.Fprintf(stdout, "%d\t%d\t%d\n", l.ID, l.Count, l.TotalNgrams)
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

// location is a parsed index location. scheme is empty for local paths.
type location struct {
	scheme string
	bucket string
	key    string
}

func parseLocation(s string) location {
	for _, scheme := range []string{"s3", "minio"} {
		rest, ok := strings.CutPrefix(s, scheme+"://")
		if !ok {
			continue
		}
		bucket, key, _ := strings.Cut(rest, "/")
		return location{scheme: scheme, bucket: bucket, key: key}
	}
	return location{key: s}
}

func openStore(ctx context.Context, cfg Config, loc location) (blobstore.BlobStore, error) {
	if loc.bucket == "" || loc.key == "" {
		return nil, fmt.Errorf("%s location needs a bucket and a key", loc.scheme)
	}

	switch loc.scheme {
	case "s3":
		var opts []s3.Option
		if cfg.S3.Region != "" {
			opts = append(opts, s3.WithRegion(cfg.S3.Region))
		}
		if cfg.S3.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(cfg.S3.Endpoint))
		}
		return s3.New(ctx, loc.bucket, opts...)
	case "minio":
		if cfg.Minio.Endpoint == "" {
			return nil, errors.New("minio.endpoint is not configured")
		}
		return minio.Dial(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Secure, loc.bucket, "")
	default:
		return nil, fmt.Errorf("unsupported scheme %q", loc.scheme)
	}
}

func openIndex(ctx context.Context, cfg Config, s string) (*fuzzgram.Index, error) {
	loc := parseLocation(s)
	if loc.scheme == "" {
		return fuzzgram.Open(loc.key, cfg.Options()...)
	}

	store, err := openStore(ctx, cfg, loc)
	if err != nil {
		return nil, err
	}
	return fuzzgram.OpenStore(ctx, store, loc.key, cfg.Options()...)
}
