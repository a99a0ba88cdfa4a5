// Command deckgen renders presentation slides and reference images through a
// multi-modal chat completions endpoint.
//
//	deckgen slide -prompt "Title slide" -out slides/01_title.png
//	deckgen reference -prompt "hero, front view" -out settings/characters/hero/front.png
//	deckgen deck -plan deck.json -out slides/
//	deckgen settings-init
//	deckgen settings-add -category characters -name hero -desc "brave knight" -image hero.png
//	deckgen settings-scan
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/deckgen-dev/deckgen"
	"github.com/deckgen-dev/deckgen/deck"
	"github.com/deckgen-dev/deckgen/settings"
)

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "slide":
		err = runSlide(os.Args[2:], false)
	case "reference":
		err = runSlide(os.Args[2:], true)
	case "deck":
		err = runDeck(os.Args[2:])
	case "settings-init":
		err = settings.Init(".")
	case "settings-add":
		err = runSettingsAdd(os.Args[2:])
	case "settings-scan":
		err = runSettingsScan()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "deckgen:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: deckgen <slide|reference|deck|settings-init|settings-add|settings-scan> [flags]")
}

func newClient() *deckgen.Client {
	return deckgen.NewClient(deckgen.Config{Logger: slog.Default()})
}

func runSlide(args []string, reference bool) error {
	name := "slide"
	if reference {
		name = "reference"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	prompt := fs.String("prompt", "", "image description (required)")
	out := fs.String("out", "", "output path (required)")
	style := fs.String("style", "", "style prefix prepended to the prompt")
	keys := fs.String("settings", "", "comma-separated settings keys, e.g. art_style,characters/hero")
	quality := fs.Bool("quality", false, "run the quality gate with bounded refinement")
	retries := fs.Int("retries", 0, "generation attempts (default 3)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *prompt == "" || *out == "" {
		fs.Usage()
		return fmt.Errorf("-prompt and -out are required")
	}

	c := newClient()

	req := deckgen.GenerationRequest{
		Prompt:       *prompt,
		StylePrefix:  *style,
		QualityCheck: *quality,
		Retries:      *retries,
		OutputPath:   *out,
	}
	if *keys != "" {
		cat, err := settings.Load(".")
		if err != nil {
			return err
		}
		refs, err := cat.Resolve(".", splitKeys(*keys))
		if err != nil {
			return err
		}
		req.References = refs
		desc, err := cat.ResolveDescriptions(splitKeys(*keys))
		if err != nil {
			return err
		}
		if desc != "" {
			req.Prompt = desc + " " + req.Prompt
		}
	}

	var res deckgen.Result
	if reference {
		res = c.GenerateReference(context.Background(), req)
	} else {
		res = c.GenerateSlide(context.Background(), req)
	}
	if !res.OK {
		return res.Err
	}
	fmt.Println("wrote", res.OutputPath)
	return nil
}

func runDeck(args []string) error {
	fs := flag.NewFlagSet("deck", flag.ExitOnError)
	planPath := fs.String("plan", "deck.json", "deck plan file")
	outDir := fs.String("out", "slides", "output directory")
	pdfPath := fs.String("pdf", "", "also bind finished slides into this PDF")
	workers := fs.Int("workers", deck.DefaultWorkers, "parallel slide generations")
	quality := fs.Bool("quality", false, "run the quality gate per slide")
	if err := fs.Parse(args); err != nil {
		return err
	}

	plan, err := deck.LoadPlan(*planPath)
	if err != nil {
		return err
	}

	c := newClient()

	r := &deck.Runner{
		Generate: c.GenerateSlide,
		OutDir:   *outDir,
		Workers:  *workers,
		Quality:  *quality,
		Logger:   slog.Default(),
	}
	// Slides without explicit keys default to the catalog art style, so the
	// catalog is wired whenever it exists; it is only required when the plan
	// names keys itself.
	cat, err := settings.Load(".")
	switch {
	case err == nil:
		r.Resolve = func(keys []string) ([]deckgen.ReferenceImage, error) {
			return cat.Resolve(".", keys)
		}
		r.Describe = cat.ResolveDescriptions
	case needsSettings(plan):
		return err
	}

	report, err := r.Run(context.Background(), plan)
	if err != nil {
		return err
	}
	fmt.Printf("deck done: %d succeeded, %d failed\n", report.Succeeded, report.Failed)

	if *pdfPath != "" {
		paths := deck.CollectArtifacts(plan, *outDir)
		if err := deck.BindPDF(*pdfPath, paths); err != nil {
			return err
		}
		fmt.Println("wrote", *pdfPath)
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d slide(s) failed", report.Failed)
	}
	return nil
}

func needsSettings(plan *deck.Plan) bool {
	if len(plan.Settings) > 0 {
		return true
	}
	for _, s := range plan.Slides {
		if len(s.Settings) > 0 {
			return true
		}
	}
	return false
}

func runSettingsAdd(args []string) error {
	fs := flag.NewFlagSet("settings-add", flag.ExitOnError)
	category := fs.String("category", "", "one of art_style, characters, world, props (required)")
	name := fs.String("name", "", "entry name (required except for art_style)")
	desc := fs.String("desc", "", "short description")
	image := fs.String("image", "", "comma-separated image paths to register")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *category == "" {
		fs.Usage()
		return fmt.Errorf("-category is required")
	}

	cat, err := settings.Load(".")
	if err != nil {
		return err
	}
	if err := cat.Add(*category, *name, *desc, splitKeys(*image)); err != nil {
		return err
	}
	return cat.Save(".")
}

func runSettingsScan() error {
	cat, err := settings.Load(".")
	if err != nil {
		return err
	}
	added, err := cat.Scan(".")
	if err != nil {
		return err
	}
	if err := cat.Save("."); err != nil {
		return err
	}
	fmt.Printf("registered %d new image(s)\n", added)
	return nil
}

func splitKeys(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
