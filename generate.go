package deckgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/deckgen-dev/deckgen/internal/chatapi"
	"github.com/deckgen-dev/deckgen/internal/httpx"
	"github.com/deckgen-dev/deckgen/internal/imgutil"
	"github.com/deckgen-dev/deckgen/internal/locator"
	"github.com/deckgen-dev/deckgen/internal/refsheet"
)

// MinArtifactSize separates real images from error placeholders.
const MinArtifactSize = 1000

// GenerateSlide runs the full pipeline for one slide. It never returns a raw
// error: every failure class folds into the Result so callers can aggregate
// outcomes across a batch.
func (c *Client) GenerateSlide(ctx context.Context, req GenerationRequest) Result {
	res := Result{OutputPath: req.OutputPath}

	// Reruns never regenerate completed work.
	if artifactValid(req.OutputPath) {
		c.log.Info("output already exists, skipping", "path", req.OutputPath)
		res.OK, res.Skipped = true, true
		return res
	}

	if c.api.APIKey == "" {
		res.Err = &Error{Code: CodeMissingCredential, Message: "no API key: set " + EnvAPIKey}
		return res
	}

	retries := req.Retries
	if retries <= 0 {
		retries = DefaultRetries
	}

	prompt := req.Prompt
	if req.StylePrefix != "" {
		prompt = req.StylePrefix + " " + prompt
	}

	// The sheet is built once and reused across attempts, never mutated.
	sheet, dropped := c.buildSheet(req.References)
	res.DroppedReferences = dropped

	content := composeContent(prompt, sheet)

	for attempt := 1; attempt <= retries; attempt++ {
		a := GenerationAttempt{Index: attempt}
		backoff := c.attemptOnce(ctx, content, req, &a)
		res.Attempts = append(res.Attempts, a)

		if a.Outcome == OutcomeSuccess {
			c.log.Info("slide generated",
				"path", req.OutputPath, "attempt", attempt, "bytes", a.Bytes)
			res.OK = true
			if req.QualityCheck {
				res.RefineRounds = c.refineArtifact(ctx, req, sheet, prompt)
			}
			return res
		}

		c.log.Warn("attempt failed",
			"path", req.OutputPath, "attempt", attempt, "outcome", string(a.Outcome))
		if attempt < retries {
			if err := httpx.Sleep(ctx, backoff); err != nil {
				break
			}
		}
	}

	res.Err = &Error{
		Code:    CodeExhaustedRetries,
		Message: fmt.Sprintf("no usable image after %d attempts", retries),
	}
	return res
}

// GenerateReference generates a reference image: same pipeline, but the
// downloaded artifact is resized and re-encoded as PNG so it stays a compact
// multi-modal input for later requests.
func (c *Client) GenerateReference(ctx context.Context, req GenerationRequest) Result {
	if req.NormalizeMaxSize <= 0 {
		req.NormalizeMaxSize = DefaultReferenceMaxSize
	}
	return c.GenerateSlide(ctx, req)
}

// attemptOnce walks one attempt through {Sending, Downloading} and records
// the outcome. It returns the backoff to apply before the next attempt:
// transport timeouts and non-200 completions wait the long backoff, parse
// misses and download failures the short one.
func (c *Client) attemptOnce(ctx context.Context, content chatapi.Content, req GenerationRequest, a *GenerationAttempt) time.Duration {
	// Sending
	sendCtx, cancel := context.WithTimeout(ctx, c.cfg.SendTimeout)
	reply, err := c.api.Complete(sendCtx, content)
	cancel()
	if err != nil {
		if httpx.IsTimeout(err) {
			a.Outcome = OutcomeTimeout
			return c.cfg.SendBackoff
		}
		a.Outcome = OutcomeHTTPError
		var he *chatapi.HTTPError
		if errors.As(err, &he) {
			return c.cfg.SendBackoff
		}
		return c.cfg.ShortBackoff
	}

	loc, ok := locator.Extract(reply)
	if !ok {
		a.Outcome = OutcomeParseMiss
		return c.cfg.ShortBackoff
	}
	a.Locator = loc

	// Downloading
	dlCtx, cancel := context.WithTimeout(ctx, c.cfg.DownloadTimeout)
	data, err := c.api.Fetch(dlCtx, loc)
	cancel()
	if err != nil {
		if httpx.IsTimeout(err) {
			a.Outcome = OutcomeTimeout
			return c.cfg.SendBackoff
		}
		a.Outcome = OutcomeDownloadFail
		return c.cfg.ShortBackoff
	}
	// Valid means strictly more than MinArtifactSize bytes, same rule
	// artifactValid applies on reruns.
	if len(data) <= MinArtifactSize {
		a.Outcome = OutcomeDownloadFail
		return c.cfg.ShortBackoff
	}
	a.Bytes = len(data)

	if err := writeArtifact(req.OutputPath, data, req.NormalizeMaxSize); err != nil {
		c.log.Warn("write failed", "path", req.OutputPath, "error", err)
		a.Outcome = OutcomeDownloadFail
		return c.cfg.ShortBackoff
	}
	a.Outcome = OutcomeSuccess
	return 0
}

func (c *Client) buildSheet(refs []ReferenceImage) (*refsheet.Sheet, int) {
	if len(refs) == 0 {
		return nil, 0
	}
	b := &refsheet.Builder{
		CellSize:   c.cfg.CellSize,
		MaxColumns: c.cfg.MaxColumns,
		Fonts:      c.fonts,
	}
	sources := make([]refsheet.Source, len(refs))
	for i, r := range refs {
		sources[i] = refsheet.Source{Path: r.Path, Label: r.Label}
	}
	return b.Build(sources)
}

// composeContent maps (prompt, optional sheet) to the outbound message body:
// plain text without a sheet, otherwise [sheet image, prompt text] in order.
func composeContent(prompt string, sheet *refsheet.Sheet) chatapi.Content {
	if sheet == nil {
		return chatapi.TextContent(prompt)
	}
	uri, err := sheet.DataURI()
	if err != nil {
		return chatapi.TextContent(prompt)
	}
	return chatapi.PartsContent(
		chatapi.ImagePart(uri),
		chatapi.TextPart(prompt),
	)
}

func writeArtifact(path string, data []byte, normalizeMax int) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if normalizeMax > 0 {
		img, err := imgutil.Decode(data)
		if err != nil {
			return err
		}
		resized := imgutil.Flatten(imgutil.ResizeLongestSide(img, normalizeMax))
		data, err = imgutil.EncodePNG(resized)
		if err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// artifactValid reports whether path already holds a usable artifact.
func artifactValid(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Size() > MinArtifactSize
}
